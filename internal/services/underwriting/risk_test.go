package underwriting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/praedium/internal/models"
)

func TestComputeRisk_TitleRisk(t *testing.T) {
	t.Run("Owner present", func(t *testing.T) {
		r := ComputeRisk(RiskInputs{OwnerNames: []string{"Jane Doe"}, SalesCompCount: 1, RentalCompCount: 1})
		assert.Equal(t, 0.35, r.TitleRisk)
		assert.NotContains(t, r.ComplianceFlags, models.FlagOwnerNotVerified)
	})

	t.Run("Owner missing", func(t *testing.T) {
		r := ComputeRisk(RiskInputs{SalesCompCount: 1, RentalCompCount: 1})
		assert.Equal(t, 0.75, r.TitleRisk)
		assert.Contains(t, r.ComplianceFlags, models.FlagOwnerNotVerified)
	})
}

func TestComputeRisk_CompFlags(t *testing.T) {
	r := ComputeRisk(RiskInputs{OwnerNames: []string{"Jane Doe"}})
	assert.Contains(t, r.ComplianceFlags, models.FlagInsufficientSalesComps)
	assert.Contains(t, r.ComplianceFlags, models.FlagInsufficientRentalComps)
}

func TestComputeRisk_ValuationConflict(t *testing.T) {
	// Evidence and unknowns chosen so neither case saturates the clamp.
	base := RiskInputs{
		EvidenceCount:     6,
		UnknownCount:      2,
		OwnerNames:        []string{"Jane Doe"},
		SalesCompCount:    3,
		RentalCompCount:   2,
		ARVBase:           fptr(400000),
		Zestimate:         fptr(250000),
		ConflictThreshold: 0.30,
	}

	conflicted := ComputeRisk(base)
	assert.Contains(t, conflicted.ComplianceFlags, models.FlagValuationConflictComps)

	agreeing := base
	agreeing.Zestimate = fptr(410000)
	clean := ComputeRisk(agreeing)
	assert.NotContains(t, clean.ComplianceFlags, models.FlagValuationConflictComps)

	// |400000-250000|/250000 = 0.6 > 0.30 costs exactly the ARV penalty
	assert.InDelta(t, 0.55, clean.DataConfidence, 1e-9)
	assert.InDelta(t, 0.43, conflicted.DataConfidence, 1e-9)
	assert.InDelta(t, 0.12, clean.DataConfidence-conflicted.DataConfidence, 1e-9)
}

func TestComputeRisk_RentConflict(t *testing.T) {
	r := ComputeRisk(RiskInputs{
		EvidenceCount:     12,
		OwnerNames:        []string{"Jane Doe"},
		SalesCompCount:    3,
		RentalCompCount:   2,
		RentBase:          fptr(3000),
		RentZestimate:     fptr(1800),
		ConflictThreshold: 0.30,
	})

	assert.Contains(t, r.ComplianceFlags, models.FlagRentConflictComps)
}

func TestComputeRisk_NilValuesNeverConflict(t *testing.T) {
	r := ComputeRisk(RiskInputs{
		EvidenceCount:   6,
		OwnerNames:      []string{"Jane Doe"},
		SalesCompCount:  3,
		RentalCompCount: 2,
		ARVBase:         fptr(400000),
	})

	assert.NotContains(t, r.ComplianceFlags, models.FlagValuationConflictComps)
	assert.NotContains(t, r.ComplianceFlags, models.FlagRentConflictComps)
}

func TestComputeRisk_DataConfidence(t *testing.T) {
	t.Run("Full coverage neutral confidence", func(t *testing.T) {
		r := ComputeRisk(RiskInputs{
			EvidenceCount:   12,
			MeanConfidence:  fptr(0.5),
			OwnerNames:      []string{"Jane Doe"},
			SalesCompCount:  3,
			RentalCompCount: 2,
		})
		// 1.0 - 0 + 0.25 + 0 - 0, clamped to 1
		assert.Equal(t, 1.0, r.DataConfidence)
	})

	t.Run("Unknown penalty caps at 0.6", func(t *testing.T) {
		r := ComputeRisk(RiskInputs{
			EvidenceCount:   12,
			MeanConfidence:  fptr(0.5),
			UnknownCount:    10,
			OwnerNames:      []string{"Jane Doe"},
			SalesCompCount:  3,
			RentalCompCount: 2,
		})
		// 1.0 - 0.6 + 0.25 = 0.65
		assert.InDelta(t, 0.65, r.DataConfidence, 1e-9)
	})

	t.Run("Bounded in zero one", func(t *testing.T) {
		r := ComputeRisk(RiskInputs{
			EvidenceCount:     0,
			UnknownCount:      10,
			ARVBase:           fptr(500000),
			Zestimate:         fptr(100000),
			RentBase:          fptr(4000),
			RentZestimate:     fptr(1000),
			ConflictThreshold: 0.30,
		})
		assert.GreaterOrEqual(t, r.DataConfidence, 0.0)
		assert.LessOrEqual(t, r.DataConfidence, 1.0)
	})

	t.Run("High confidence evidence lifts score", func(t *testing.T) {
		low := ComputeRisk(RiskInputs{EvidenceCount: 6, MeanConfidence: fptr(0.5), OwnerNames: []string{"x"}, SalesCompCount: 1, RentalCompCount: 1})
		high := ComputeRisk(RiskInputs{EvidenceCount: 6, MeanConfidence: fptr(0.95), OwnerNames: []string{"x"}, SalesCompCount: 1, RentalCompCount: 1})
		assert.Greater(t, high.DataConfidence, low.DataConfidence)
	})
}

func TestComputeRisk_Notes(t *testing.T) {
	r := ComputeRisk(RiskInputs{EvidenceCount: 6, SalesCompCount: 1, RentalCompCount: 1})
	require.NotEmpty(t, r.Notes)
	assert.Contains(t, r.Notes, "evidence=6")
}
