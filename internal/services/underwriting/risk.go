// -----------------------------------------------------------------------
// Risk Synthesizer - Data confidence and compliance flags per job
// -----------------------------------------------------------------------

package underwriting

import (
	"fmt"
	"math"

	"github.com/ternarybob/praedium/internal/models"
)

// Title risk levels keyed on whether an owner was verified
const (
	titleRiskVerified   = 0.35
	titleRiskUnverified = 0.75
)

// Contradiction penalties applied per conflicting valuation source
const (
	arvConflictPenalty  = 0.12
	rentConflictPenalty = 0.10
)

// RiskInputs collects the signals the risk synthesizer blends
type RiskInputs struct {
	EvidenceCount     int
	MeanConfidence    *float64 // nil when no evidence carries confidence
	UnknownCount      int      // unknowns emitted by the underwriting pass
	OwnerNames        []string
	SalesCompCount    int
	RentalCompCount   int
	ARVBase           *float64
	Zestimate         *float64
	RentBase          *float64
	RentZestimate     *float64
	ConflictThreshold float64
}

// ComputeRisk derives the per-job risk score. Pure and deterministic.
func ComputeRisk(in RiskInputs) *models.RiskScore {
	threshold := in.ConflictThreshold
	if threshold <= 0 {
		threshold = DefaultConflictThreshold
	}

	coverage := math.Min(1, float64(in.EvidenceCount)/12.0)

	meanConf := 0.5
	if in.MeanConfidence != nil {
		meanConf = *in.MeanConfidence
	}
	qualityAdjustment := (meanConf - 0.5) * 0.4

	unknownPenalty := math.Min(0.6, float64(in.UnknownCount)*0.1)

	titleRisk := titleRiskUnverified
	var flags []string
	if len(in.OwnerNames) > 0 {
		titleRisk = titleRiskVerified
	} else {
		flags = append(flags, models.FlagOwnerNotVerified)
	}

	if in.SalesCompCount == 0 {
		flags = append(flags, models.FlagInsufficientSalesComps)
	}
	if in.RentalCompCount == 0 {
		flags = append(flags, models.FlagInsufficientRentalComps)
	}

	contradictionPenalty := 0.0
	if conflicts(in.ARVBase, in.Zestimate, threshold) {
		flags = append(flags, models.FlagValuationConflictComps)
		contradictionPenalty += arvConflictPenalty
	}
	if conflicts(in.RentBase, in.RentZestimate, threshold) {
		flags = append(flags, models.FlagRentConflictComps)
		contradictionPenalty += rentConflictPenalty
	}

	dataConfidence := clamp01(coverage - unknownPenalty + 0.25 + qualityAdjustment - contradictionPenalty)

	notes := fmt.Sprintf(
		"evidence=%d coverage=%.2f mean_confidence=%.2f unknown_penalty=%.2f contradiction_penalty=%.2f",
		in.EvidenceCount, coverage, meanConf, unknownPenalty, contradictionPenalty,
	)

	return &models.RiskScore{
		TitleRisk:       titleRisk,
		DataConfidence:  round6(dataConfidence),
		ComplianceFlags: flags,
		Notes:           notes,
	}
}

// conflicts tests whether two valuation sources disagree beyond the
// threshold, relative to the reference value
func conflicts(derived, reference *float64, threshold float64) bool {
	if derived == nil || reference == nil {
		return false
	}
	denom := math.Max(math.Abs(*reference), 1)
	return math.Abs(*derived-*reference)/denom > threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
