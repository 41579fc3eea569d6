package underwriting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/praedium/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestCompute_WholesaleHappyPath(t *testing.T) {
	u := Compute(Inputs{
		Strategy:   models.StrategyWholesale,
		RehabTier:  models.RehabTierMedium,
		SalePrices: []float64{400000, 420000, 440000},
		Sqft:       fptr(1500),
		Fees:       DefaultFees(models.StrategyWholesale),
	})

	require.NotNil(t, u.ARVEstimate.Base)
	assert.Equal(t, 420000.0, *u.ARVEstimate.Base)
	assert.Equal(t, 378000.0, *u.ARVEstimate.Low)
	assert.Equal(t, 462000.0, *u.ARVEstimate.High)

	// rehab: 1500 sqft * 35 = 52,500; high = 63,000
	require.NotNil(t, u.RehabRange.Base)
	assert.Equal(t, 52500.0, *u.RehabRange.Base)
	assert.Equal(t, 42000.0, *u.RehabRange.Low)
	assert.Equal(t, 63000.0, *u.RehabRange.High)

	// fees: 5000 + 3000 + 10000 + 1500
	assert.Equal(t, 19500.0, u.Fees.Total)

	// offer: 420000*0.70 - 63000 - 19500 = 211,500
	require.NotNil(t, u.OfferRecommendation.Base)
	assert.Equal(t, 211500.0, *u.OfferRecommendation.Base)
	assert.Equal(t, 190350.0, *u.OfferRecommendation.Low)
	assert.Equal(t, 232650.0, *u.OfferRecommendation.High)
}

func TestCompute_FlipUsesTargetMargin(t *testing.T) {
	u := Compute(Inputs{
		Strategy:     models.StrategyFlip,
		RehabTier:    models.RehabTierLight,
		SalePrices:   []float64{300000},
		Sqft:         fptr(1000),
		Fees:         DefaultFees(models.StrategyFlip),
		TargetMargin: 0.25,
	})

	// assignment fee absent outside wholesale
	assert.Equal(t, 0.0, u.Fees.Assignment)
	assert.Equal(t, 9500.0, u.Fees.Total)

	// offer: 300000*(1-0.25) - 15000 - 9500 = 200,500
	require.NotNil(t, u.OfferRecommendation.Base)
	assert.Equal(t, 200500.0, *u.OfferRecommendation.Base)
}

func TestCompute_RentalTakesLowerOfCaps(t *testing.T) {
	t.Run("Rent cap wins when lower", func(t *testing.T) {
		u := Compute(Inputs{
			Strategy:   models.StrategyRental,
			RehabTier:  models.RehabTierMedium,
			SalePrices: []float64{400000},
			Rents:      []float64{2000},
			Sqft:       fptr(1000),
			Fees:       DefaultFees(models.StrategyRental),
		})

		// min(400000*0.80, 2000*100) = 200,000; minus rehab 35,000 and fees 9,500
		require.NotNil(t, u.OfferRecommendation.Base)
		assert.Equal(t, 155500.0, *u.OfferRecommendation.Base)
	})

	t.Run("No rents falls back to 75 percent of ARV", func(t *testing.T) {
		u := Compute(Inputs{
			Strategy:   models.StrategyRental,
			RehabTier:  models.RehabTierMedium,
			SalePrices: []float64{400000},
			Sqft:       fptr(1000),
			Fees:       DefaultFees(models.StrategyRental),
		})

		// min(320000, 300000) - 35000 - 9500 = 255,500
		require.NotNil(t, u.OfferRecommendation.Base)
		assert.Equal(t, 255500.0, *u.OfferRecommendation.Base)
		assert.Nil(t, u.RentEstimate.Base)
	})
}

func TestCompute_NullSafety(t *testing.T) {
	t.Run("No sales means no ARV and no offer", func(t *testing.T) {
		u := Compute(Inputs{
			Strategy:  models.StrategyWholesale,
			RehabTier: models.RehabTierMedium,
			Sqft:      fptr(1500),
			Fees:      DefaultFees(models.StrategyWholesale),
		})

		assert.Nil(t, u.ARVEstimate.Base)
		assert.Nil(t, u.OfferRecommendation.Base)
		assert.Nil(t, u.OfferRecommendation.Low)
		assert.Nil(t, u.OfferRecommendation.High)
	})

	t.Run("No sqft means no rehab and no offer", func(t *testing.T) {
		u := Compute(Inputs{
			Strategy:   models.StrategyWholesale,
			RehabTier:  models.RehabTierMedium,
			SalePrices: []float64{400000},
			Fees:       DefaultFees(models.StrategyWholesale),
		})

		assert.Nil(t, u.RehabRange.Base)
		assert.Nil(t, u.OfferRecommendation.Base)
		require.NotNil(t, u.ARVEstimate.Base)
	})

	t.Run("Negative offer is preserved", func(t *testing.T) {
		u := Compute(Inputs{
			Strategy:   models.StrategyWholesale,
			RehabTier:  models.RehabTierHeavy,
			SalePrices: []float64{60000},
			Sqft:       fptr(2000),
			Fees:       DefaultFees(models.StrategyWholesale),
		})

		// 60000*0.70 - 144000 - 19500 = -121,500
		require.NotNil(t, u.OfferRecommendation.Base)
		assert.Equal(t, -121500.0, *u.OfferRecommendation.Base)
	})
}

func TestCompute_InvalidTierCoercesToMedium(t *testing.T) {
	u := Compute(Inputs{
		Strategy:   models.StrategyWholesale,
		RehabTier:  models.RehabTier("extreme"),
		SalePrices: []float64{400000},
		Sqft:       fptr(1000),
		Fees:       DefaultFees(models.StrategyWholesale),
	})

	assert.Equal(t, models.RehabTierMedium, u.RehabTier)
	require.NotNil(t, u.RehabRange.Base)
	assert.Equal(t, 35000.0, *u.RehabRange.Base)
}

func TestCompute_SensitivityTable(t *testing.T) {
	u := Compute(Inputs{
		Strategy:   models.StrategyWholesale,
		RehabTier:  models.RehabTierMedium,
		SalePrices: []float64{400000},
		Sqft:       fptr(1000),
		Fees:       DefaultFees(models.StrategyWholesale),
	})

	require.Len(t, u.Sensitivity, 3)
	assert.Equal(t, "conservative", u.Sensitivity[0].Scenario)
	assert.Equal(t, "base", u.Sensitivity[1].Scenario)
	assert.Equal(t, "optimistic", u.Sensitivity[2].Scenario)

	require.NotNil(t, u.Sensitivity[0].ARV)
	assert.Equal(t, 380000.0, *u.Sensitivity[0].ARV)
	require.NotNil(t, u.Sensitivity[2].ARV)
	assert.Equal(t, 420000.0, *u.Sensitivity[2].ARV)

	// base offer: 280000 - 42000 - 19500 = 218,500
	require.NotNil(t, u.Sensitivity[1].Offer)
	assert.Equal(t, 218500.0, *u.Sensitivity[1].Offer)
	require.NotNil(t, u.Sensitivity[0].Offer)
	assert.Equal(t, 201020.0, *u.Sensitivity[0].Offer)
}

func TestCompute_SensitivityNullWhenNoARV(t *testing.T) {
	u := Compute(Inputs{
		Strategy:  models.StrategyWholesale,
		RehabTier: models.RehabTierMedium,
		Fees:      DefaultFees(models.StrategyWholesale),
	})

	require.Len(t, u.Sensitivity, 3)
	for _, row := range u.Sensitivity {
		assert.Nil(t, row.ARV)
		assert.Nil(t, row.Offer)
	}
}
