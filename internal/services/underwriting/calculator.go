// -----------------------------------------------------------------------
// Underwriting Calculator - Deterministic ARV, rehab and offer math
// -----------------------------------------------------------------------

package underwriting

import (
	"math"

	"github.com/ternarybob/praedium/internal/models"
)

// Fee and margin defaults applied when assumptions leave them unset
const (
	DefaultClosingCost       = 5000.0
	DefaultHoldingCost       = 3000.0
	DefaultAssignmentFee     = 10000.0
	DefaultMiscFee           = 1500.0
	DefaultTargetMargin      = 0.20
	DefaultConflictThreshold = 0.30
)

// rehabPerSqft maps a rehab tier to its dollars-per-square-foot rate
var rehabPerSqft = map[models.RehabTier]float64{
	models.RehabTierLight:  15,
	models.RehabTierMedium: 35,
	models.RehabTierHeavy:  60,
}

// FeeConfig carries the per-job fee schedule before totaling
type FeeConfig struct {
	ClosingCost   float64
	HoldingCost   float64
	AssignmentFee float64
	MiscFee       float64
}

// DefaultFees returns the stock fee schedule for a strategy. The
// assignment fee applies to wholesale deals only.
func DefaultFees(strategy models.Strategy) FeeConfig {
	fees := FeeConfig{
		ClosingCost: DefaultClosingCost,
		HoldingCost: DefaultHoldingCost,
		MiscFee:     DefaultMiscFee,
	}
	if strategy == models.StrategyWholesale {
		fees.AssignmentFee = DefaultAssignmentFee
	}
	return fees
}

// Inputs is everything the calculator consumes. Slices may be empty and
// pointers nil; every derived value degrades to null rather than guessing.
type Inputs struct {
	Strategy     models.Strategy
	RehabTier    models.RehabTier
	SalePrices   []float64
	Rents        []float64
	Sqft         *float64
	Fees         FeeConfig
	TargetMargin float64
}

// Compute derives the full underwriting record from comp prices, rehab
// assumptions and the fee schedule. Results carry two-decimal money values.
func Compute(in Inputs) *models.Underwriting {
	tier := models.CoerceRehabTier(string(in.RehabTier))

	margin := in.TargetMargin
	if margin <= 0 || margin >= 1 {
		margin = DefaultTargetMargin
	}

	arv := triRange(mean(in.SalePrices), 0.9, 1.1)
	rent := triRange(mean(in.Rents), 0.9, 1.1)

	var rehab models.Estimate
	if in.Sqft != nil && *in.Sqft > 0 {
		base := *in.Sqft * rehabPerSqft[tier]
		rehab = models.Estimate{
			Low:  round2p(base * 0.8),
			Base: round2p(base),
			High: round2p(base * 1.2),
		}
	}

	fees := models.FeeSchedule{
		Closing:    round2(in.Fees.ClosingCost),
		Holding:    round2(in.Fees.HoldingCost),
		Assignment: round2(in.Fees.AssignmentFee),
		Misc:       round2(in.Fees.MiscFee),
	}
	fees.Total = round2(fees.Closing + fees.Holding + fees.Assignment + fees.Misc)

	offerBase := offerFor(in.Strategy, arv.Base, rent.Base, rehab.Base, rehab.High, fees.Total, margin)
	offer := models.Estimate{Base: offerBase}
	if offerBase != nil {
		offer.Low = round2p(*offerBase * 0.9)
		offer.High = round2p(*offerBase * 1.1)
	}

	return &models.Underwriting{
		ARVEstimate:         arv,
		RentEstimate:        rent,
		RehabTier:           tier,
		RehabRange:          rehab,
		OfferRecommendation: offer,
		Fees:                fees,
		Sensitivity:         sensitivityTable(arv.Base, offerBase),
	}
}

// offerFor applies the strategy-specific offer formula. Any missing operand
// makes the offer null.
func offerFor(strategy models.Strategy, arvBase, rentBase, rehabBase, rehabHigh *float64, feesTotal, margin float64) *float64 {
	switch strategy {
	case models.StrategyWholesale:
		if arvBase == nil || rehabHigh == nil {
			return nil
		}
		return round2p(*arvBase*0.70 - *rehabHigh - feesTotal)

	case models.StrategyFlip:
		if arvBase == nil || rehabBase == nil {
			return nil
		}
		return round2p(*arvBase*(1-margin) - *rehabBase - feesTotal)

	case models.StrategyRental:
		if arvBase == nil || rehabBase == nil {
			return nil
		}
		ceiling := *arvBase * 0.80
		alt := *arvBase * 0.75
		if rentBase != nil {
			alt = *rentBase * 100
		}
		return round2p(math.Min(ceiling, alt) - *rehabBase - feesTotal)

	default:
		return nil
	}
}

// sensitivityTable builds the fixed three-scenario stress table
func sensitivityTable(arvBase, offerBase *float64) []models.SensitivityRow {
	scenarios := []struct {
		name       string
		multiplier float64
		adjustment float64
	}{
		{"conservative", 0.95, -0.08},
		{"base", 1.0, 0.0},
		{"optimistic", 1.05, 0.08},
	}

	rows := make([]models.SensitivityRow, 0, len(scenarios))
	for _, sc := range scenarios {
		row := models.SensitivityRow{
			Scenario:        sc.name,
			ARVMultiplier:   sc.multiplier,
			OfferAdjustment: sc.adjustment,
		}
		if arvBase != nil {
			row.ARV = round2p(*arvBase * sc.multiplier)
		}
		if offerBase != nil {
			row.Offer = round2p(*offerBase * (1 + sc.adjustment))
		}
		rows = append(rows, row)
	}
	return rows
}

// triRange expands a base value into a low/base/high estimate
func triRange(base *float64, lowFactor, highFactor float64) models.Estimate {
	if base == nil {
		return models.Estimate{}
	}
	return models.Estimate{
		Low:  round2p(*base * lowFactor),
		Base: round2p(*base),
		High: round2p(*base * highFactor),
	}
}

// mean returns the arithmetic mean, or nil for an empty slice
func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2p(v float64) *float64 {
	r := round2(v)
	return &r
}
