// -----------------------------------------------------------------------
// Underwriting - Per-job valuation record with tri-range estimates
// -----------------------------------------------------------------------

package models

import "time"

// RehabTier selects the per-sqft rehab cost assumption
type RehabTier string

const (
	RehabTierLight  RehabTier = "light"
	RehabTierMedium RehabTier = "medium"
	RehabTierHeavy  RehabTier = "heavy"
)

// CoerceRehabTier maps a raw string to a valid tier; anything
// unrecognized becomes medium.
func CoerceRehabTier(s string) RehabTier {
	switch RehabTier(s) {
	case RehabTierLight, RehabTierMedium, RehabTierHeavy:
		return RehabTier(s)
	default:
		return RehabTierMedium
	}
}

// Estimate is a tri-range money estimate. Nil means not derivable from
// the available inputs; consumers must tolerate nil throughout.
type Estimate struct {
	Low  *float64 `json:"low"`
	Base *float64 `json:"base"`
	High *float64 `json:"high"`
}

// FeeSchedule itemizes the fixed transaction fees applied to an offer
type FeeSchedule struct {
	Closing    float64 `json:"closing"`
	Holding    float64 `json:"holding"`
	Assignment float64 `json:"assignment"` // wholesale only, else 0
	Misc       float64 `json:"misc"`
	Total      float64 `json:"total"`
}

// SensitivityRow is one scenario of the fixed three-row sensitivity table
type SensitivityRow struct {
	Scenario        string   `json:"scenario"` // conservative | base | optimistic
	ARVMultiplier   float64  `json:"arv_multiplier"`
	OfferAdjustment float64  `json:"offer_adjustment"`
	ARV             *float64 `json:"arv"`
	Offer           *float64 `json:"offer"`
}

// Underwriting is the per-job valuation record. A single row exists per
// job and is overwritten on rerun.
type Underwriting struct {
	ID                  string           `json:"id"`
	JobID               string           `json:"job_id" badgerhold:"index"`
	ARVEstimate         Estimate         `json:"arv_estimate"`
	RentEstimate        Estimate         `json:"rent_estimate"`
	RehabTier           RehabTier        `json:"rehab_tier"`
	RehabRange          Estimate         `json:"rehab_estimated_range"`
	OfferRecommendation Estimate         `json:"offer_price_recommendation"`
	Fees                FeeSchedule      `json:"fees"`
	Sensitivity         []SensitivityRow `json:"sensitivity_table"`
	CreatedAt           time.Time        `json:"created_at"`
}
