package comps

import (
	"math"
	"time"
)

// maxCompAgeMonths is the hard recency window for any candidate
const maxCompAgeMonths = 12

// FilterInput carries the fields the hard filters inspect. Pointer fields
// are nil when unknown; a filter only applies when both sides are known.
type FilterInput struct {
	DistanceMi  float64
	RadiusMi    float64
	Date        *time.Time
	Today       time.Time
	TargetSqft  *float64
	CandSqft    *float64
	TargetBeds  *int
	CandBeds    *int
	TargetBaths *float64
	CandBaths   *float64
}

// PassesHardFilters applies the non-negotiable candidate gates: inside the
// radius, transacted within twelve months, and structurally close to the
// target.
func PassesHardFilters(in FilterInput) bool {
	if in.DistanceMi > in.RadiusMi {
		return false
	}
	if RecencyMonths(in.Date, in.Today) > maxCompAgeMonths {
		return false
	}
	if in.TargetSqft != nil && in.CandSqft != nil && *in.TargetSqft > 0 {
		if math.Abs(*in.CandSqft-*in.TargetSqft) > 0.25*(*in.TargetSqft) {
			return false
		}
	}
	if in.TargetBeds != nil && in.CandBeds != nil {
		if absInt(*in.CandBeds-*in.TargetBeds) > 1 {
			return false
		}
	}
	if in.TargetBaths != nil && in.CandBaths != nil {
		if math.Abs(*in.CandBaths-*in.TargetBaths) > 1.0 {
			return false
		}
	}
	return true
}
