// -----------------------------------------------------------------------
// Comp Scoring - Distance proxy, similarity and effective score math
// -----------------------------------------------------------------------

package comps

import (
	"math"
	"strings"
	"time"
)

// recencyMonthsUnknown stands in for candidates with no date, pushing the
// recency component to zero and failing the 12-month hard filter
const recencyMonthsUnknown = 999

// urbanCities are dense markets where a one-mile comp radius is the norm
var urbanCities = map[string]bool{
	"new york":      true,
	"brooklyn":      true,
	"bronx":         true,
	"queens":        true,
	"manhattan":     true,
	"newark":        true,
	"jersey city":   true,
	"hoboken":       true,
	"philadelphia":  true,
	"boston":        true,
	"chicago":       true,
	"san francisco": true,
	"washington":    true,
	"baltimore":     true,
}

// DefaultRadius picks the comp search radius for a city in miles
func DefaultRadius(city string) float64 {
	if urbanCities[strings.ToLower(strings.TrimSpace(city))] {
		return 1.0
	}
	return 3.0
}

// DistanceProxyMi approximates distance between two addresses from their
// zip, city and state fields. Matching is case-insensitive; blank fields
// never match.
func DistanceProxyMi(targetZip, targetCity, targetState, candZip, candCity, candState string) float64 {
	tz, cz := foldField(targetZip), foldField(candZip)
	tc, cc := foldField(targetCity), foldField(candCity)
	ts, cs := foldField(targetState), foldField(candState)

	switch {
	case tz != "" && tz == cz:
		return 0.5
	case tc != "" && ts != "" && tc == cc && ts == cs:
		return 1.5
	case ts != "" && ts == cs:
		return 4.0
	default:
		return 50.0
	}
}

// RecencyMonths returns whole months elapsed between a candidate date and
// today. Unknown dates map to a sentinel far beyond any filter window.
func RecencyMonths(d *time.Time, today time.Time) int {
	if d == nil {
		return recencyMonthsUnknown
	}
	return (today.Year()-d.Year())*12 + int(today.Month()-d.Month())
}

// SimilarityInput carries everything the similarity score needs. Pointer
// fields are nil when the value is unknown on either side.
type SimilarityInput struct {
	DistanceMi    float64
	RadiusMi      float64
	TargetSqft    *float64
	CandSqft      *float64
	TargetBeds    *int
	CandBeds      *int
	TargetBaths   *float64
	CandBaths     *float64
	RecencyMonths int
}

// SimilarityScore blends distance, size, layout and recency into [0,1]
func SimilarityScore(in SimilarityInput) float64 {
	dist := clamp01(1 - in.DistanceMi/math.Max(in.RadiusMi, 0.1))

	sqft := 0.5
	if in.TargetSqft != nil && in.CandSqft != nil && *in.TargetSqft > 0 {
		sqft = clamp01(1 - math.Abs(*in.CandSqft-*in.TargetSqft)/(*in.TargetSqft))
	}

	beds := 0.5
	if in.TargetBeds != nil && in.CandBeds != nil {
		switch diff := absInt(*in.CandBeds - *in.TargetBeds); diff {
		case 0:
			beds = 1.0
		case 1:
			beds = 0.6
		default:
			beds = 0.0
		}
	}

	baths := 0.5
	if in.TargetBaths != nil && in.CandBaths != nil {
		diff := math.Abs(*in.CandBaths - *in.TargetBaths)
		switch {
		case diff < 1e-9:
			baths = 1.0
		case diff <= 1.0:
			baths = 0.6
		default:
			baths = 0.0
		}
	}

	recency := clamp01(1 - float64(in.RecencyMonths)/12.0)

	score := 0.35*dist + 0.30*sqft + 0.20*(beds+baths)/2 + 0.15*recency
	return round6(score)
}

// EffectiveScore blends similarity with source trust for final ranking
func EffectiveScore(similarity, sourceQuality float64) float64 {
	return round6(0.85*similarity + 0.15*sourceQuality)
}

func foldField(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
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

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
