package comps

import (
	"sort"
	"time"

	"github.com/ternarybob/praedium/internal/models"
)

// Candidate is a scored comparable prior to selection
type Candidate struct {
	Address       string
	City          string
	State         string
	Zip           string
	Price         *float64
	Date          *time.Time
	Sqft          *float64
	Beds          *int
	Baths         *float64
	YearBuilt     *int
	DistanceMi    float64
	Similarity    float64
	SourceQuality float64
	Effective     float64
	SourceURL     string
	Origin        models.CompOrigin
}

// DedupeAndRank collapses duplicate candidates by (address, source url),
// stamps effective scores, and returns the top n by effective score with
// similarity and date as tie-breakers. First occurrence wins a dedupe tie.
func DedupeAndRank(cands []Candidate, topN int) []Candidate {
	seen := make(map[string]bool, len(cands))
	unique := make([]Candidate, 0, len(cands))

	for _, c := range cands {
		key := foldField(c.Address) + "|" + foldField(c.SourceURL)
		if seen[key] {
			continue
		}
		seen[key] = true
		c.Effective = EffectiveScore(c.Similarity, c.SourceQuality)
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		a, b := unique[i], unique[j]
		if a.Effective != b.Effective {
			return a.Effective > b.Effective
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return dateOrMin(a.Date).After(dateOrMin(b.Date))
	})

	if topN > 0 && len(unique) > topN {
		unique = unique[:topN]
	}
	return unique
}

// dateOrMin substitutes the zero time so undated candidates sort last
func dateOrMin(d *time.Time) time.Time {
	if d == nil {
		return time.Time{}
	}
	return *d
}
