package comps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeAndRank(t *testing.T) {
	june := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	july := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Duplicates keep first occurrence", func(t *testing.T) {
		cands := []Candidate{
			{Address: "123 Main St, Newark, NJ 07102", SourceURL: "https://zillow.com/a", Similarity: 0.8, SourceQuality: 0.7, Price: fptr(400000)},
			{Address: " 123 MAIN st, Newark, NJ 07102 ", SourceURL: "HTTPS://ZILLOW.COM/A", Similarity: 0.9, SourceQuality: 0.7, Price: fptr(999999)},
		}

		ranked := DedupeAndRank(cands, 8)
		require.Len(t, ranked, 1)
		assert.Equal(t, 400000.0, *ranked[0].Price)
	})

	t.Run("Effective score orders results", func(t *testing.T) {
		cands := []Candidate{
			{Address: "a", SourceURL: "u1", Similarity: 0.5, SourceQuality: 0.5},
			{Address: "b", SourceURL: "u2", Similarity: 0.9, SourceQuality: 0.95},
			{Address: "c", SourceURL: "u3", Similarity: 0.7, SourceQuality: 0.7},
		}

		ranked := DedupeAndRank(cands, 8)
		require.Len(t, ranked, 3)
		assert.Equal(t, "b", ranked[0].Address)
		assert.Equal(t, "c", ranked[1].Address)
		assert.Equal(t, "a", ranked[2].Address)
	})

	t.Run("Similarity breaks effective ties", func(t *testing.T) {
		// Same effective score by construction, different similarity
		cands := []Candidate{
			{Address: "low-sim", SourceURL: "u1", Similarity: 0.7, SourceQuality: 0.95},
			{Address: "high-sim", SourceURL: "u2", Similarity: 0.75, SourceQuality: 0.666667},
		}
		// effective(low-sim)  = 0.85*0.70 + 0.15*0.95     = 0.7375
		// effective(high-sim) = 0.85*0.75 + 0.15*0.666667 = 0.7375
		ranked := DedupeAndRank(cands, 8)
		require.Len(t, ranked, 2)
		assert.Equal(t, "high-sim", ranked[0].Address)
	})

	t.Run("Date breaks full ties with nil last", func(t *testing.T) {
		cands := []Candidate{
			{Address: "undated", SourceURL: "u1", Similarity: 0.8, SourceQuality: 0.7},
			{Address: "older", SourceURL: "u2", Similarity: 0.8, SourceQuality: 0.7, Date: &june},
			{Address: "newer", SourceURL: "u3", Similarity: 0.8, SourceQuality: 0.7, Date: &july},
		}

		ranked := DedupeAndRank(cands, 8)
		require.Len(t, ranked, 3)
		assert.Equal(t, "newer", ranked[0].Address)
		assert.Equal(t, "older", ranked[1].Address)
		assert.Equal(t, "undated", ranked[2].Address)
	})

	t.Run("Top n truncates", func(t *testing.T) {
		cands := make([]Candidate, 0, 12)
		for i := 0; i < 12; i++ {
			cands = append(cands, Candidate{
				Address:       string(rune('a' + i)),
				SourceURL:     "u",
				Similarity:    float64(i) / 12.0,
				SourceQuality: 0.5,
			})
		}

		ranked := DedupeAndRank(cands, 8)
		assert.Len(t, ranked, 8)
	})

	t.Run("Effective score stamped", func(t *testing.T) {
		ranked := DedupeAndRank([]Candidate{
			{Address: "x", SourceURL: "u", Similarity: 0.8, SourceQuality: 0.95},
		}, 8)
		require.Len(t, ranked, 1)
		assert.Equal(t, 0.8225, ranked[0].Effective)
	})
}
