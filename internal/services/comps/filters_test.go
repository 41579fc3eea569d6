package comps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPassesHardFilters(t *testing.T) {
	today := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	stale := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	base := FilterInput{
		DistanceMi:  0.5,
		RadiusMi:    3.0,
		Date:        &recent,
		Today:       today,
		TargetSqft:  fptr(1500),
		CandSqft:    fptr(1600),
		TargetBeds:  iptr(3),
		CandBeds:    iptr(3),
		TargetBaths: fptr(2),
		CandBaths:   fptr(2.5),
	}

	t.Run("Passes all gates", func(t *testing.T) {
		assert.True(t, PassesHardFilters(base))
	})

	t.Run("Too far", func(t *testing.T) {
		in := base
		in.DistanceMi = 4.0
		assert.False(t, PassesHardFilters(in))
	})

	t.Run("Older than twelve months", func(t *testing.T) {
		in := base
		in.Date = &stale
		assert.False(t, PassesHardFilters(in))
	})

	t.Run("No date", func(t *testing.T) {
		in := base
		in.Date = nil
		assert.False(t, PassesHardFilters(in))
	})

	t.Run("Sqft outside 25 percent", func(t *testing.T) {
		in := base
		in.CandSqft = fptr(2000)
		assert.False(t, PassesHardFilters(in))
	})

	t.Run("Sqft unknown on one side passes", func(t *testing.T) {
		in := base
		in.CandSqft = nil
		assert.True(t, PassesHardFilters(in))
	})

	t.Run("Beds off by two", func(t *testing.T) {
		in := base
		in.CandBeds = iptr(5)
		assert.False(t, PassesHardFilters(in))
	})

	t.Run("Baths off by more than one", func(t *testing.T) {
		in := base
		in.CandBaths = fptr(3.5)
		assert.False(t, PassesHardFilters(in))
	})

	t.Run("Exactly twelve months passes", func(t *testing.T) {
		in := base
		edge := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
		in.Date = &edge
		assert.True(t, PassesHardFilters(in))
	})
}
