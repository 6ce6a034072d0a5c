package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalDays(t *testing.T) {
	tests := []struct {
		name        string
		confidence  int
		reviewCount int
		expected    int
	}{
		{"first review ignores low confidence", 1, 1, 1},
		{"first review ignores high confidence", 5, 1, 1},
		{"confidence 1", 1, 2, 1},
		{"confidence 2", 2, 2, 3},
		{"confidence 3", 3, 2, 7},
		{"confidence 4", 4, 2, 14},
		{"confidence 5", 5, 2, 30},
		{"confidence 0 falls back", 0, 2, 1},
		{"confidence 6 falls back", 6, 2, 1},
		{"negative confidence falls back", -1, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IntervalDays(tt.confidence, tt.reviewCount))
		})
	}
}

// Past the first review, a higher confidence never shortens the interval.
func TestIntervalMonotonicity(t *testing.T) {
	prev := 0
	for confidence := MinConfidence; confidence <= MaxConfidence; confidence++ {
		days := IntervalDays(confidence, 2)
		assert.Greater(t, days, prev, "interval for confidence %d should exceed confidence %d", confidence, confidence-1)
		prev = days
	}
}

func TestOutOfRangeConfidenceMatchesLowest(t *testing.T) {
	lowest := IntervalDays(MinConfidence, 2)
	for _, confidence := range []int{-1, 0, 6, 100} {
		assert.Equal(t, lowest, IntervalDays(confidence, 2))
	}
}

func TestScheduleNextReview(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

	t.Run("established card with new confidence", func(t *testing.T) {
		state := ItemState{ConfidenceLevel: 3, ReviewCount: 2}
		next := ScheduleNextReview(state, ReviewResult{Confidence: 4}, now)

		assert.Equal(t, 3, next.ReviewCount)
		assert.Equal(t, 4, next.ConfidenceLevel)
		assert.Equal(t, now.AddDate(0, 0, 14), next.NextReviewDate)
		require.NotNil(t, next.LastReviewed)
		assert.Equal(t, now, *next.LastReviewed)
	})

	t.Run("brand new card always gets one day", func(t *testing.T) {
		for confidence := MinConfidence; confidence <= MaxConfidence; confidence++ {
			state := ItemState{ConfidenceLevel: DefaultConfidence, ReviewCount: 0}
			next := ScheduleNextReview(state, ReviewResult{Confidence: confidence}, now)

			assert.Equal(t, 1, next.ReviewCount)
			assert.Equal(t, now.AddDate(0, 0, 1), next.NextReviewDate)
		}
	})

	t.Run("skipped review keeps confidence", func(t *testing.T) {
		state := ItemState{ConfidenceLevel: 4, ReviewCount: 5}
		next := ScheduleNextReview(state, ReviewResult{Skipped: true}, now)

		assert.Equal(t, 4, next.ConfidenceLevel)
		assert.Equal(t, 6, next.ReviewCount)
		assert.Equal(t, now.AddDate(0, 0, 14), next.NextReviewDate)
	})

	t.Run("unset confidence defaults to 3 before the update", func(t *testing.T) {
		state := ItemState{ReviewCount: 3}
		next := ScheduleNextReview(state, ReviewResult{Skipped: true}, now)

		assert.Equal(t, DefaultConfidence, next.ConfidenceLevel)
		assert.Equal(t, now.AddDate(0, 0, 7), next.NextReviewDate)
	})

	t.Run("out of range confidence is stored but schedules one day", func(t *testing.T) {
		state := ItemState{ConfidenceLevel: 5, ReviewCount: 9}
		next := ScheduleNextReview(state, ReviewResult{Confidence: 7}, now)

		assert.Equal(t, 7, next.ConfidenceLevel)
		assert.Equal(t, now.AddDate(0, 0, 1), next.NextReviewDate)
	})

	t.Run("next review is always after last reviewed", func(t *testing.T) {
		for confidence := -1; confidence <= 7; confidence++ {
			for count := 0; count < 4; count++ {
				next := ScheduleNextReview(ItemState{ReviewCount: count}, ReviewResult{Confidence: confidence}, now)
				assert.True(t, next.NextReviewDate.After(*next.LastReviewed))
			}
		}
	})

	t.Run("calendar day addition keeps time of day", func(t *testing.T) {
		state := ItemState{ConfidenceLevel: 5, ReviewCount: 4}
		next := ScheduleNextReview(state, ReviewResult{Confidence: 5}, now)

		assert.Equal(t, now.Hour(), next.NextReviewDate.Hour())
		assert.Equal(t, now.Minute(), next.NextReviewDate.Minute())
	})
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(ItemState{NextReviewDate: now}, now))
	assert.True(t, IsDue(ItemState{NextReviewDate: now.AddDate(0, 0, -1)}, now))
	assert.False(t, IsDue(ItemState{NextReviewDate: now.AddDate(0, 0, 1)}, now))
}
