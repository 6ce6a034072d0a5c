// Package srs implements the spaced-repetition review scheduler. It is
// a pure package: callers load the card, fold one review through
// ScheduleNextReview, and persist the returned state themselves.
package srs

import "time"

// Confidence is a 1-5 self rating of recall; 3 is the neutral default
// assigned to cards that have never been rated.
const (
	MinConfidence     = 1
	MaxConfidence     = 5
	DefaultConfidence = 3
)

// confidenceIntervals maps a confidence level to the number of days
// until the next review. Anything outside 1-5 falls back to one day.
var confidenceIntervals = map[int]int{
	1: 1,
	2: 3,
	3: 7,
	4: 14,
	5: 30,
}

// ItemState is the scheduling state carried by a learning item.
type ItemState struct {
	ConfidenceLevel int
	ReviewCount     int
	LastReviewed    *time.Time
	NextReviewDate  time.Time
}

// ReviewResult reports the outcome of a single review. When Skipped is
// set the confidence level is left as it was.
type ReviewResult struct {
	Confidence int
	Skipped    bool
}

// IntervalDays returns the number of days until the next review for an
// item at the given confidence level and (post-increment) review count.
// The very first review always schedules one day out, whatever the
// confidence; an unknown confidence level also falls back to one day
// rather than rejecting the review.
func IntervalDays(confidence, reviewCount int) int {
	if reviewCount <= 1 {
		return 1
	}
	if days, ok := confidenceIntervals[confidence]; ok {
		return days
	}
	return 1
}

// ScheduleNextReview folds one review into the item's scheduling state:
// the review count goes up by one, the reported confidence (if any)
// replaces the previous one outright, and the next review date moves
// IntervalDays calendar days past now. Calendar-day addition keeps the
// time of day stable across repeated reviews. This never fails; bad
// input degrades to the shortest interval.
func ScheduleNextReview(state ItemState, result ReviewResult, now time.Time) ItemState {
	if state.ConfidenceLevel == 0 {
		state.ConfidenceLevel = DefaultConfidence
	}

	state.ReviewCount++
	reviewedAt := now
	state.LastReviewed = &reviewedAt

	if !result.Skipped {
		state.ConfidenceLevel = result.Confidence
	}

	days := IntervalDays(state.ConfidenceLevel, state.ReviewCount)
	state.NextReviewDate = now.AddDate(0, 0, days)
	return state
}

// IsDue reports whether the item should be presented for study.
func IsDue(state ItemState, now time.Time) bool {
	return !state.NextReviewDate.After(now)
}
