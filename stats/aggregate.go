// Package stats folds a user's study session history into the dashboard
// summary: totals, accuracy, the 30-day activity histogram and the
// current streak. Aggregate is a pure function of its inputs so the
// handlers stay testable; it never errors on partially populated
// history, it clamps and defaults instead.
package stats

import "time"

// CardResult is the per-card slice of a session the aggregator needs.
type CardResult struct {
	Outcome     string
	TimeSeconds int
}

// Session is the aggregator's view of one study session.
type Session struct {
	StartedAt        time.Time
	CardsStudied     int
	Correct          int
	Incorrect        int
	Skipped          int
	TotalTimeSeconds int
	Cards            []CardResult
}

// DayCount is one bucket of the activity histogram.
type DayCount struct {
	Date     string `json:"date"` // YYYY-MM-DD, local calendar day
	Sessions int    `json:"sessions"`
}

// Summary is the aggregate statistics view over a user's sessions.
type Summary struct {
	TotalSessions     int        `json:"totalSessions"`
	TotalCardsStudied int        `json:"totalCardsStudied"`
	TotalCorrect      int        `json:"totalCorrect"`
	TotalIncorrect    int        `json:"totalIncorrect"`
	TotalSkipped      int        `json:"totalSkipped"`
	Accuracy          float64    `json:"accuracy"` // percent, 0 when nothing answered
	TotalTimeSeconds  int        `json:"totalTimeSeconds"`
	CurrentStreak     int        `json:"currentStreak"`
	Last30Days        []DayCount `json:"last30Days"` // always 30 entries, oldest first
}

const histogramDays = 30

// Aggregate folds the given sessions into a Summary. The caller injects
// now so streaks and the histogram are deterministic under test.
func Aggregate(sessions []Session, now time.Time) Summary {
	summary := Summary{TotalSessions: len(sessions)}

	// Sessions per local calendar day, for both histogram and streak
	byDay := make(map[string]int)

	for _, s := range sessions {
		studied := s.CardsStudied
		if studied == 0 {
			studied = len(s.Cards)
		}
		summary.TotalCardsStudied += studied
		summary.TotalCorrect += clampNonNegative(s.Correct)
		summary.TotalIncorrect += clampNonNegative(s.Incorrect)
		summary.TotalSkipped += clampNonNegative(s.Skipped)

		seconds := s.TotalTimeSeconds
		if seconds <= 0 {
			seconds = 0
			for _, c := range s.Cards {
				seconds += clampNonNegative(c.TimeSeconds)
			}
		}
		summary.TotalTimeSeconds += seconds

		byDay[dayKey(s.StartedAt.In(now.Location()))]++
	}

	answered := summary.TotalCorrect + summary.TotalIncorrect
	if answered > 0 {
		summary.Accuracy = float64(summary.TotalCorrect) / float64(answered) * 100
	}

	today := startOfDay(now)
	summary.Last30Days = make([]DayCount, 0, histogramDays)
	for i := histogramDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := dayKey(day)
		summary.Last30Days = append(summary.Last30Days, DayCount{Date: key, Sessions: byDay[key]})
	}

	summary.CurrentStreak = streak(byDay, today)
	return summary
}

// streak counts consecutive study days ending at the anchor. An empty
// today does not break the run: the anchor slides to yesterday, so a
// streak survives until a full calendar day is missed.
func streak(byDay map[string]int, today time.Time) int {
	anchor := today
	if byDay[dayKey(anchor)] == 0 {
		anchor = anchor.AddDate(0, 0, -1)
	}

	count := 0
	for byDay[dayKey(anchor)] > 0 {
		count++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return count
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
