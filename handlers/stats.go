package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/stats"
	"github.com/casewise/casewise-api/utils"
)

// GetStudyStats returns the caller's dashboard: card counts straight
// from the database plus the cached session aggregate.
func (db *DBHandler) GetStudyStats(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	load := func() (stats.Summary, error) {
		var sessions []models.StudySession
		if err := db.Preload("CardResults").Where("user_id = ?", user.ID).Find(&sessions).Error; err != nil {
			return stats.Summary{}, err
		}
		return stats.Aggregate(toStatsSessions(sessions), time.Now()), nil
	}

	var summary stats.Summary
	var err error
	if db.StatsCache != nil {
		summary, err = db.StatsCache.Get(user.ID, load)
	} else {
		summary, err = load()
	}
	if err != nil {
		log.Printf("GetStudyStats: Failed to aggregate sessions for userID=%d: %v", user.ID, err)
		http.Error(w, "Failed to compute statistics", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	var totalCards, dueCards int64
	if err := db.Model(&models.Flashcard{}).
		Joins("JOIN categories ON categories.id = flashcards.category_id").
		Where("categories.user_id = ?", user.ID).
		Count(&totalCards).Error; err != nil {
		log.Printf("GetStudyStats: Failed to count cards for userID=%d: %v", user.ID, err)
	}
	if err := db.Model(&models.Flashcard{}).
		Joins("JOIN categories ON categories.id = flashcards.category_id").
		Where("categories.user_id = ? AND flashcards.next_review_date <= ?", user.ID, now).
		Count(&dueCards).Error; err != nil {
		log.Printf("GetStudyStats: Failed to count due cards for userID=%d: %v", user.ID, err)
	}

	type StatsResponse struct {
		stats.Summary
		TotalCards int64 `json:"totalCards"`
		DueCards   int64 `json:"dueCards"`
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatsResponse{Summary: summary, TotalCards: totalCards, DueCards: dueCards})
}

// toStatsSessions strips the gorm models down to the aggregator's view.
func toStatsSessions(sessions []models.StudySession) []stats.Session {
	out := make([]stats.Session, 0, len(sessions))
	for _, s := range sessions {
		cards := make([]stats.CardResult, 0, len(s.CardResults))
		for _, c := range s.CardResults {
			cards = append(cards, stats.CardResult{Outcome: c.Outcome, TimeSeconds: c.TimeSeconds})
		}
		out = append(out, stats.Session{
			StartedAt:        s.StartedAt,
			CardsStudied:     s.CardsStudied,
			Correct:          s.Correct,
			Incorrect:        s.Incorrect,
			Skipped:          s.Skipped,
			TotalTimeSeconds: s.TotalTimeSeconds,
			Cards:            cards,
		})
	}
	return out
}
