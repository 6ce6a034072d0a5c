package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/utils"
)

// loadOwnedSession fetches a session by public ID and checks the caller
// owns it.
func (db *DBHandler) loadOwnedSession(w http.ResponseWriter, r *http.Request, publicID string) (models.StudySession, models.User, bool) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return models.StudySession{}, models.User{}, false
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return models.StudySession{}, models.User{}, false
	}

	var session models.StudySession
	if err := db.Where("public_id = ?", publicID).First(&session).Error; err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return models.StudySession{}, models.User{}, false
	}

	if session.UserID != user.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return models.StudySession{}, models.User{}, false
	}

	return session, user, true
}

// POST /api/sessions
func (db *DBHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		log.Printf("StartSession: User not found for auth0ID=%s: %v", auth0ID, err)
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	type StartSessionRequest struct {
		CategoryID string `json:"categoryId"`
	}
	var req StartSessionRequest
	if r.Body != nil {
		// An empty body just starts an unfiltered session
		json.NewDecoder(r.Body).Decode(&req)
	}

	session := models.StudySession{
		UserID:    user.ID,
		StartedAt: time.Now(),
	}

	if req.CategoryID != "" {
		var category models.Category
		if err := db.Where("public_id = ?", req.CategoryID).First(&category).Error; err != nil {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		session.CategoryID = &category.ID

		now := time.Now()
		db.Model(&category).Update("last_studied", &now)
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	session.PublicID = publicID

	if err := db.Create(&session).Error; err != nil {
		log.Printf("StartSession: Failed to create session: %v", err)
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	log.Printf("StartSession: Started session publicID=%s for userID=%d", publicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
}

// RecordSessionCard appends one card outcome to an open session. The
// outcome row and the session counters move in one transaction so the
// counters always equal the fold over the rows.
func (db *DBHandler) RecordSessionCard(w http.ResponseWriter, r *http.Request) {
	session, user, ok := db.loadOwnedSession(w, r, r.PathValue("sessionID"))
	if !ok {
		return
	}

	if session.EndedAt != nil {
		http.Error(w, "Session is already finished", http.StatusConflict)
		return
	}

	type CardOutcomeRequest struct {
		FlashcardID      string `json:"flashcardId" validate:"required"`
		Outcome          string `json:"outcome" validate:"required,oneof=correct incorrect skipped"`
		ConfidenceBefore *int   `json:"confidenceBefore"`
		ConfidenceAfter  *int   `json:"confidenceAfter"`
		TimeSeconds      int    `json:"timeSeconds"`
	}
	var req CardOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	var flashcard models.Flashcard
	if err := db.Where("public_id = ?", req.FlashcardID).First(&flashcard).Error; err != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	timeSeconds := req.TimeSeconds
	if timeSeconds < 0 {
		timeSeconds = 0
	}

	record := models.SessionCardResult{
		SessionID:        session.ID,
		FlashcardID:      flashcard.ID,
		Outcome:          req.Outcome,
		ConfidenceBefore: req.ConfidenceBefore,
		ConfidenceAfter:  req.ConfidenceAfter,
		TimeSeconds:      timeSeconds,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"cards_studied":      gorm.Expr("cards_studied + 1"),
			"total_time_seconds": gorm.Expr("total_time_seconds + ?", timeSeconds),
		}
		switch req.Outcome {
		case models.OutcomeCorrect:
			updates["correct"] = gorm.Expr("correct + 1")
		case models.OutcomeIncorrect:
			updates["incorrect"] = gorm.Expr("incorrect + 1")
		case models.OutcomeSkipped:
			updates["skipped"] = gorm.Expr("skipped + 1")
		}
		return tx.Model(&models.StudySession{}).Where("id = ?", session.ID).Updates(updates).Error
	})
	if err != nil {
		log.Printf("RecordSessionCard: Failed to record card for sessionID=%s: %v", session.PublicID, err)
		http.Error(w, "Failed to record card outcome", http.StatusInternalServerError)
		return
	}

	// The cached dashboard is stale now
	if db.StatsCache != nil {
		db.StatsCache.Invalidate(user.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// FinishSession closes the session and stamps the totals.
func (db *DBHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	session, user, ok := db.loadOwnedSession(w, r, r.PathValue("sessionID"))
	if !ok {
		return
	}

	if session.EndedAt != nil {
		http.Error(w, "Session is already finished", http.StatusConflict)
		return
	}

	type FinishSessionRequest struct {
		TotalTimeSeconds *int `json:"totalTimeSeconds"`
	}
	var req FinishSessionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	now := time.Now()
	session.EndedAt = &now
	if req.TotalTimeSeconds != nil && *req.TotalTimeSeconds >= 0 {
		session.TotalTimeSeconds = *req.TotalTimeSeconds
	}

	if err := db.Save(&session).Error; err != nil {
		log.Printf("FinishSession: Failed to finish sessionID=%s: %v", session.PublicID, err)
		http.Error(w, "Failed to finish session", http.StatusInternalServerError)
		return
	}

	if db.StatsCache != nil {
		db.StatsCache.Invalidate(user.ID)
	}

	log.Printf("FinishSession: Finished session publicID=%s for userID=%d", session.PublicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// GET /api/sessions lists the caller's sessions, newest first.
func (db *DBHandler) GetSessionsForUser(w http.ResponseWriter, r *http.Request) {
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

	var sessions []models.StudySession
	if err := db.Where("user_id = ?", user.ID).Order("started_at desc").Limit(100).Find(&sessions).Error; err != nil {
		log.Printf("GetSessionsForUser: Failed to fetch sessions for userID=%d: %v", user.ID, err)
		http.Error(w, "Failed to fetch sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}
