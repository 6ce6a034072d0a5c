package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/srs"
	"github.com/casewise/casewise-api/utils"
)

// loadOwnedCategory fetches a category by public ID and checks that the
// caller owns it. Writes the error response itself and returns false
// when the caller should stop.
func (db *DBHandler) loadOwnedCategory(w http.ResponseWriter, r *http.Request, publicID string) (models.Category, bool) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return models.Category{}, false
	}

	var category models.Category
	if err := db.Preload("User").Where("public_id = ?", publicID).First(&category).Error; err != nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return models.Category{}, false
	}

	if category.User.Auth0ID != auth0ID {
		http.Error(w, "Forbidden: You do not own this category", http.StatusForbidden)
		return models.Category{}, false
	}

	return category, true
}

func (db *DBHandler) GetFlashcardByID(w http.ResponseWriter, r *http.Request) {
	flashcardID := r.PathValue("flashcardID")
	if flashcardID == "" {
		http.Error(w, "Flashcard ID is required", http.StatusBadRequest)
		return
	}

	var flashcard models.Flashcard
	if err := db.Where("public_id = ?", flashcardID).First(&flashcard).Error; err != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(flashcard); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (db *DBHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	category, ok := db.loadOwnedCategory(w, r, r.PathValue("categoryID"))
	if !ok {
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	type FlashcardRequestData struct {
		Question    string   `json:"question" validate:"required,max=1000"`
		Answer      string   `json:"answer" validate:"required,max=2000"`
		Explanation string   `json:"explanation" validate:"max=2000"`
		Tags        []string `json:"tags"`
		Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
		IsPublic    bool     `json:"isPublic"`
	}

	var req FlashcardRequestData
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	flashcard := models.Flashcard{
		Question:        req.Question,
		Answer:          req.Answer,
		Explanation:     req.Explanation,
		Tags:            req.Tags,
		Difficulty:      difficulty,
		IsPublic:        req.IsPublic,
		PublicID:        publicID,
		CategoryID:      category.ID,
		ConfidenceLevel: srs.DefaultConfidence,
		NextReviewDate:  time.Now(), // new cards are due immediately
	}

	if err := db.Create(&flashcard).Error; err != nil {
		http.Error(w, "Failed to create flashcard", http.StatusInternalServerError)
		return
	}

	// Keep the category's cached count in step
	db.Model(&models.Category{}).Where("id = ?", category.ID).
		UpdateColumn("card_count", gorm.Expr("card_count + 1"))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(flashcard)
}

func (db *DBHandler) UpdateFlashcardByID(w http.ResponseWriter, r *http.Request) {
	category, ok := db.loadOwnedCategory(w, r, r.PathValue("categoryID"))
	if !ok {
		return
	}
	flashcardID := r.PathValue("flashcardID")

	var flashcard models.Flashcard
	if err := db.Where("public_id = ? AND category_id = ?", flashcardID, category.ID).First(&flashcard).Error; err != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	type FlashcardUpdateRequest struct {
		Question    *string   `json:"question,omitempty"`
		Answer      *string   `json:"answer,omitempty"`
		Explanation *string   `json:"explanation,omitempty"`
		Tags        *[]string `json:"tags,omitempty"`
		Difficulty  *string   `json:"difficulty,omitempty"`
		IsPublic    *bool     `json:"isPublic,omitempty"`
	}
	var req FlashcardUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Question != nil {
		flashcard.Question = *req.Question
	}
	if req.Answer != nil {
		flashcard.Answer = *req.Answer
	}
	if req.Explanation != nil {
		flashcard.Explanation = *req.Explanation
	}
	if req.Tags != nil {
		flashcard.Tags = *req.Tags
	}
	if req.Difficulty != nil {
		flashcard.Difficulty = *req.Difficulty
	}
	if req.IsPublic != nil {
		flashcard.IsPublic = *req.IsPublic
	}

	if err := db.Save(&flashcard).Error; err != nil {
		http.Error(w, "Failed to update flashcard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(flashcard)
}

func (db *DBHandler) DeleteFlashcardByID(w http.ResponseWriter, r *http.Request) {
	category, ok := db.loadOwnedCategory(w, r, r.PathValue("categoryID"))
	if !ok {
		return
	}
	flashcardID := r.PathValue("flashcardID")

	result := db.Where("public_id = ? AND category_id = ?", flashcardID, category.ID).Delete(&models.Flashcard{})
	if result.Error != nil {
		http.Error(w, "Failed to delete flashcard", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	// Deleting a card decrements the category's cached count
	db.Model(&models.Category{}).Where("id = ? AND card_count > 0", category.ID).
		UpdateColumn("card_count", gorm.Expr("card_count - 1"))

	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) GetFlashcardsForCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")

	var category models.Category
	if err := db.Preload("User").Where("public_id = ?", categoryID).First(&category).Error; err != nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	if !category.IsPublic {
		auth0ID, ok := utils.GetAuth0ID(r)
		if !ok || category.User.Auth0ID != auth0ID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var flashcards []models.Flashcard
	if err := db.Where("category_id = ?", category.ID).Find(&flashcards).Error; err != nil {
		http.Error(w, "Failed to fetch flashcards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(flashcards)
}

// GetDueFlashcards lists the category's cards whose next review date has
// passed. "Due" is derived from the stored date, never stored itself.
func (db *DBHandler) GetDueFlashcards(w http.ResponseWriter, r *http.Request) {
	category, ok := db.loadOwnedCategory(w, r, r.PathValue("categoryID"))
	if !ok {
		return
	}

	var flashcards []models.Flashcard
	if err := db.Where("category_id = ? AND next_review_date <= ?", category.ID, time.Now()).
		Order("next_review_date asc").Find(&flashcards).Error; err != nil {
		http.Error(w, "Failed to fetch due flashcards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(flashcards)
}

// ReviewFlashcard applies one spaced-repetition review to a card. The
// scheduler result is persisted with a single update on the card's
// primary key so concurrent reviews serialize at the row.
func (db *DBHandler) ReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	category, ok := db.loadOwnedCategory(w, r, r.PathValue("categoryID"))
	if !ok {
		return
	}
	flashcardID := r.PathValue("flashcardID")

	var flashcard models.Flashcard
	if err := db.Where("public_id = ? AND category_id = ?", flashcardID, category.ID).First(&flashcard).Error; err != nil {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}

	type ReviewRequest struct {
		Confidence *int `json:"confidence"`
		Skipped    bool `json:"skipped"`
	}
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Confidence == nil && !req.Skipped {
		http.Error(w, "Confidence is required unless the card was skipped", http.StatusBadRequest)
		return
	}

	state := srs.ItemState{
		ConfidenceLevel: flashcard.ConfidenceLevel,
		ReviewCount:     flashcard.ReviewCount,
		LastReviewed:    flashcard.LastReviewed,
		NextReviewDate:  flashcard.NextReviewDate,
	}
	result := srs.ReviewResult{Skipped: req.Skipped}
	if req.Confidence != nil {
		result.Confidence = *req.Confidence
	}

	next := srs.ScheduleNextReview(state, result, time.Now())

	if err := db.Model(&models.Flashcard{}).Where("id = ?", flashcard.ID).Updates(map[string]interface{}{
		"confidence_level": next.ConfidenceLevel,
		"review_count":     next.ReviewCount,
		"last_reviewed":    next.LastReviewed,
		"next_review_date": next.NextReviewDate,
	}).Error; err != nil {
		http.Error(w, "Failed to save review", http.StatusInternalServerError)
		return
	}

	flashcard.ConfidenceLevel = next.ConfidenceLevel
	flashcard.ReviewCount = next.ReviewCount
	flashcard.LastReviewed = next.LastReviewed
	flashcard.NextReviewDate = next.NextReviewDate

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(flashcard)
}
