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

// CreateCategoryWithCards creates a category and all its flashcards in
// one transaction. Used by bulk import and by the case-to-deck flow.
func (db *DBHandler) CreateCategoryWithCards(w http.ResponseWriter, r *http.Request) {
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

	type CardImport struct {
		Question    string   `json:"question"`
		Answer      string   `json:"answer"`
		Explanation string   `json:"explanation"`
		Tags        []string `json:"tags"`
	}
	var requestData struct {
		Title       string       `json:"title" validate:"required,max=100"`
		Description string       `json:"description" validate:"max=500"`
		IsPublic    bool         `json:"isPublic"`
		Cards       []CardImport `json:"cards" validate:"required,min=1"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if validateRequest(w, requestData) {
		return
	}

	for _, card := range requestData.Cards {
		if card.Question == "" || card.Answer == "" {
			http.Error(w, "Each flashcard must have a question and an answer", http.StatusBadRequest)
			return
		}
	}

	categoryPublicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	category := models.Category{
		Title:       requestData.Title,
		Description: requestData.Description,
		IsPublic:    requestData.IsPublic,
		UserID:      user.ID,
		PublicID:    categoryPublicID,
		CardCount:   len(requestData.Cards),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			return err
		}

		for _, card := range requestData.Cards {
			publicID, err := gonanoid.New()
			if err != nil {
				return err
			}
			flashcard := models.Flashcard{
				PublicID:        publicID,
				Question:        card.Question,
				Answer:          card.Answer,
				Explanation:     card.Explanation,
				Tags:            card.Tags,
				CategoryID:      category.ID,
				IsPublic:        requestData.IsPublic,
				Difficulty:      "medium",
				ConfidenceLevel: srs.DefaultConfidence,
				NextReviewDate:  time.Now(),
			}
			if err := tx.Create(&flashcard).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		http.Error(w, "Could not create category with cards", http.StatusInternalServerError)
		return
	}

	if err := db.Preload("Flashcards").First(&category, category.ID).Error; err != nil {
		http.Error(w, "Error retrieving created category", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(category)
}
