package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/utils"
)

// /api/categories/{categoryID}

func (db *DBHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	var category models.Category
	// Preload the User to access Auth0ID without a separate query
	if err := db.Preload("User").Preload("Flashcards").Where("public_id = ?", categoryID).First(&category).Error; err != nil {
		log.Printf("GetCategoryByID: Category not found for public_id=%s: %v", categoryID, err)
		http.Error(w, fmt.Sprintf("Category with ID %s not found", categoryID), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	isOwner := ok && category.User.Auth0ID == auth0ID

	type CategoryResponse struct {
		models.Category
		IsOwner bool `json:"IsOwner"`
	}

	response := CategoryResponse{
		Category: category,
		IsOwner:  isOwner,
	}

	if !category.IsPublic && !isOwner {
		log.Printf("GetCategoryByID: Forbidden access for category %s by auth0ID=%s", categoryID, auth0ID)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// POST /api/categories
func (db *DBHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		log.Printf("CreateCategory: Unauthorized request")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		log.Printf("CreateCategory: User not found for auth0ID=%s: %v", auth0ID, err)
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	type CreateCategoryRequest struct {
		Title       string `json:"title" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
		IsPublic    bool   `json:"isPublic"`
	}
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("CreateCategory: Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		log.Printf("CreateCategory: Failed to generate publicID: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	category := models.Category{
		Title:       req.Title,
		Description: req.Description,
		UserID:      user.ID,
		IsPublic:    req.IsPublic,
		PublicID:    publicID,
	}

	if err := db.Create(&category).Error; err != nil {
		log.Printf("CreateCategory: Failed to create category: %v", err)
		http.Error(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	log.Printf("CreateCategory: Successfully created category with publicID=%s for userID=%d", publicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(category)
}

func (db *DBHandler) UpdateCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		log.Printf("UpdateCategoryByID: Unauthorized request")
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var category models.Category
	if err := db.Preload("User").Where("public_id = ?", categoryID).First(&category).Error; err != nil {
		log.Printf("UpdateCategoryByID: Category not found for public_id=%s: %v", categoryID, err)
		http.Error(w, fmt.Sprintf("Category with ID %s not found", categoryID), http.StatusNotFound)
		return
	}

	if auth0ID != category.User.Auth0ID {
		log.Printf("UpdateCategoryByID: Unauthorized update attempt by auth0ID=%s for categoryID=%s", auth0ID, categoryID)
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	type UpdateCategoryRequest struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
		IsPublic    *bool   `json:"isPublic,omitempty"`
	}

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("UpdateCategoryByID: Invalid request body: %v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	updated := false
	if req.Title != nil && category.Title != *req.Title {
		category.Title = *req.Title
		updated = true
	}
	if req.Description != nil && category.Description != *req.Description {
		category.Description = *req.Description
		updated = true
	}
	if req.IsPublic != nil && category.IsPublic != *req.IsPublic {
		category.IsPublic = *req.IsPublic
		updated = true
	}

	if updated {
		if err := db.Save(&category).Error; err != nil {
			log.Printf("UpdateCategoryByID: Failed to update categoryID=%s: %v", categoryID, err)
			http.Error(w, fmt.Sprintf("Failed to update category with ID %s", categoryID), http.StatusInternalServerError)
			return
		}
	}

	log.Printf("UpdateCategoryByID: Successfully updated categoryID=%s", categoryID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(category)
}

func (db *DBHandler) DeleteCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		log.Printf("DeleteCategoryByID: Unauthorized request")
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var category models.Category
	if err := db.Preload("User").Where("public_id = ?", categoryID).First(&category).Error; err != nil {
		http.Error(w, fmt.Sprintf("Category not found for public_id=%s", categoryID), http.StatusNotFound)
		return
	}

	if auth0ID != category.User.Auth0ID {
		log.Printf("DeleteCategoryByID: Unauthorized delete attempt by auth0ID=%s for categoryID=%s", auth0ID, categoryID)
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	// Cards go with their category
	if err := db.Where("category_id = ?", category.ID).Delete(&models.Flashcard{}).Error; err != nil {
		log.Printf("DeleteCategoryByID: Failed to delete flashcards for categoryID=%s: %v", categoryID, err)
		http.Error(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}

	result := db.Delete(&category)
	if result.Error != nil {
		log.Printf("DeleteCategoryByID: Failed to delete categoryID=%s: %v", categoryID, result.Error)
		http.Error(w, fmt.Sprintf("Failed to delete category with ID %s", categoryID), http.StatusInternalServerError)
		return
	}

	log.Printf("DeleteCategoryByID: Successfully deleted categoryID=%s", categoryID)
	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) GetCategoriesForUser(w http.ResponseWriter, r *http.Request) {
	nickname := r.PathValue("nickname")
	if nickname == "" {
		log.Printf("GetCategoriesForUser: Nickname is required")
		http.Error(w, "Nickname is required", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.Where("nickname = ?", nickname).First(&user).Error; err != nil {
		log.Printf("GetCategoriesForUser: User not found for nickname=%s: %v", nickname, err)
		http.Error(w, fmt.Sprintf("User not found for nickname=%s", nickname), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)

	var categories []models.Category
	query := db.Where("user_id = ?", user.ID)

	if !ok || user.Auth0ID != auth0ID {
		query = query.Where("is_public = ?", true)
		log.Printf("GetCategoriesForUser: Returning public categories for userID=%d", user.ID)
	}

	if err := query.Find(&categories).Error; err != nil {
		log.Printf("GetCategoriesForUser: Failed to fetch categories for userID=%d: %v", user.ID, err)
		http.Error(w, fmt.Sprintf("Failed to fetch categories for user %s", nickname), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}
