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

// /api/cases/{caseID}

func (db *DBHandler) GetCaseByID(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	var teachingCase models.Case
	if err := db.Preload("User").Preload("Quizzes").Where("public_id = ?", caseID).First(&teachingCase).Error; err != nil {
		log.Printf("GetCaseByID: Case not found for public_id=%s: %v", caseID, err)
		http.Error(w, fmt.Sprintf("Case with ID %s not found", caseID), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	isOwner := ok && teachingCase.User.Auth0ID == auth0ID

	if !teachingCase.IsPublic && !isOwner {
		log.Printf("GetCaseByID: Forbidden access for case %s by auth0ID=%s", caseID, auth0ID)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	type CaseResponse struct {
		models.Case
		IsOwner bool `json:"IsOwner"`
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CaseResponse{Case: teachingCase, IsOwner: isOwner})
}

func (db *DBHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		log.Printf("CreateCase: User not found for auth0ID=%s: %v", auth0ID, err)
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	type CreateCaseRequest struct {
		Title          string `json:"title" validate:"required,max=200"`
		Specialty      string `json:"specialty" validate:"max=100"`
		Presentation   string `json:"presentation" validate:"required"`
		Findings       string `json:"findings"`
		Diagnosis      string `json:"diagnosis" validate:"max=500"`
		TeachingPoints string `json:"teachingPoints"`
		Difficulty     string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
		IsPublic       bool   `json:"isPublic"`
	}
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("CreateCase: Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	teachingCase := models.Case{
		PublicID:       publicID,
		Title:          req.Title,
		Specialty:      req.Specialty,
		Presentation:   req.Presentation,
		Findings:       req.Findings,
		Diagnosis:      req.Diagnosis,
		TeachingPoints: req.TeachingPoints,
		Difficulty:     difficulty,
		IsPublic:       req.IsPublic,
		UserID:         user.ID,
	}

	if err := db.Create(&teachingCase).Error; err != nil {
		log.Printf("CreateCase: Failed to create case: %v", err)
		http.Error(w, "Failed to create case", http.StatusInternalServerError)
		return
	}

	log.Printf("CreateCase: Successfully created case with publicID=%s for userID=%d", publicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(teachingCase)
}

// GenerateCase drafts a case with the AI generator and stores it as a
// private draft owned by the caller.
func (db *DBHandler) GenerateCase(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if db.Cases == nil {
		http.Error(w, "Case generation is not configured", http.StatusServiceUnavailable)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	type GenerateCaseRequest struct {
		Topic      string `json:"topic" validate:"required,max=200"`
		Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	}
	var req GenerateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	generated, err := db.Cases.GenerateCase(r.Context(), req.Topic, req.Difficulty)
	if err != nil {
		log.Printf("GenerateCase: generation failed for topic=%q: %v", req.Topic, err)
		http.Error(w, "Failed to generate case", http.StatusBadGateway)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	teachingCase := models.Case{
		PublicID:       publicID,
		Title:          generated.Title,
		Specialty:      generated.Specialty,
		Presentation:   generated.Presentation,
		Findings:       generated.Findings,
		Diagnosis:      generated.Diagnosis,
		TeachingPoints: generated.TeachingPoints,
		Difficulty:     generated.Difficulty,
		Generated:      true,
		UserID:         user.ID,
	}

	if err := db.Create(&teachingCase).Error; err != nil {
		log.Printf("GenerateCase: Failed to store generated case: %v", err)
		http.Error(w, "Failed to store generated case", http.StatusInternalServerError)
		return
	}

	log.Printf("GenerateCase: Stored generated case publicID=%s for userID=%d", publicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(teachingCase)
}

func (db *DBHandler) UpdateCaseByID(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var teachingCase models.Case
	if err := db.Preload("User").Where("public_id = ?", caseID).First(&teachingCase).Error; err != nil {
		http.Error(w, fmt.Sprintf("Case with ID %s not found", caseID), http.StatusNotFound)
		return
	}

	if auth0ID != teachingCase.User.Auth0ID {
		log.Printf("UpdateCaseByID: Unauthorized update attempt by auth0ID=%s for caseID=%s", auth0ID, caseID)
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	type UpdateCaseRequest struct {
		Title          *string `json:"title,omitempty"`
		Specialty      *string `json:"specialty,omitempty"`
		Presentation   *string `json:"presentation,omitempty"`
		Findings       *string `json:"findings,omitempty"`
		Diagnosis      *string `json:"diagnosis,omitempty"`
		TeachingPoints *string `json:"teachingPoints,omitempty"`
		Difficulty     *string `json:"difficulty,omitempty"`
		IsPublic       *bool   `json:"isPublic,omitempty"`
	}
	var req UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		teachingCase.Title = *req.Title
	}
	if req.Specialty != nil {
		teachingCase.Specialty = *req.Specialty
	}
	if req.Presentation != nil {
		teachingCase.Presentation = *req.Presentation
	}
	if req.Findings != nil {
		teachingCase.Findings = *req.Findings
	}
	if req.Diagnosis != nil {
		teachingCase.Diagnosis = *req.Diagnosis
	}
	if req.TeachingPoints != nil {
		teachingCase.TeachingPoints = *req.TeachingPoints
	}
	if req.Difficulty != nil {
		teachingCase.Difficulty = *req.Difficulty
	}
	if req.IsPublic != nil {
		teachingCase.IsPublic = *req.IsPublic
	}

	if err := db.Save(&teachingCase).Error; err != nil {
		log.Printf("UpdateCaseByID: Failed to update caseID=%s: %v", caseID, err)
		http.Error(w, "Failed to update case", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(teachingCase)
}

func (db *DBHandler) DeleteCaseByID(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var teachingCase models.Case
	if err := db.Preload("User").Where("public_id = ?", caseID).First(&teachingCase).Error; err != nil {
		http.Error(w, fmt.Sprintf("Case with ID %s not found", caseID), http.StatusNotFound)
		return
	}

	if auth0ID != teachingCase.User.Auth0ID {
		log.Printf("DeleteCaseByID: Unauthorized delete attempt by auth0ID=%s for caseID=%s", auth0ID, caseID)
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	if err := db.Delete(&teachingCase).Error; err != nil {
		log.Printf("DeleteCaseByID: Failed to delete caseID=%s: %v", caseID, err)
		http.Error(w, "Failed to delete case", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) GetCasesForUser(w http.ResponseWriter, r *http.Request) {
	nickname := r.PathValue("nickname")
	if nickname == "" {
		http.Error(w, "Nickname is required", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.Where("nickname = ?", nickname).First(&user).Error; err != nil {
		http.Error(w, fmt.Sprintf("User not found for nickname=%s", nickname), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)

	var cases []models.Case
	query := db.Where("user_id = ?", user.ID)
	if !ok || user.Auth0ID != auth0ID {
		query = query.Where("is_public = ?", true)
	}

	if err := query.Order("created_at desc").Find(&cases).Error; err != nil {
		log.Printf("GetCasesForUser: Failed to fetch cases for userID=%d: %v", user.ID, err)
		http.Error(w, fmt.Sprintf("Failed to fetch cases for user %s", nickname), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cases)
}
