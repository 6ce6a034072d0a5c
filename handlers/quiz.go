package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/utils"
)

func (db *DBHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
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

	type QuestionRequest struct {
		Prompt          string   `json:"prompt" validate:"required,max=1000"`
		Kind            string   `json:"kind" validate:"required,oneof=multiple_choice multi_select short_answer"`
		Options         []string `json:"options"`
		CorrectIndexes  []int    `json:"correctIndexes"`
		AcceptedAnswers []string `json:"acceptedAnswers"`
	}
	type CreateQuizRequest struct {
		Title      string            `json:"title" validate:"required,max=200"`
		CaseID     string            `json:"caseId"`
		CategoryID string            `json:"categoryId"`
		IsPublic   bool              `json:"isPublic"`
		Questions  []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
	}

	var req CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("CreateQuiz: Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	// Each question must carry an answer key matching its kind
	for _, q := range req.Questions {
		switch q.Kind {
		case models.QuestionMultipleChoice:
			if len(q.Options) < 2 || len(q.CorrectIndexes) != 1 {
				http.Error(w, "Multiple choice questions need options and exactly one correct index", http.StatusBadRequest)
				return
			}
		case models.QuestionMultiSelect:
			if len(q.Options) < 2 || len(q.CorrectIndexes) == 0 {
				http.Error(w, "Multi select questions need options and at least one correct index", http.StatusBadRequest)
				return
			}
		case models.QuestionShortAnswer:
			if len(q.AcceptedAnswers) == 0 {
				http.Error(w, "Short answer questions need at least one accepted answer", http.StatusBadRequest)
				return
			}
		}
	}

	quiz := models.Quiz{
		Title:    req.Title,
		UserID:   user.ID,
		IsPublic: req.IsPublic,
	}

	if req.CaseID != "" {
		var teachingCase models.Case
		if err := db.Where("public_id = ?", req.CaseID).First(&teachingCase).Error; err != nil {
			http.Error(w, "Case not found", http.StatusNotFound)
			return
		}
		quiz.CaseID = &teachingCase.ID
	}
	if req.CategoryID != "" {
		var category models.Category
		if err := db.Where("public_id = ?", req.CategoryID).First(&category).Error; err != nil {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		quiz.CategoryID = &category.ID
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	quiz.PublicID = publicID

	for _, q := range req.Questions {
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			Prompt:          q.Prompt,
			Kind:            q.Kind,
			Options:         q.Options,
			CorrectIndexes:  q.CorrectIndexes,
			AcceptedAnswers: q.AcceptedAnswers,
		})
	}

	if err := db.Create(&quiz).Error; err != nil {
		log.Printf("CreateQuiz: Failed to create quiz: %v", err)
		http.Error(w, "Failed to create quiz", http.StatusInternalServerError)
		return
	}

	log.Printf("CreateQuiz: Successfully created quiz publicID=%s for userID=%d", publicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(quiz)
}

func (db *DBHandler) GetQuizByID(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("quizID")
	var quiz models.Quiz
	if err := db.Preload("User").Preload("Questions").Where("public_id = ?", quizID).First(&quiz).Error; err != nil {
		http.Error(w, "Quiz not found", http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	if !quiz.IsPublic && (!ok || quiz.User.Auth0ID != auth0ID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Answer keys are tagged json:"-" on the model, so takers never see them
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quiz)
}

func (db *DBHandler) DeleteQuizByID(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("quizID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var quiz models.Quiz
	if err := db.Preload("User").Where("public_id = ?", quizID).First(&quiz).Error; err != nil {
		http.Error(w, "Quiz not found", http.StatusNotFound)
		return
	}

	if auth0ID != quiz.User.Auth0ID {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	if err := db.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
		http.Error(w, "Failed to delete quiz", http.StatusInternalServerError)
		return
	}
	if err := db.Delete(&quiz).Error; err != nil {
		http.Error(w, "Failed to delete quiz", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmittedAnswer is one answer in a quiz attempt.
type SubmittedAnswer struct {
	QuestionID      uint   `json:"questionId"`
	SelectedIndexes []int  `json:"selectedIndexes"`
	Text            string `json:"text"`
}

// gradeAnswer decides whether a submitted answer matches the question's
// key. Short answers match case-insensitively after trimming.
func gradeAnswer(question models.QuizQuestion, answer SubmittedAnswer) bool {
	switch question.Kind {
	case models.QuestionMultipleChoice:
		return len(answer.SelectedIndexes) == 1 &&
			len(question.CorrectIndexes) == 1 &&
			answer.SelectedIndexes[0] == question.CorrectIndexes[0]
	case models.QuestionMultiSelect:
		return sameIndexSet(answer.SelectedIndexes, question.CorrectIndexes)
	case models.QuestionShortAnswer:
		submitted := strings.TrimSpace(answer.Text)
		for _, accepted := range question.AcceptedAnswers {
			if strings.EqualFold(submitted, strings.TrimSpace(accepted)) {
				return true
			}
		}
	}
	return false
}

func sameIndexSet(a, b []int) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// SubmitQuizAttempt grades a submission server-side and records the
// attempt for the leaderboard.
func (db *DBHandler) SubmitQuizAttempt(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	quizID := r.PathValue("quizID")
	var quiz models.Quiz
	if err := db.Preload("User").Preload("Questions").Where("public_id = ?", quizID).First(&quiz).Error; err != nil {
		http.Error(w, "Quiz not found", http.StatusNotFound)
		return
	}

	if !quiz.IsPublic && quiz.User.Auth0ID != auth0ID {
		http.Error(w, "Quiz is not public", http.StatusForbidden)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found in database", http.StatusNotFound)
		return
	}

	type AttemptPayload struct {
		Answers     []SubmittedAnswer `json:"answers"`
		TimeSeconds int               `json:"timeSeconds"`
	}

	var payload AttemptPayload
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	answersByQuestion := make(map[uint]SubmittedAnswer, len(payload.Answers))
	for _, answer := range payload.Answers {
		answersByQuestion[answer.QuestionID] = answer
	}

	type QuestionResult struct {
		QuestionID uint `json:"questionId"`
		Correct    bool `json:"correct"`
		Answered   bool `json:"answered"`
	}

	results := make([]QuestionResult, 0, len(quiz.Questions))
	correct := 0
	for _, question := range quiz.Questions {
		answer, answered := answersByQuestion[question.ID]
		isCorrect := answered && gradeAnswer(question, answer)
		if isCorrect {
			correct++
		}
		results = append(results, QuestionResult{QuestionID: question.ID, Correct: isCorrect, Answered: answered})
	}

	timeSeconds := payload.TimeSeconds
	if timeSeconds < 0 {
		timeSeconds = 0
	}

	attempt := models.QuizAttempt{
		UserID:         user.ID,
		QuizID:         quiz.ID,
		TimeSeconds:    timeSeconds,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
	}

	if err := db.Create(&attempt).Error; err != nil {
		log.Printf("SubmitQuizAttempt: Failed to create attempt: %v", err)
		http.Error(w, "Failed to record attempt", http.StatusInternalServerError)
		return
	}

	type AttemptResponse struct {
		models.QuizAttempt
		Results []QuestionResult `json:"results"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AttemptResponse{QuizAttempt: attempt, Results: results})
}

func (db *DBHandler) GetQuizLeaderboard(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	quizID := r.PathValue("quizID")
	if quizID == "" {
		http.Error(w, "quiz ID is required", http.StatusBadRequest)
		return
	}

	var quiz models.Quiz
	if err := db.Preload("User").Where("public_id = ?", quizID).First(&quiz).Error; err != nil {
		http.Error(w, "Quiz not found", http.StatusNotFound)
		return
	}

	if !quiz.IsPublic && quiz.User.Auth0ID != auth0ID {
		http.Error(w, "Quiz is not public", http.StatusForbidden)
		return
	}

	var attempts []models.QuizAttempt
	if err := db.Preload("User").Where("quiz_id = ?", quiz.ID).
		Order("correct_answers desc, time_seconds asc").Find(&attempts).Error; err != nil {
		log.Printf("GetQuizLeaderboard: Failed to fetch attempts for quizID=%s: %v", quizID, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attempts)
}
