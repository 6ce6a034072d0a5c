package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	jwtvalidator "github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/stats"
)

func setupTestHandler(t *testing.T) *DBHandler {
	t.Helper()

	// A named shared in-memory database so every pooled connection sees
	// the same data
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Flashcard{},
		&models.Case{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.StudySession{},
		&models.SessionCardResult{},
		&models.StudyGroup{},
	))

	return &DBHandler{DB: db, StatsCache: stats.NewCache(time.Minute)}
}

func setupTestRouter(h *DBHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories/{categoryID}", h.GetCategoryByID)
	mux.HandleFunc("POST /api/categories", h.CreateCategory)
	mux.HandleFunc("POST /api/categories/import", h.CreateCategoryWithCards)
	mux.HandleFunc("POST /api/categories/{categoryID}/flashcards", h.CreateFlashcard)
	mux.HandleFunc("GET /api/categories/{categoryID}/flashcards/due", h.GetDueFlashcards)
	mux.HandleFunc("POST /api/categories/{categoryID}/flashcards/{flashcardID}/review", h.ReviewFlashcard)
	mux.HandleFunc("DELETE /api/categories/{categoryID}/flashcards/{flashcardID}", h.DeleteFlashcardByID)

	mux.HandleFunc("POST /api/quizzes", h.CreateQuiz)
	mux.HandleFunc("POST /api/quizzes/{quizID}/attempts", h.SubmitQuizAttempt)
	mux.HandleFunc("GET /api/quizzes/{quizID}/leaderboard", h.GetQuizLeaderboard)

	mux.HandleFunc("POST /api/sessions", h.StartSession)
	mux.HandleFunc("POST /api/sessions/{sessionID}/cards", h.RecordSessionCard)
	mux.HandleFunc("POST /api/sessions/{sessionID}/finish", h.FinishSession)
	mux.HandleFunc("GET /api/stats", h.GetStudyStats)

	mux.HandleFunc("POST /api/groups", h.CreateGroup)
	mux.HandleFunc("POST /api/groups/{groupID}/join", h.JoinGroup)

	return mux
}

// asUser attaches validated Auth0 claims, standing in for the JWT middleware.
func asUser(r *http.Request, sub string) *http.Request {
	claims := &jwtvalidator.ValidatedClaims{
		RegisteredClaims: jwtvalidator.RegisteredClaims{Subject: sub},
	}
	return r.WithContext(context.WithValue(r.Context(), jwtmiddleware.ContextKey{}, claims))
}

func seedUser(t *testing.T, h *DBHandler, auth0ID, nickname string) models.User {
	t.Helper()
	user := models.User{Auth0ID: auth0ID, Nickname: nickname}
	require.NoError(t, h.Create(&user).Error)
	return user
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, sub string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		req = asUser(req, sub)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestCategoryAndFlashcardFlow(t *testing.T) {
	h := setupTestHandler(t)
	mux := setupTestRouter(h)
	seedUser(t, h, "auth0|owner", "owner")

	w := doJSON(t, mux, "POST", "/api/categories", "auth0|owner", map[string]interface{}{
		"title": "Cardiology", "isPublic": false,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decodeBody[models.Category](t, w)
	require.NotEmpty(t, category.PublicID)

	w = doJSON(t, mux, "POST", "/api/categories/"+category.PublicID+"/flashcards", "auth0|owner", map[string]interface{}{
		"question": "Most common cause of aortic stenosis in the elderly?",
		"answer":   "Calcific degeneration",
		"tags":     []string{"valvular"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	card := decodeBody[models.Flashcard](t, w)
	assert.Equal(t, 3, card.ConfidenceLevel)
	assert.Equal(t, 0, card.ReviewCount)

	var count int
	h.Model(&models.Category{}).Select("card_count").Where("id = ?", category.ID).Scan(&count)
	assert.Equal(t, 1, count, "creating a card bumps the cached count")

	// A brand new card is due immediately
	w = doJSON(t, mux, "GET", "/api/categories/"+category.PublicID+"/flashcards/due", "auth0|owner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	due := decodeBody[[]models.Flashcard](t, w)
	require.Len(t, due, 1)

	// First review: one day out regardless of confidence
	w = doJSON(t, mux, "POST", "/api/categories/"+category.PublicID+"/flashcards/"+card.PublicID+"/review", "auth0|owner", map[string]interface{}{
		"confidence": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reviewed := decodeBody[models.Flashcard](t, w)
	assert.Equal(t, 1, reviewed.ReviewCount)
	assert.Equal(t, 5, reviewed.ConfidenceLevel)
	require.NotNil(t, reviewed.LastReviewed)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 1), reviewed.NextReviewDate, time.Minute)

	// Second review at confidence 4 schedules 14 days out
	w = doJSON(t, mux, "POST", "/api/categories/"+category.PublicID+"/flashcards/"+card.PublicID+"/review", "auth0|owner", map[string]interface{}{
		"confidence": 4,
	})
	require.Equal(t, http.StatusOK, w.Code)
	reviewed = decodeBody[models.Flashcard](t, w)
	assert.Equal(t, 2, reviewed.ReviewCount)
	assert.Equal(t, 4, reviewed.ConfidenceLevel)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), reviewed.NextReviewDate, time.Minute)

	// Reviewed card is no longer due
	w = doJSON(t, mux, "GET", "/api/categories/"+category.PublicID+"/flashcards/due", "auth0|owner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	due = decodeBody[[]models.Flashcard](t, w)
	assert.Empty(t, due)

	// Deleting the card decrements the cached count
	w = doJSON(t, mux, "DELETE", "/api/categories/"+category.PublicID+"/flashcards/"+card.PublicID, "auth0|owner", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	h.Model(&models.Category{}).Select("card_count").Where("id = ?", category.ID).Scan(&count)
	assert.Equal(t, 0, count)
}

func TestCategoryVisibility(t *testing.T) {
	h := setupTestHandler(t)
	mux := setupTestRouter(h)
	seedUser(t, h, "auth0|owner", "owner")
	seedUser(t, h, "auth0|other", "other")

	w := doJSON(t, mux, "POST", "/api/categories", "auth0|owner", map[string]interface{}{
		"title": "Private deck",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decodeBody[models.Category](t, w)

	w = doJSON(t, mux, "GET", "/api/categories/"+category.PublicID, "auth0|other", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, mux, "GET", "/api/categories/"+category.PublicID, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, mux, "GET", "/api/categories/"+category.PublicID, "auth0|owner", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategoryImport(t *testing.T) {
	h := setupTestHandler(t)
	mux := setupTestRouter(h)
	seedUser(t, h, "auth0|owner", "owner")

	w := doJSON(t, mux, "POST", "/api/categories/import", "auth0|owner", map[string]interface{}{
		"title": "Murmurs",
		"cards": []map[string]interface{}{
			{"question": "Harsh crescendo-decrescendo systolic murmur?", "answer": "Aortic stenosis"},
			{"question": "Holosystolic murmur at the apex?", "answer": "Mitral regurgitation"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decodeBody[models.Category](t, w)
	assert.Equal(t, 2, category.CardCount)
	assert.Len(t, category.Flashcards, 2)
}

func TestQuizAttemptFlow(t *testing.T) {
	h := setupTestHandler(t)
	mux := setupTestRouter(h)
	seedUser(t, h, "auth0|owner", "owner")
	seedUser(t, h, "auth0|taker", "taker")

	w := doJSON(t, mux, "POST", "/api/quizzes", "auth0|owner", map[string]interface{}{
		"title":    "Valvular disease",
		"isPublic": true,
		"questions": []map[string]interface{}{
			{
				"prompt":         "Most common valvular lesion in the elderly?",
				"kind":           "multiple_choice",
				"options":        []string{"Aortic stenosis", "Mitral stenosis"},
				"correctIndexes": []int{0},
			},
			{
				"prompt":          "Name the classic triad symptom of aortic stenosis starting with S",
				"kind":            "short_answer",
				"acceptedAnswers": []string{"Syncope"},
			},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quiz := decodeBody[models.Quiz](t, w)
	require.Len(t, quiz.Questions, 2)

	w = doJSON(t, mux, "POST", "/api/quizzes/"+quiz.PublicID+"/attempts", "auth0|taker", map[string]interface{}{
		"timeSeconds": 42,
		"answers": []map[string]interface{}{
			{"questionId": quiz.Questions[0].ID, "selectedIndexes": []int{0}},
			{"questionId": quiz.Questions[1].ID, "text": "  syncope "},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var attempt struct {
		models.QuizAttempt
		Results []struct {
			QuestionID uint `json:"questionId"`
			Correct    bool `json:"correct"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&attempt))
	assert.Equal(t, 2, attempt.CorrectAnswers)
	assert.Equal(t, 2, attempt.TotalQuestions)
	require.Len(t, attempt.Results, 2)
	assert.True(t, attempt.Results[0].Correct)
	assert.True(t, attempt.Results[1].Correct)

	w = doJSON(t, mux, "GET", "/api/quizzes/"+quiz.PublicID+"/leaderboard", "auth0|taker", nil)
	require.Equal(t, http.StatusOK, w.Code)
	leaderboard := decodeBody[[]models.QuizAttempt](t, w)
	require.Len(t, leaderboard, 1)
	assert.Equal(t, 42, leaderboard[0].TimeSeconds)
}

func TestSessionAndStatsFlow(t *testing.T) {
	h := setupTestHandler(t)
	mux := setupTestRouter(h)
	seedUser(t, h, "auth0|owner", "owner")

	w := doJSON(t, mux, "POST", "/api/categories", "auth0|owner", map[string]interface{}{"title": "Cardiology"})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decodeBody[models.Category](t, w)

	w = doJSON(t, mux, "POST", "/api/categories/"+category.PublicID+"/flashcards", "auth0|owner", map[string]interface{}{
		"question": "Q", "answer": "A",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	card := decodeBody[models.Flashcard](t, w)

	w = doJSON(t, mux, "POST", "/api/sessions", "auth0|owner", map[string]interface{}{
		"categoryId": category.PublicID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decodeBody[models.StudySession](t, w)

	w = doJSON(t, mux, "POST", "/api/sessions/"+session.PublicID+"/cards", "auth0|owner", map[string]interface{}{
		"flashcardId": card.PublicID, "outcome": "correct", "timeSeconds": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, mux, "POST", "/api/sessions/"+session.PublicID+"/cards", "auth0|owner", map[string]interface{}{
		"flashcardId": card.PublicID, "outcome": "incorrect", "timeSeconds": 15,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Bogus outcome is rejected before touching the session
	w = doJSON(t, mux, "POST", "/api/sessions/"+session.PublicID+"/cards", "auth0|owner", map[string]interface{}{
		"flashcardId": card.PublicID, "outcome": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, mux, "POST", "/api/sessions/"+session.PublicID+"/finish", "auth0|owner", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	finished := decodeBody[models.StudySession](t, w)
	require.NotNil(t, finished.EndedAt)
	assert.Equal(t, 2, finished.CardsStudied)
	assert.Equal(t, 1, finished.Correct)
	assert.Equal(t, 1, finished.Incorrect)
	assert.Equal(t, 45, finished.TotalTimeSeconds)

	// Finishing twice conflicts
	w = doJSON(t, mux, "POST", "/api/sessions/"+session.PublicID+"/finish", "auth0|owner", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, mux, "GET", "/api/stats", "auth0|owner", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dashboard struct {
		stats.Summary
		TotalCards int64 `json:"totalCards"`
		DueCards   int64 `json:"dueCards"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dashboard))
	assert.Equal(t, 1, dashboard.TotalSessions)
	assert.Equal(t, 2, dashboard.TotalCardsStudied)
	assert.Equal(t, 1, dashboard.TotalCorrect)
	assert.InDelta(t, 50.0, dashboard.Accuracy, 1e-9)
	assert.Equal(t, 1, dashboard.CurrentStreak)
	assert.Equal(t, int64(1), dashboard.TotalCards)
	assert.Equal(t, int64(1), dashboard.DueCards)
	assert.Len(t, dashboard.Last30Days, 30)
}

func TestGroupJoin(t *testing.T) {
	h := setupTestHandler(t)
	mux := setupTestRouter(h)
	seedUser(t, h, "auth0|owner", "owner")
	seedUser(t, h, "auth0|member", "member")

	w := doJSON(t, mux, "POST", "/api/groups", "auth0|owner", map[string]interface{}{
		"name": "Step 1 grind", "isPublic": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decodeBody[models.StudyGroup](t, w)

	w = doJSON(t, mux, "POST", "/api/groups/"+group.PublicID+"/join", "auth0|member", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	count := h.Model(&models.StudyGroup{Model: gorm.Model{ID: group.ID}}).Association("Members").Count()
	assert.Equal(t, int64(2), count, "owner plus the joined member")

	// Private groups refuse the public join route
	w = doJSON(t, mux, "POST", "/api/groups", "auth0|owner", map[string]interface{}{"name": "Secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	private := decodeBody[models.StudyGroup](t, w)

	w = doJSON(t, mux, "POST", "/api/groups/"+private.PublicID+"/join", "auth0|member", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
