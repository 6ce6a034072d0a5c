package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/casewise/casewise-api/ai"
	"github.com/casewise/casewise-api/config"
	"github.com/casewise/casewise-api/handlers"
	"github.com/casewise/casewise-api/metrics"
	"github.com/casewise/casewise-api/middleware"
	"github.com/casewise/casewise-api/stats"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	config.LoadEnv()
	config.Connect()
	authMiddleware := middleware.EnsureValidToken()

	caseGenerator := ai.NewGenerator(&ai.Config{APIKey: config.Env.OpenAIKey})
	DBHandler := &handlers.DBHandler{
		DB:         config.Database,
		Cases:      caseGenerator,
		StatsCache: stats.NewCache(5 * time.Minute),
	}
	mux := http.NewServeMux()

	// Category
	mux.HandleFunc("GET /api/categories/{categoryID}", DBHandler.GetCategoryByID)
	mux.HandleFunc("POST /api/categories", middleware.SyncUserMiddleware(DBHandler.CreateCategory))
	mux.HandleFunc("POST /api/categories/import", middleware.SyncUserMiddleware(DBHandler.CreateCategoryWithCards))
	mux.HandleFunc("PUT /api/categories/{categoryID}", middleware.SyncUserMiddleware(DBHandler.UpdateCategoryByID))
	mux.HandleFunc("DELETE /api/categories/{categoryID}", middleware.SyncUserMiddleware(DBHandler.DeleteCategoryByID))

	// User content
	mux.HandleFunc("GET /api/users/{nickname}", DBHandler.GetUserProfile)
	mux.HandleFunc("GET /api/users/{nickname}/categories", DBHandler.GetCategoriesForUser)
	mux.HandleFunc("GET /api/users/{nickname}/cases", DBHandler.GetCasesForUser)

	// Flashcard
	mux.HandleFunc("POST /api/categories/{categoryID}/flashcards", middleware.SyncUserMiddleware(DBHandler.CreateFlashcard))
	mux.HandleFunc("GET /api/categories/{categoryID}/flashcards", DBHandler.GetFlashcardsForCategory)
	mux.HandleFunc("GET /api/categories/{categoryID}/flashcards/due", middleware.SyncUserMiddleware(DBHandler.GetDueFlashcards))
	mux.HandleFunc("GET /api/categories/{categoryID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(DBHandler.GetFlashcardByID))
	mux.HandleFunc("PUT /api/categories/{categoryID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(DBHandler.UpdateFlashcardByID))
	mux.HandleFunc("DELETE /api/categories/{categoryID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(DBHandler.DeleteFlashcardByID))
	mux.HandleFunc("POST /api/categories/{categoryID}/flashcards/{flashcardID}/review", middleware.SyncUserMiddleware(DBHandler.ReviewFlashcard))

	// Teaching cases
	mux.HandleFunc("GET /api/cases/{caseID}", DBHandler.GetCaseByID)
	mux.HandleFunc("POST /api/cases", middleware.SyncUserMiddleware(DBHandler.CreateCase))
	mux.HandleFunc("POST /api/cases/generate", middleware.SyncUserMiddleware(DBHandler.GenerateCase))
	mux.HandleFunc("PUT /api/cases/{caseID}", middleware.SyncUserMiddleware(DBHandler.UpdateCaseByID))
	mux.HandleFunc("DELETE /api/cases/{caseID}", middleware.SyncUserMiddleware(DBHandler.DeleteCaseByID))

	// Quiz
	mux.HandleFunc("POST /api/quizzes", middleware.SyncUserMiddleware(DBHandler.CreateQuiz))
	mux.HandleFunc("GET /api/quizzes/{quizID}", DBHandler.GetQuizByID)
	mux.HandleFunc("DELETE /api/quizzes/{quizID}", middleware.SyncUserMiddleware(DBHandler.DeleteQuizByID))
	mux.HandleFunc("POST /api/quizzes/{quizID}/attempts", middleware.SyncUserMiddleware(DBHandler.SubmitQuizAttempt))
	mux.HandleFunc("GET /api/quizzes/{quizID}/leaderboard", DBHandler.GetQuizLeaderboard)

	// Study sessions
	mux.HandleFunc("POST /api/sessions", middleware.SyncUserMiddleware(DBHandler.StartSession))
	mux.HandleFunc("GET /api/sessions", middleware.SyncUserMiddleware(DBHandler.GetSessionsForUser))
	mux.HandleFunc("POST /api/sessions/{sessionID}/cards", middleware.SyncUserMiddleware(DBHandler.RecordSessionCard))
	mux.HandleFunc("POST /api/sessions/{sessionID}/finish", middleware.SyncUserMiddleware(DBHandler.FinishSession))

	// Dashboard statistics
	mux.HandleFunc("GET /api/stats", middleware.SyncUserMiddleware(DBHandler.GetStudyStats))

	// Study groups
	mux.HandleFunc("GET /api/groups", DBHandler.GetPublicGroups)
	mux.HandleFunc("GET /api/groups/{groupID}", DBHandler.GetGroupByID)
	mux.HandleFunc("POST /api/groups", middleware.SyncUserMiddleware(DBHandler.CreateGroup))
	mux.HandleFunc("PUT /api/groups/{groupID}", middleware.SyncUserMiddleware(DBHandler.UpdateGroupByID))
	mux.HandleFunc("DELETE /api/groups/{groupID}", middleware.SyncUserMiddleware(DBHandler.DeleteGroupByID))
	mux.HandleFunc("POST /api/groups/join", middleware.SyncUserMiddleware(DBHandler.JoinGroupWithInvite))
	mux.HandleFunc("POST /api/groups/{groupID}/join", middleware.SyncUserMiddleware(DBHandler.JoinGroup))
	mux.HandleFunc("POST /api/groups/{groupID}/leave", middleware.SyncUserMiddleware(DBHandler.LeaveGroup))
	mux.HandleFunc("POST /api/groups/{groupID}/invites", middleware.SyncUserMiddleware(DBHandler.CreateGroupInvite))

	mux.Handle("GET /metrics", metrics.Handler())

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.Env.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(metrics.Instrument(mux, authMiddleware(mux)))

	serverAddr := "0.0.0.0:" + config.Env.Port

	log.Printf("Listening on %s", serverAddr)
	http.ListenAndServe(serverAddr, corsHandler)
}
