package config

import (
	"os"
	"strings"
)

type Environment struct {
	IsDevelopment  bool
	Domain         string
	CookieSecure   bool
	Port           string
	DatabaseURL    string
	OpenAIKey      string
	AllowedOrigins []string
}

var Env Environment

// LoadEnv builds Env from the process environment. Called from main
// after godotenv has had a chance to populate it.
func LoadEnv() {
	// Get domain from environment variable
	domain := os.Getenv("COOKIE_DOMAIN")

	// If no domain is set, we're in development
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}

	origins := []string{"http://localhost:3000"}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		origins = nil
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	Env = Environment{
		IsDevelopment:  isDev,
		Domain:         domain,
		CookieSecure:   !isDev,
		Port:           port,
		DatabaseURL:    os.Getenv("DB_URL"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AllowedOrigins: origins,
	}
}
