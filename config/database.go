package config

import (
	"github.com/casewise/casewise-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Database *gorm.DB

func Connect() error {
	var err error
	dbURL := Env.DatabaseURL
	if dbURL == "" {
		// Local development runs on sqlite so the API works without a
		// postgres instance
		Database, err = gorm.Open(sqlite.Open("casewise.db"), &gorm.Config{})
	} else {
		Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	}
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(
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
	)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
