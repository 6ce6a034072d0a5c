package models

import (
	"time"

	"gorm.io/gorm"
)

// Card outcomes recorded during a study session
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeSkipped   = "skipped"
)

// StudySession is one bounded run through flashcards. The aggregate
// counters are only ever updated in the same transaction that appends a
// CardResult, so they always equal the fold over CardResults.
type StudySession struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex"`

	UserID     uint  `gorm:"not null;index"`
	User       User  `gorm:"foreignKey:UserID" json:"-"`
	CategoryID *uint `gorm:"index"`

	StartedAt time.Time  `gorm:"not null;index"`
	EndedAt   *time.Time `gorm:"default:null"`

	CardsStudied     int `gorm:"default:0"`
	Correct          int `gorm:"default:0"`
	Incorrect        int `gorm:"default:0"`
	Skipped          int `gorm:"default:0"`
	TotalTimeSeconds int `gorm:"default:0"`

	CardResults []SessionCardResult `gorm:"foreignKey:SessionID"`
}

// SessionCardResult records the outcome of a single card within a session
type SessionCardResult struct {
	gorm.Model
	SessionID   uint   `gorm:"not null;index"`
	FlashcardID uint   `gorm:"not null;index"`
	Outcome     string `gorm:"not null;size:20"`

	ConfidenceBefore *int `gorm:"default:null"`
	ConfidenceAfter  *int `gorm:"default:null"`
	TimeSeconds      int  `gorm:"default:0"`
}
