package models

import (
	"time"

	"gorm.io/gorm"
)

// Flashcard represents an individual flashcard
type Flashcard struct {
	gorm.Model
	PublicID    string   `gorm:"size:100;uniqueIndex"`
	Question    string   `gorm:"not null;size:1000"`
	Answer      string   `gorm:"not null;size:2000"`
	Explanation string   `gorm:"size:2000"`
	Tags        []string `gorm:"serializer:json;type:text"`

	CategoryID uint     `gorm:"not null;index"`
	Category   Category `gorm:"foreignKey:CategoryID" json:"-"`

	IsPublic   bool   `gorm:"default:false"`
	Difficulty string `gorm:"size:20;default:medium"`

	// Spaced-repetition tracking fields
	ConfidenceLevel int        `gorm:"default:3"` // 1-5 self rating
	ReviewCount     int        `gorm:"default:0"`
	NextReviewDate  time.Time  `gorm:"autoCreateTime;index"`
	LastReviewed    *time.Time `gorm:"default:null"`
}
