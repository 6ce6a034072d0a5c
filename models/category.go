package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups flashcards into a study deck (e.g. "Cardiology")
type Category struct {
	gorm.Model
	Title       string `gorm:"not null;size:100"`
	Description string `gorm:"size:500"`
	UserID      uint   `gorm:"not null"`
	PublicID    string `gorm:"size:100;uniqueIndex"`
	User        User   `gorm:"foreignKey:UserID" json:"-"`

	Flashcards []Flashcard `gorm:"foreignKey:CategoryID"`

	IsPublic bool `gorm:"default:false"`
	// CardCount caches len(Flashcards); maintained on card create/delete
	CardCount   int        `gorm:"default:0"`
	LastStudied *time.Time `gorm:"default:null"`
}
