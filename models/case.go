package models

import "gorm.io/gorm"

// Case is a medical teaching case: a patient presentation with the
// findings, diagnosis and teaching points a learner should take away.
type Case struct {
	gorm.Model
	PublicID       string `gorm:"size:100;uniqueIndex"`
	Title          string `gorm:"not null;size:200"`
	Specialty      string `gorm:"size:100;index"`
	Presentation   string `gorm:"not null;type:text"`
	Findings       string `gorm:"type:text"`
	Diagnosis      string `gorm:"size:500"`
	TeachingPoints string `gorm:"type:text"`
	Difficulty     string `gorm:"size:20;default:medium"`

	UserID uint `gorm:"not null;index"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	IsPublic bool `gorm:"default:false"`
	// Generated marks cases produced by the AI generator rather than written by hand
	Generated bool `gorm:"default:false"`

	Quizzes []Quiz `gorm:"foreignKey:CaseID"`
}
