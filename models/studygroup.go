package models

import "gorm.io/gorm"

// StudyGroup is a shared space users join to study together. Chat and
// group events live outside this service.
type StudyGroup struct {
	gorm.Model
	PublicID    string `gorm:"size:100;uniqueIndex"`
	Name        string `gorm:"not null;size:100"`
	Description string `gorm:"size:500"`
	IsPublic    bool   `gorm:"default:false"`

	OwnerID uint `gorm:"not null;index"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	Members []User `gorm:"many2many:study_group_members;"`
}
