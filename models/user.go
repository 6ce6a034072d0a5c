package models

import "gorm.io/gorm"

// User represents a user in the system
type User struct {
	gorm.Model
	Auth0ID     string       `gorm:"uniqueIndex;not null;size:100" json:"-"`
	Nickname    string       `gorm:"unique;not null;size:100"`
	Categories  []Category   `gorm:"foreignKey:UserID"`
	Cases       []Case       `gorm:"foreignKey:UserID"`
	StudyGroups []StudyGroup `gorm:"many2many:study_group_members;" json:"-"`
}
