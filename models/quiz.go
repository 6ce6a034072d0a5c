package models

import "gorm.io/gorm"

// Question kinds
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionMultiSelect    = "multi_select"
	QuestionShortAnswer    = "short_answer"
)

// Quiz is a set of questions, optionally tied to a case or a category
type Quiz struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex"`
	Title    string `gorm:"not null;size:200"`

	UserID     uint  `gorm:"not null;index"`
	User       User  `gorm:"foreignKey:UserID" json:"-"`
	CaseID     *uint `gorm:"index"`
	CategoryID *uint `gorm:"index"`

	IsPublic bool `gorm:"default:false"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID"`
}

// QuizQuestion holds one question and its answer key. CorrectIndexes is
// used by the choice kinds, AcceptedAnswers by short_answer.
type QuizQuestion struct {
	gorm.Model
	QuizID uint   `gorm:"not null;index"`
	Prompt string `gorm:"not null;size:1000"`
	Kind   string `gorm:"not null;size:30"`

	Options         []string `gorm:"serializer:json;type:text"`
	CorrectIndexes  []int    `gorm:"serializer:json;type:text" json:"-"`
	AcceptedAnswers []string `gorm:"serializer:json;type:text" json:"-"`
}
