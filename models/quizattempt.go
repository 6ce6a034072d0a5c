package models

import "time"

type QuizAttempt struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"not null;index"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	QuizID         uint      `gorm:"not null;index"`
	Quiz           Quiz      `gorm:"foreignKey:QuizID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TimeSeconds    int       `gorm:"not null"`
	CorrectAnswers int       `gorm:"not null"`
	TotalQuestions int       `gorm:"not null"`
	TakenAt        time.Time `gorm:"autoCreateTime"`
}
