package models

import (
	"time"

	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	IsPublished bool    `json:"is_published" gorm:"default:false;index"`

	// Optional duration limit in minutes; 0 means untimed. Answers are
	// rejected once StartedAt+TimeLimit has passed; submission stays open.
	TimeLimit int `json:"time_limit" gorm:"default:0"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question    `json:"questions" gorm:"foreignKey:QuizID"`
	Attempts  []QuizAttempt `json:"-" gorm:"foreignKey:QuizID"`
	Creator   User          `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

type Question struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index"`
	Text   string `json:"text" gorm:"type:text;not null" validate:"required"`

	// Point weight; always > 0.
	Points   int `json:"points" gorm:"not null;default:10" validate:"min=1,max=100"`
	Position int `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz             `json:"-" gorm:"foreignKey:QuizID"`
	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID"`
}

// QuestionOption is one answer choice. The catalog guarantees each question
// has 2-6 options with exactly one marked correct; the scoring path relies on
// that but tolerates a question where no correct option is found.
type QuestionOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null" validate:"required"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	Position   int    `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (Question) TableName() string {
	return "questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}
