package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// QuizAttempt is one student's run at a quiz. Status is the source of truth
// for the lifecycle; SubmittedAt/DurationSeconds/Score are set only when the
// attempt transitions to completed, in the same update.
//
// A partial unique index (quiz_id, student_id) WHERE status = 'in_progress'
// guarantees at most one open attempt per student per quiz; see pkg.InitDatabase.
type QuizAttempt struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	QuizID    uint          `json:"quiz_id" gorm:"not null;index"`
	StudentID string        `json:"student_id" gorm:"not null;index;size:255"`
	Status    AttemptStatus `json:"status" gorm:"not null;default:in_progress;index"`

	// Timing
	StartedAt       time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	DurationSeconds *int       `json:"duration_seconds"`

	// Scoring. TotalPoints is snapshotted at start so mid-attempt quiz edits
	// do not shift the denominator; Score keeps full precision.
	Score        *float64 `json:"score"`
	PointsEarned *int     `json:"points_earned"`
	TotalPoints  int      `json:"total_points" gorm:"not null"`

	// Metadata
	SessionData datatypes.JSON `json:"session_data" gorm:"type:jsonb"` // client hints: user agent, screen size

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz            `json:"quiz" gorm:"foreignKey:QuizID"`
	Student User            `json:"student" gorm:"foreignKey:StudentID"`
	Answers []AttemptAnswer `json:"answers" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

// AttemptAnswer records the student's choice for one question. At most one row
// per (attempt, question); re-answering overwrites. A null SelectedOptionID is
// an explicit skip, distinct from no row at all.
type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey;autoIncrement"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	SelectedOptionID *uint `json:"selected_option_id"`

	// Grading, frozen at answer time against the question's current weight.
	IsCorrect    bool `json:"is_correct" gorm:"not null;default:false"`
	PointsEarned int  `json:"points_earned" gorm:"not null;default:0"`

	AnsweredAt time.Time `json:"answered_at" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt        QuizAttempt     `json:"-" gorm:"foreignKey:AttemptID"`
	Question       Question        `json:"-" gorm:"foreignKey:QuestionID"`
	SelectedOption *QuestionOption `json:"-" gorm:"foreignKey:SelectedOptionID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
