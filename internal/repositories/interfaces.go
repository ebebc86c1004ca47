package repositories

import (
	"context"
	"time"

	"github.com/edustack/quiz-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Published *bool      `json:"published"`
	CreatedBy *string    `json:"created_by"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	QuizID    *uint                 `json:"quiz_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	AverageDuration   int     `json:"average_duration"` // seconds
	QuestionCount     int     `json:"question_count"`
	TotalPoints       int     `json:"total_points"`
}

// ===== REPOSITORY INTERFACES =====

// QuizRepository covers quiz catalog persistence. The attempt ledger only
// consumes the read side (GetByID, GetPublicationState, stats); the write side
// backs the authoring endpoints.
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) // questions + options, ordered
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Publication
	SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error
	GetPublicationState(ctx context.Context, tx *gorm.DB, id uint) (exists bool, published bool, err error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*QuizStats, error)
}

// QuestionRepository covers question/option reads the attempt ledger needs
// plus the authoring writes.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// GetByQuiz returns the quiz's questions ordered by position, options
	// preloaded in position order.
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error)
	CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)
	SumPointsByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int, error)

	// Option lookups
	GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.QuestionOption, error)
	GetCorrectOption(ctx context.Context, tx *gorm.DB, questionID uint) (*models.QuestionOption, error)
}

// AttemptRepository covers attempt row persistence.
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)

	// GetByIDForUpdate fetches the attempt under SELECT ... FOR UPDATE so
	// answer writes and finalization serialize per attempt. Only meaningful
	// inside a transaction.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)

	Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Complete atomically flips the attempt to completed and sets every
	// scoring field in one update.
	Complete(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, durationSeconds int, score float64, pointsEarned, totalPoints int) error

	// Active attempt queries
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (*models.QuizAttempt, error)
	HasActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (bool, error)

	// List operations
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
}

// AnswerRepository covers per-question answer rows.
type AnswerRepository interface {
	// Upsert inserts the answer or, when a row for (attempt_id, question_id)
	// already exists, overwrites selection, grading and answered timestamp.
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) error

	GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error)
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error)
	DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error
	CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error)
}

// UserRepository is a read-only view over the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}
