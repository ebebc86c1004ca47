package services

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

// ===== REQUEST DTOS =====

// StartAttemptRequest starts a new attempt on a published quiz.
// SessionData carries optional client hints (user agent, screen size)
// stored verbatim with the attempt.
type StartAttemptRequest struct {
	QuizID      uint           `json:"quiz_id" validate:"required"`
	SessionData datatypes.JSON `json:"session_data,omitempty"`
}

// RecordAnswerRequest records or overwrites the answer for one question.
// A nil SelectedOptionID records an explicit skip.
type RecordAnswerRequest struct {
	QuestionID       uint  `json:"question_id" validate:"required"`
	SelectedOptionID *uint `json:"selected_option_id"`
}

// ===== RESPONSE DTOS =====

// OptionResponse is one answer choice. IsCorrect is only populated for
// instructors or on completed attempts.
type OptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuestionResponse struct {
	ID       uint             `json:"id"`
	Text     string           `json:"text"`
	Points   int              `json:"points"`
	Position int              `json:"position"`
	Options  []OptionResponse `json:"options"`
}

type QuizResponse struct {
	ID             uint               `json:"id"`
	Title          string             `json:"title"`
	Description    *string            `json:"description,omitempty"`
	IsPublished    bool               `json:"is_published"`
	TimeLimit      int                `json:"time_limit"`
	CreatedBy      string             `json:"created_by"`
	QuestionsCount int                `json:"questions_count"`
	TotalPoints    int                `json:"total_points"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Questions      []QuestionResponse `json:"questions,omitempty"`
}

// AnswerResponse mirrors one recorded answer. Grading fields are hidden
// while the attempt is still in progress.
type AnswerResponse struct {
	QuestionID       uint      `json:"question_id"`
	QuestionText     string    `json:"question_text,omitempty"`
	QuestionPoints   int       `json:"question_points,omitempty"`
	SelectedOptionID *uint     `json:"selected_option_id"`
	IsCorrect        *bool     `json:"is_correct,omitempty"`
	PointsEarned     *int      `json:"points_earned,omitempty"`
	CorrectOptionID  *uint     `json:"correct_option_id,omitempty"`
	AnsweredAt       time.Time `json:"answered_at"`
}

type AttemptResponse struct {
	ID              uint                 `json:"id"`
	QuizID          uint                 `json:"quiz_id"`
	QuizTitle       string               `json:"quiz_title,omitempty"`
	StudentID       string               `json:"student_id"`
	Status          models.AttemptStatus `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	DurationSeconds *int                 `json:"duration_seconds,omitempty"`
	Score           *float64             `json:"score,omitempty"`
	PointsEarned    *int                 `json:"points_earned,omitempty"`
	TotalPoints     int                  `json:"total_points"`
	AnsweredCount   int                  `json:"answered_count"`
	Answers         []AnswerResponse     `json:"answers,omitempty"`
}

// DashboardSummary aggregates platform-wide activity for admin views
type DashboardSummary struct {
	TotalQuizzes      int64                               `json:"total_quizzes"`
	PublishedQuizzes  int64                               `json:"published_quizzes"`
	TotalAttempts     int64                               `json:"total_attempts"`
	ActiveStudents    int64                               `json:"active_students"`
	CompletionRate    float64                             `json:"completion_rate"`
	AverageScore      float64                             `json:"average_score"`
	RecentCompletions []repositories.RecentCompletionData `json:"recent_completions"`
}

// QuizDashboard is the per-quiz instructor view
type QuizDashboard struct {
	QuizID       uint                           `json:"quiz_id"`
	Stats        *repositories.QuizStats        `json:"stats"`
	ScoreBuckets []repositories.ScoreBucketData `json:"score_buckets"`
}

// ===== SERVICE INTERFACES =====

// AttemptService owns the attempt lifecycle: start, record answers,
// submit with scoring, abandon.
type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	RecordAnswer(ctx context.Context, attemptID uint, req *RecordAnswerRequest, studentID string) (*AnswerResponse, error)
	Submit(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error)
	Abandon(ctx context.Context, attemptID uint, studentID string) error

	GetByID(ctx context.Context, id uint, userID string) (*AttemptResponse, error)
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*AttemptResponse, error)
	GetCurrentAttempt(ctx context.Context, quizID uint, studentID string) (*AttemptResponse, error)

	List(ctx context.Context, filters repositories.AttemptFilters, userID string) ([]*AttemptResponse, int64, error)
	GetByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*AttemptResponse, int64, error)
	GetByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters, userID string) ([]*AttemptResponse, int64, error)
}

// QuizService owns the quiz catalog: authoring, publication, listing.
type QuizService interface {
	Create(ctx context.Context, req *validator.QuizCreateRequest, creatorID string) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *validator.QuizUpdateRequest, userID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*QuizResponse, error)

	Publish(ctx context.Context, id uint, userID string) error
	Unpublish(ctx context.Context, id uint, userID string) error

	AddQuestion(ctx context.Context, quizID uint, req *validator.QuestionCreateRequest, userID string) (*QuestionResponse, error)
	RemoveQuestion(ctx context.Context, quizID, questionID uint, userID string) error

	List(ctx context.Context, filters repositories.QuizFilters, userID string) ([]*QuizResponse, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters repositories.QuizFilters) ([]*QuizResponse, int64, error)
	GetStats(ctx context.Context, id uint, userID string) (*repositories.QuizStats, error)
}

// DashboardService aggregates activity metrics
type DashboardService interface {
	GetSummary(ctx context.Context, userID string) (*DashboardSummary, error)
	GetQuizDashboard(ctx context.Context, quizID uint, userID string) (*QuizDashboard, error)
}

// ExportService produces spreadsheet exports of quiz results
type ExportService interface {
	ExportQuizResults(ctx context.Context, quizID uint, userID string) ([]byte, error)
}

// ServiceManager wires and owns all services
type ServiceManager interface {
	Attempt() AttemptService
	Quiz() QuizService
	Dashboard() DashboardService
	Export() ExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
