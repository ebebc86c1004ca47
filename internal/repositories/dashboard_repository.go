package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository interface for dashboard analytics operations.
type DashboardRepository interface {
	// Totals
	GetTotalQuizzes(ctx context.Context, tx *gorm.DB) (int64, error)
	GetPublishedQuizzes(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalAttempts(ctx context.Context, tx *gorm.DB) (int64, error)
	GetActiveStudents(ctx context.Context, tx *gorm.DB, days int) (int64, error)

	// Metrics over completed attempts
	GetCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error)
	GetAverageScore(ctx context.Context, tx *gorm.DB) (float64, error)

	// Recent finalized attempts for activity feeds
	GetRecentCompletions(ctx context.Context, tx *gorm.DB, limit int) ([]RecentCompletionData, error)

	// Per-quiz score distribution for instructor views
	GetQuizScoreBuckets(ctx context.Context, tx *gorm.DB, quizID uint) ([]ScoreBucketData, error)
}

type RecentCompletionData struct {
	AttemptID   uint      `json:"attempt_id"`
	QuizID      uint      `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	StudentID   string    `json:"student_id"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ScoreBucketData struct {
	Bucket string `json:"bucket"` // "0-20", "20-40", ...
	Count  int64  `json:"count"`
}
