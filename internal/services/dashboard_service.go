package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

const (
	activeStudentWindowDays = 30
	recentCompletionsLimit  = 10
)

type dashboardService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) DashboardService {
	return &dashboardService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// GetSummary builds the platform-wide activity summary for instructors
// and admins.
func (s *dashboardService) GetSummary(ctx context.Context, userID string) (*DashboardSummary, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, 0, "dashboard", "view_summary", "insufficient role permissions")
	}

	dash := s.repo.Dashboard()
	summary := &DashboardSummary{}

	if summary.TotalQuizzes, err = dash.GetTotalQuizzes(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to get total quizzes: %w", err)
	}
	if summary.PublishedQuizzes, err = dash.GetPublishedQuizzes(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to get published quizzes: %w", err)
	}
	if summary.TotalAttempts, err = dash.GetTotalAttempts(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to get total attempts: %w", err)
	}
	if summary.ActiveStudents, err = dash.GetActiveStudents(ctx, nil, activeStudentWindowDays); err != nil {
		return nil, fmt.Errorf("failed to get active students: %w", err)
	}
	if summary.CompletionRate, err = dash.GetCompletionRate(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to get completion rate: %w", err)
	}
	if summary.AverageScore, err = dash.GetAverageScore(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to get average score: %w", err)
	}
	if summary.RecentCompletions, err = dash.GetRecentCompletions(ctx, nil, recentCompletionsLimit); err != nil {
		return nil, fmt.Errorf("failed to get recent completions: %w", err)
	}

	return summary, nil
}

// GetQuizDashboard builds the per-quiz view for its owner or an admin.
func (s *dashboardService) GetQuizDashboard(ctx context.Context, quizID uint, userID string) (*QuizDashboard, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.CreatedBy != userID {
		user, err := s.repo.User().GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user.Role != models.RoleAdmin {
			return nil, NewPermissionError(userID, quizID, "quiz", "view_dashboard", "not owner or insufficient permissions")
		}
	}

	stats, err := s.repo.Quiz().GetStats(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}

	buckets, err := s.repo.Dashboard().GetQuizScoreBuckets(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score buckets: %w", err)
	}

	return &QuizDashboard{
		QuizID:       quizID,
		Stats:        stats,
		ScoreBuckets: buckets,
	}, nil
}
