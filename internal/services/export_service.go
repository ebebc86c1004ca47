package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ExportQuizResults renders all completed attempts of a quiz as an xlsx
// workbook. Only the quiz owner or an admin may export.
func (s *exportService) ExportQuizResults(ctx context.Context, quizID uint, userID string) ([]byte, error) {
	s.logger.Info("Exporting quiz results", "quiz_id", quizID, "user_id", userID)

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
			return nil, NewPermissionError(userID, quizID, "quiz", "export_results", "not owner or insufficient permissions")
		}
	}

	completedStatus := models.AttemptCompleted
	attempts, _, err := s.repo.Attempt().GetByQuiz(ctx, nil, quizID, repositories.AttemptFilters{
		Status:    &completedStatus,
		SortBy:    "submitted_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Attempt ID", "Student ID", "Student Name", "Score (%)", "Points Earned", "Total Points", "Started At", "Submitted At", "Duration (s)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, attempt := range attempts {
		studentName := ""
		if student, err := s.repo.User().GetByID(ctx, attempt.StudentID); err == nil {
			studentName = student.FullName
		}

		values := []interface{}{
			attempt.ID,
			attempt.StudentID,
			studentName,
			derefFloat(attempt.Score),
			derefInt(attempt.PointsEarned),
			attempt.TotalPoints,
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			"",
			derefInt(attempt.DurationSeconds),
		}
		if attempt.SubmittedAt != nil {
			values[7] = attempt.SubmittedAt.Format("2006-01-02 15:04:05")
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Quiz results exported",
		"quiz_id", quizID,
		"attempts", len(attempts),
		"bytes", buf.Len())

	return buf.Bytes(), nil
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
