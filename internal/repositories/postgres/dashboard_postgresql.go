package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type DashboardPostgreSQL struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &DashboardPostgreSQL{db: db}
}

func (d *DashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DashboardPostgreSQL) GetTotalQuizzes(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := d.getDB(tx).WithContext(ctx).Model(&models.Quiz{}).Count(&count).Error
	return count, err
}

func (d *DashboardPostgreSQL) GetPublishedQuizzes(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("is_published = ?", true).
		Count(&count).Error
	return count, err
}

func (d *DashboardPostgreSQL) GetTotalAttempts(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := d.getDB(tx).WithContext(ctx).Model(&models.QuizAttempt{}).Count(&count).Error
	return count, err
}

func (d *DashboardPostgreSQL) GetActiveStudents(ctx context.Context, tx *gorm.DB, days int) (int64, error) {
	var count int64
	since := time.Now().AddDate(0, 0, -days)
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("created_at >= ?", since).
		Distinct("student_id").
		Count(&count).Error
	return count, err
}

func (d *DashboardPostgreSQL) GetCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	db := d.getDB(tx)
	var total, completed int64
	if err := db.WithContext(ctx).Model(&models.QuizAttempt{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	if err := db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("status = ?", models.AttemptCompleted).
		Count(&completed).Error; err != nil {
		return 0, err
	}
	return float64(completed) / float64(total) * 100, nil
}

func (d *DashboardPostgreSQL) GetAverageScore(ctx context.Context, tx *gorm.DB) (float64, error) {
	var avg float64
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select("COALESCE(AVG(score), 0)").
		Where("status = ?", models.AttemptCompleted).
		Scan(&avg).Error
	return avg, err
}

func (d *DashboardPostgreSQL) GetRecentCompletions(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.RecentCompletionData, error) {
	if limit <= 0 {
		limit = 10
	}

	var results []repositories.RecentCompletionData
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select("quiz_attempts.id AS attempt_id, quiz_attempts.quiz_id, quizzes.title AS quiz_title, quiz_attempts.student_id, quiz_attempts.score, quiz_attempts.submitted_at").
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.status = ?", models.AttemptCompleted).
		Order("quiz_attempts.submitted_at DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent completions: %w", err)
	}
	return results, nil
}

func (d *DashboardPostgreSQL) GetQuizScoreBuckets(ctx context.Context, tx *gorm.DB, quizID uint) ([]repositories.ScoreBucketData, error) {
	var results []repositories.ScoreBucketData
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select(`CASE
			WHEN score < 20 THEN '0-20'
			WHEN score < 40 THEN '20-40'
			WHEN score < 60 THEN '40-60'
			WHEN score < 80 THEN '60-80'
			ELSE '80-100'
		END AS bucket, COUNT(*) AS count`).
		Where("quiz_id = ? AND status = ?", quizID, models.AttemptCompleted).
		Group("bucket").
		Order("bucket ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get score buckets: %w", err)
	}
	return results, nil
}
