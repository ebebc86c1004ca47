package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/edustack/quiz-service/internal/cache"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		// The partial unique index on (quiz_id, student_id) WHERE
		// status = 'in_progress' closes the duplicate-start race; surface
		// the violation so the service can map it to a conflict.
		if repositories.IsDuplicateError(err) {
			return repositories.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.QuizID, attempt.StudentID)
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	db := a.getDB(tx)
	var attempt models.QuizAttempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	db := a.getDB(tx)
	var attempt models.QuizAttempt
	if err := db.WithContext(ctx).
		Preload("Quiz.Questions.Options").
		Preload("Answers").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	db := a.getDB(tx)
	var attempt models.QuizAttempt
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(attempt).Error; err != nil {
		return err
	}
	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.QuizID, attempt.StudentID)
	return nil
}

func (a *AttemptPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Delete(&models.QuizAttempt{}, id).Error
}

func (a *AttemptPostgreSQL) Complete(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, durationSeconds int, score float64, pointsEarned, totalPoints int) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           models.AttemptCompleted,
			"submitted_at":     submittedAt,
			"duration_seconds": durationSeconds,
			"score":            score,
			"points_earned":    pointsEarned,
			"total_points":     totalPoints,
		}).Error
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (*models.QuizAttempt, error) {
	db := a.getDB(tx)
	var attempt models.QuizAttempt
	if err := db.WithContext(ctx).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) HasActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (bool, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, models.AttemptInProgress).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.QuizAttempt
	var total int64

	query := db.WithContext(ctx).Model(&models.QuizAttempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Preload("Quiz").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.StudentID = &studentID
	return a.List(ctx, tx, filters)
}

func (a *AttemptPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.QuizID = &quizID
	return a.List(ctx, tx, filters)
}

// ===== ANSWER REPOSITORY IMPLEMENTATION =====

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

// Upsert inserts or overwrites the answer row for (attempt_id, question_id)
// in a single atomic statement, so concurrent re-answers resolve to last
// write wins without duplicates.
func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) error {
	db := ar.getDB(tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_option_id", "is_correct", "points_earned", "answered_at", "updated_at",
			}),
		}).
		Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}

	ar.cacheManager.Fast.Delete(ctx, fmt.Sprintf("attempt:%d:answers", answer.AttemptID))
	return nil
}

func (ar *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	db := ar.getDB(tx)
	var answer models.AttemptAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (ar *AnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	db := ar.getDB(tx)
	var answers []*models.AttemptAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt answers: %w", err)
	}
	return answers, nil
}

func (ar *AnswerPostgreSQL) DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	db := ar.getDB(tx)
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Delete(&models.AttemptAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete attempt answers: %w", err)
	}

	ar.cacheManager.Fast.Delete(ctx, fmt.Sprintf("attempt:%d:answers", attemptID))
	return nil
}

func (ar *AnswerPostgreSQL) CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error) {
	db := ar.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.AttemptAnswer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}
