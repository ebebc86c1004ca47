package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/edustack/quiz-service/internal/cache"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := db.WithContext(ctx).First(&dbQuiz, id).Error; err != nil {
			return nil, err
		}
		return &dbQuiz, nil
	})

	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return nil, err
	}

	quiz.QuestionsCount = len(quiz.Questions)
	for _, question := range quiz.Questions {
		quiz.TotalPoints += question.Points
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(quiz).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.ID, quiz.CreatedBy)
	return nil
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Quiz{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, id, "")
	return nil
}

func (q *QuizPostgreSQL) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("is_published", published).Error; err != nil {
		return fmt.Errorf("failed to update publication state: %w", err)
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, id, "")
	return nil
}

func (q *QuizPostgreSQL) GetPublicationState(ctx context.Context, tx *gorm.DB, id uint) (bool, bool, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	err := db.WithContext(ctx).Select("id, is_published").First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get publication state: %w", err)
	}
	return true, quiz.IsPublished, nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := q.getDB(tx)
	var quizzes []*models.Quiz
	var total int64

	query := db.WithContext(ctx).Model(&models.Quiz{})
	query = q.helpers.ApplyQuizFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Preload("Creator").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CreatedBy = &creatorID
	return q.List(ctx, tx, filters)
}

func (q *QuizPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.QuizStats, error) {
	db := q.getDB(tx)
	stats := &repositories.QuizStats{}

	var total, completed int64
	if err := db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ?", id).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if err := db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND status = ?", id, models.AttemptCompleted).
		Count(&completed).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed attempts: %w", err)
	}
	stats.TotalAttempts = int(total)
	stats.CompletedAttempts = int(completed)

	if completed > 0 {
		row := db.WithContext(ctx).
			Model(&models.QuizAttempt{}).
			Select("COALESCE(AVG(score), 0), COALESCE(AVG(duration_seconds), 0)").
			Where("quiz_id = ? AND status = ?", id, models.AttemptCompleted).
			Row()
		var avgScore, avgDuration float64
		if err := row.Scan(&avgScore, &avgDuration); err != nil {
			return nil, fmt.Errorf("failed to aggregate scores: %w", err)
		}
		stats.AverageScore = avgScore
		stats.AverageDuration = int(avgDuration)
	}

	var questionCount int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", id).
		Count(&questionCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	stats.QuestionCount = int(questionCount)

	var totalPoints int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select("COALESCE(SUM(points), 0)").
		Where("quiz_id = ?", id).
		Scan(&totalPoints).Error; err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}
	stats.TotalPoints = int(totalPoints)

	return stats, nil
}

// ===== QUESTION REPOSITORY IMPLEMENTATION =====

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := r.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}
	return nil
}

func (r *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := r.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	cache.InvalidateQuizCache(ctx, r.cacheManager, question.QuizID, "")
	return nil
}

func (r *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (r *QuestionPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error) {
	db := r.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}
	return questions, nil
}

func (r *QuestionPostgreSQL) CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (r *QuestionPostgreSQL) SumPointsByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	db := r.getDB(tx)
	var total int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select("COALESCE(SUM(points), 0)").
		Where("quiz_id = ?", quizID).
		Scan(&total).Error
	return int(total), err
}

func (r *QuestionPostgreSQL) GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.QuestionOption, error) {
	db := r.getDB(tx)
	var option models.QuestionOption
	if err := db.WithContext(ctx).First(&option, optionID).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

func (r *QuestionPostgreSQL) GetCorrectOption(ctx context.Context, tx *gorm.DB, questionID uint) (*models.QuestionOption, error) {
	db := r.getDB(tx)
	var option models.QuestionOption
	if err := db.WithContext(ctx).
		Where("question_id = ? AND is_correct = ?", questionID, true).
		First(&option).Error; err != nil {
		return nil, err
	}
	return &option, nil
}
