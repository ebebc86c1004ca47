package pkg

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edustack/quiz-service/internal/config"
	"github.com/edustack/quiz-service/internal/models"
)

// InitDatabase opens the postgres connection, runs migrations and
// installs the constraints the ORM cannot express.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.LogLevel == slog.LevelDebug {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.QuestionOption{},
		&models.QuizAttempt{},
		&models.AttemptAnswer{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// One in-progress attempt per (quiz, student). A partial index keeps
	// completed attempts out of the constraint, so history accumulates
	// freely while concurrent starts collide on insert.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_attempt
		 ON quiz_attempts (quiz_id, student_id)
		 WHERE status = 'in_progress'`,
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create active attempt index: %w", err)
	}

	return db, nil
}
