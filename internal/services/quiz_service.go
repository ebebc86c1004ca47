package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/edustack/quiz-service/internal/events"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuizService {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== AUTHORING =====

func (s *quizService) Create(ctx context.Context, req *validator.QuizCreateRequest, creatorID string) (*QuizResponse, error) {
	s.logger.Info("Creating quiz",
		"title", req.Title,
		"creator_id", creatorID,
		"questions", len(req.Questions))

	if errs := s.validator.GetBusinessValidator().ValidateQuizCreate(req); len(errs) > 0 {
		return nil, errs
	}

	// Only instructors and admins author quizzes
	if err := s.requireAuthorRole(ctx, creatorID, "create"); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
		IsPublished: false,
		CreatedBy:   creatorID,
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Quiz().Create(ctx, nil, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}

		for i, qReq := range req.Questions {
			question := buildQuestion(quiz.ID, i+1, &qReq)
			if err := txRepo.Question().Create(ctx, nil, question); err != nil {
				return fmt.Errorf("failed to create question %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "creator_id", creatorID)

	return s.GetByIDWithDetails(ctx, quiz.ID, creatorID)
}

func (s *quizService) Update(ctx context.Context, id uint, req *validator.QuizUpdateRequest, userID string) (*QuizResponse, error) {
	quiz, err := s.getOwnedQuiz(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateQuizUpdate(req, quiz); len(errs) > 0 {
		return nil, errs
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Quiz().Update(ctx, nil, quiz); err != nil {
			return fmt.Errorf("failed to update quiz: %w", err)
		}

		// Replacing the question set is only allowed pre-publication;
		// the validator rejects it otherwise.
		if len(req.Questions) > 0 {
			existing, err := txRepo.Question().GetByQuiz(ctx, nil, id)
			if err != nil {
				return fmt.Errorf("failed to get existing questions: %w", err)
			}
			for _, q := range existing {
				if err := txRepo.Question().Delete(ctx, nil, q.ID); err != nil {
					return fmt.Errorf("failed to delete question %d: %w", q.ID, err)
				}
			}
			for i, qReq := range req.Questions {
				question := buildQuestion(id, i+1, &qReq)
				if err := txRepo.Question().Create(ctx, nil, question); err != nil {
					return fmt.Errorf("failed to create question %d: %w", i+1, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "user_id", userID)

	return s.GetByIDWithDetails(ctx, id, userID)
}

func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.getOwnedQuiz(ctx, id, userID, "delete"); err != nil {
		return err
	}

	stats, err := s.repo.Quiz().GetStats(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to get quiz stats: %w", err)
	}
	if errs := s.validator.GetBusinessValidator().ValidateDeletePermission(stats.TotalAttempts > 0); len(errs) > 0 {
		return ErrQuizHasAttempts
	}

	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id, "user_id", userID)
	return nil
}

// ===== PUBLICATION =====

func (s *quizService) Publish(ctx context.Context, id uint, userID string) error {
	quiz, err := s.getOwnedQuiz(ctx, id, userID, "publish")
	if err != nil {
		return err
	}

	count, err := s.repo.Question().CountByQuiz(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if errs := s.validator.GetBusinessValidator().ValidatePublish(int(count)); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Quiz().SetPublished(ctx, nil, id, true); err != nil {
		return fmt.Errorf("failed to publish quiz: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.EventQuizPublished, events.QuizPublishedEvent{
		QuizID:    id,
		CreatedBy: quiz.CreatedBy,
		Title:     quiz.Title,
	}); err != nil {
		s.logger.Error("Failed to publish event", "event_type", events.EventQuizPublished, "error", err)
	}

	s.logger.Info("Quiz published", "quiz_id", id, "user_id", userID)
	return nil
}

func (s *quizService) Unpublish(ctx context.Context, id uint, userID string) error {
	if _, err := s.getOwnedQuiz(ctx, id, userID, "unpublish"); err != nil {
		return err
	}

	if err := s.repo.Quiz().SetPublished(ctx, nil, id, false); err != nil {
		return fmt.Errorf("failed to unpublish quiz: %w", err)
	}

	s.logger.Info("Quiz unpublished", "quiz_id", id, "user_id", userID)
	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, req *validator.QuestionCreateRequest, userID string) (*QuestionResponse, error) {
	quiz, err := s.getOwnedQuiz(ctx, quizID, userID, "add_question")
	if err != nil {
		return nil, err
	}

	// Published quizzes keep a stable question set
	if quiz.IsPublished {
		return nil, NewValidationError("quiz", "cannot add questions to a published quiz", quizID)
	}

	if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	count, err := s.repo.Question().CountByQuiz(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	question := buildQuestion(quizID, int(count)+1, req)
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question added", "quiz_id", quizID, "question_id", question.ID)

	response := buildQuestionResponse(question, true)
	return &response, nil
}

func (s *quizService) RemoveQuestion(ctx context.Context, quizID, questionID uint, userID string) error {
	quiz, err := s.getOwnedQuiz(ctx, quizID, userID, "remove_question")
	if err != nil {
		return err
	}

	if quiz.IsPublished {
		return NewValidationError("quiz", "cannot remove questions from a published quiz", quizID)
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return ErrQuestionNotInQuiz
	}

	if err := s.repo.Question().Delete(ctx, nil, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question removed", "quiz_id", quizID, "question_id", questionID)
	return nil
}

// ===== READ OPERATIONS =====

func (s *quizService) GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.checkReadAccess(ctx, quiz, userID); err != nil {
		return nil, err
	}

	return buildQuizResponse(quiz, false, false), nil
}

func (s *quizService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz with details: %w", err)
	}

	if err := s.checkReadAccess(ctx, quiz, userID); err != nil {
		return nil, err
	}

	// The creator and admins see the answer key; students never do
	revealCorrect := quiz.CreatedBy == userID
	if !revealCorrect {
		if role, err := s.getUserRole(ctx, userID); err == nil && role == models.RoleAdmin {
			revealCorrect = true
		}
	}

	return buildQuizResponse(quiz, true, revealCorrect), nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters, userID string) ([]*QuizResponse, int64, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	// Students browse the published catalog only
	if role == models.RoleStudent {
		published := true
		filters.Published = &published
	}

	quizzes, total, err := s.repo.Quiz().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}

	responses := make([]*QuizResponse, len(quizzes))
	for i, quiz := range quizzes {
		responses[i] = buildQuizResponse(quiz, false, false)
	}

	return responses, total, nil
}

func (s *quizService) GetByCreator(ctx context.Context, creatorID string, filters repositories.QuizFilters) ([]*QuizResponse, int64, error) {
	quizzes, total, err := s.repo.Quiz().GetByCreator(ctx, nil, creatorID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get quizzes by creator: %w", err)
	}

	responses := make([]*QuizResponse, len(quizzes))
	for i, quiz := range quizzes {
		responses[i] = buildQuizResponse(quiz, false, false)
	}

	return responses, total, nil
}

func (s *quizService) GetStats(ctx context.Context, id uint, userID string) (*repositories.QuizStats, error) {
	if _, err := s.getOwnedQuiz(ctx, id, userID, "view_stats"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Quiz().GetStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}

	return stats, nil
}
