package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/edustack/quiz-service/internal/events"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	// injectable clock
	now func() time.Time
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AttemptService {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting quiz attempt",
		"quiz_id", req.QuizID,
		"student_id", studentID)

	// Validate request
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Get quiz with questions to snapshot the total weight
	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	// Only published quizzes accept attempts
	if !quiz.IsPublished {
		return nil, ErrQuizNotPublished
	}

	// Reject when an in-progress attempt already exists
	hasActive, err := s.repo.Attempt().HasActiveAttempt(ctx, nil, studentID, req.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if hasActive {
		return nil, ErrActiveAttemptExists
	}

	attempt := &models.QuizAttempt{
		QuizID:      req.QuizID,
		StudentID:   studentID,
		Status:      models.AttemptInProgress,
		StartedAt:   s.now(),
		TotalPoints: quiz.TotalPoints,
		SessionData: req.SessionData,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Attempt().Create(ctx, nil, attempt)
	})
	if err != nil {
		// The partial unique index closes the check-then-create race: a
		// concurrent start wins and this one surfaces as a conflict.
		if repositories.IsDuplicateError(err) {
			return nil, ErrActiveAttemptExists
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.publishEvent(ctx, events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		StudentID: attempt.StudentID,
	})

	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", req.QuizID,
		"student_id", studentID,
		"total_points", attempt.TotalPoints)

	response := s.buildAttemptResponse(attempt, false)
	response.QuizTitle = quiz.Title
	return response, nil
}

func (s *attemptService) RecordAnswer(ctx context.Context, attemptID uint, req *RecordAnswerRequest, studentID string) (*AnswerResponse, error) {
	// Validate request
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var answer *models.AttemptAnswer
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Lock the attempt row so a concurrent submit cannot finalize while
		// this answer lands.
		attempt, err := txRepo.Attempt().GetByIDForUpdate(ctx, nil, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}

		if attempt.StudentID != studentID {
			return NewPermissionError(studentID, attemptID, "attempt", "record_answer", "not owned by student")
		}

		if attempt.Status != models.AttemptInProgress {
			return ErrAttemptNotActive
		}

		// No answers land past the quiz's time limit. Submission stays
		// open so an expired attempt can always be finalized.
		quiz, err := txRepo.Quiz().GetByID(ctx, nil, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if attemptExpired(attempt, quiz, s.now()) {
			return ErrAttemptTimeExpired
		}

		question, err := txRepo.Question().GetByID(ctx, nil, req.QuestionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if question.QuizID != attempt.QuizID {
			return ErrQuestionNotInQuiz
		}

		// A non-nil selection must name an option of this question
		if req.SelectedOptionID != nil {
			option, err := txRepo.Question().GetOption(ctx, nil, *req.SelectedOptionID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return ErrOptionNotFound
				}
				return fmt.Errorf("failed to get option: %w", err)
			}
			if option.QuestionID != question.ID {
				return ErrOptionMismatch
			}
		}

		isCorrect, pointsEarned := false, 0
		correct, err := txRepo.Question().GetCorrectOption(ctx, nil, question.ID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get correct option: %w", err)
			}
			// No correct option on record: grade as incorrect
			s.logger.Warn("Question has no correct option", "question_id", question.ID)
		} else {
			isCorrect, pointsEarned = GradeSelection(req.SelectedOptionID, correct.ID, question.Points)
		}

		answer = &models.AttemptAnswer{
			AttemptID:        attemptID,
			QuestionID:       question.ID,
			SelectedOptionID: req.SelectedOptionID,
			IsCorrect:        isCorrect,
			PointsEarned:     pointsEarned,
			AnsweredAt:       s.now(),
		}

		// Re-answering the same question overwrites the previous row
		if err := txRepo.Answer().Upsert(ctx, nil, answer); err != nil {
			return fmt.Errorf("failed to upsert answer: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Answer recorded",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"skipped", req.SelectedOptionID == nil)

	// Grading stays hidden until the attempt completes
	return &AnswerResponse{
		QuestionID:       answer.QuestionID,
		SelectedOptionID: answer.SelectedOptionID,
		AnsweredAt:       answer.AnsweredAt,
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Submitting quiz attempt",
		"attempt_id", attemptID,
		"student_id", studentID)

	var completed events.AttemptCompletedEvent
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Lock the attempt so concurrent answer writes and double submits
		// serialize against the finalization.
		attempt, err := txRepo.Attempt().GetByIDForUpdate(ctx, nil, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}

		// Owners submit their own runs; the quiz owner and admins may
		// force-submit on a student's behalf (time limit expiry).
		if attempt.StudentID != studentID {
			if err := s.checkForcedSubmit(ctx, txRepo, attempt, studentID); err != nil {
				return err
			}
		}

		if attempt.Status == models.AttemptCompleted {
			return ErrAttemptCompleted
		}

		answers, err := txRepo.Answer().GetByAttempt(ctx, nil, attemptID)
		if err != nil {
			return fmt.Errorf("failed to get attempt answers: %w", err)
		}

		results := make([]AnswerResult, len(answers))
		for i, a := range answers {
			results[i] = AnswerResult{
				QuestionID:   a.QuestionID,
				IsCorrect:    a.IsCorrect,
				PointsEarned: a.PointsEarned,
			}
		}

		// The denominator is the TotalPoints snapshot taken at start, so
		// question edits made while the attempt was open never shift an
		// in-flight score.
		totalPoints := attempt.TotalPoints
		pointsEarned, percent := ComputeScore(results, totalPoints)

		submittedAt := s.now()
		durationSeconds := int(submittedAt.Sub(attempt.StartedAt).Seconds())

		if err := txRepo.Attempt().Complete(ctx, nil, attemptID, submittedAt, durationSeconds, percent, pointsEarned, totalPoints); err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}

		completed = events.AttemptCompletedEvent{
			AttemptID:       attemptID,
			QuizID:          attempt.QuizID,
			StudentID:       attempt.StudentID,
			Score:           percent,
			PointsEarned:    pointsEarned,
			TotalPoints:     totalPoints,
			DurationSeconds: durationSeconds,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Publish only after the transaction committed
	s.publishEvent(ctx, events.EventAttemptCompleted, completed)

	s.logger.Info("Quiz attempt submitted",
		"attempt_id", attemptID,
		"score", completed.Score,
		"points_earned", completed.PointsEarned,
		"total_points", completed.TotalPoints)

	return s.GetByIDWithDetails(ctx, attemptID, studentID)
}

func (s *attemptService) Abandon(ctx context.Context, attemptID uint, studentID string) error {
	s.logger.Info("Abandoning quiz attempt",
		"attempt_id", attemptID,
		"student_id", studentID)

	var abandoned events.AttemptAbandonedEvent
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		attempt, err := txRepo.Attempt().GetByIDForUpdate(ctx, nil, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}

		if attempt.StudentID != studentID {
			return NewPermissionError(studentID, attemptID, "attempt", "abandon", "not owned by student")
		}

		// Completed attempts are immutable
		if attempt.Status != models.AttemptInProgress {
			return ErrAttemptNotActive
		}

		// Abandon discards the run entirely: answers first, then the attempt
		if err := txRepo.Answer().DeleteByAttempt(ctx, nil, attemptID); err != nil {
			return fmt.Errorf("failed to delete attempt answers: %w", err)
		}
		if err := txRepo.Attempt().Delete(ctx, nil, attemptID); err != nil {
			return fmt.Errorf("failed to delete attempt: %w", err)
		}

		abandoned = events.AttemptAbandonedEvent{
			AttemptID: attemptID,
			QuizID:    attempt.QuizID,
			StudentID: attempt.StudentID,
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, events.EventAttemptAbandoned, abandoned)

	s.logger.Info("Quiz attempt abandoned", "attempt_id", attemptID)
	return nil
}

// ===== GET OPERATIONS =====

func (s *attemptService) GetByID(ctx context.Context, id uint, userID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if err := s.checkAttemptAccess(ctx, attempt, userID, "read"); err != nil {
		return nil, err
	}

	return s.buildAttemptResponse(attempt, false), nil
}

func (s *attemptService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt with details: %w", err)
	}

	if err := s.checkAttemptAccess(ctx, attempt, userID, "read"); err != nil {
		return nil, err
	}

	response := s.buildAttemptResponse(attempt, true)
	response.QuizTitle = attempt.Quiz.Title
	return response, nil
}

func (s *attemptService) GetCurrentAttempt(ctx context.Context, quizID uint, studentID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, studentID, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get current attempt: %w", err)
	}

	return s.buildAttemptResponse(attempt, false), nil
}

// ===== LIST OPERATIONS =====

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters, userID string) ([]*AttemptResponse, int64, error) {
	userRole, err := s.getUserRole(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	// Students only ever see their own attempts
	if userRole == models.RoleStudent {
		filters.StudentID = &userID
	}

	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	responses := make([]*AttemptResponse, len(attempts))
	for i, attempt := range attempts {
		responses[i] = s.buildAttemptResponse(attempt, false)
	}

	return responses, total, nil
}

func (s *attemptService) GetByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*AttemptResponse, int64, error) {
	filters.StudentID = &studentID

	attempts, total, err := s.repo.Attempt().GetByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get attempts by student: %w", err)
	}

	responses := make([]*AttemptResponse, len(attempts))
	for i, attempt := range attempts {
		responses[i] = s.buildAttemptResponse(attempt, false)
	}

	return responses, total, nil
}

func (s *attemptService) GetByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters, userID string) ([]*AttemptResponse, int64, error) {
	// Only the quiz owner or an admin can read a quiz's attempt list
	if err := s.checkQuizAccess(ctx, quizID, userID, "view_attempts"); err != nil {
		return nil, 0, err
	}

	attempts, total, err := s.repo.Attempt().GetByQuiz(ctx, nil, quizID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get attempts by quiz: %w", err)
	}

	responses := make([]*AttemptResponse, len(attempts))
	for i, attempt := range attempts {
		responses[i] = s.buildAttemptResponse(attempt, false)
	}

	return responses, total, nil
}
