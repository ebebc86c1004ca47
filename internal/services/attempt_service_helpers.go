package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
)

// attemptExpired reports whether the quiz's time limit has elapsed for
// the attempt. A zero limit means untimed.
func attemptExpired(attempt *models.QuizAttempt, quiz *models.Quiz, now time.Time) bool {
	if quiz.TimeLimit <= 0 {
		return false
	}
	deadline := attempt.StartedAt.Add(time.Duration(quiz.TimeLimit) * time.Minute)
	return now.After(deadline)
}

// ===== PERMISSION HELPERS =====

func (s *attemptService) getUserRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return user.Role, nil
}

// checkAttemptAccess allows the attempt owner, the owning quiz's creator
// and admins.
func (s *attemptService) checkAttemptAccess(ctx context.Context, attempt *models.QuizAttempt, userID, action string) error {
	if attempt.StudentID == userID {
		return nil
	}

	userRole, err := s.getUserRole(ctx, userID)
	if err != nil {
		return err
	}
	if userRole == models.RoleAdmin {
		return nil
	}

	if userRole == models.RoleInstructor {
		quiz, err := s.repo.Quiz().GetByID(ctx, nil, attempt.QuizID)
		if err == nil && quiz.CreatedBy == userID {
			return nil
		}
	}

	return NewPermissionError(userID, attempt.ID, "attempt", action, "not owner or insufficient permissions")
}

// checkForcedSubmit allows admins and the owning quiz's creator to
// finalize a student's attempt, typically on time limit expiry.
func (s *attemptService) checkForcedSubmit(ctx context.Context, txRepo repositories.Repository, attempt *models.QuizAttempt, userID string) error {
	user, err := txRepo.User().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user role: %w", err)
	}
	if user.Role == models.RoleAdmin {
		return nil
	}

	if user.Role == models.RoleInstructor {
		quiz, err := txRepo.Quiz().GetByID(ctx, nil, attempt.QuizID)
		if err == nil && quiz.CreatedBy == userID {
			return nil
		}
	}

	return NewPermissionError(userID, attempt.ID, "attempt", "submit", "not owner or insufficient permissions")
}

// checkQuizAccess allows the quiz creator and admins.
func (s *attemptService) checkQuizAccess(ctx context.Context, quizID uint, userID, action string) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.CreatedBy == userID {
		return nil
	}

	userRole, err := s.getUserRole(ctx, userID)
	if err != nil {
		return err
	}
	if userRole == models.RoleAdmin {
		return nil
	}

	return NewPermissionError(userID, quizID, "quiz", action, "not owner or insufficient permissions")
}

// ===== RESPONSE BUILDING =====

// buildAttemptResponse maps an attempt to its API shape. Answer grading
// (correctness, per-answer points, the correct option) is exposed only
// once the attempt is completed; an in-progress attempt shows the
// selections alone.
func (s *attemptService) buildAttemptResponse(attempt *models.QuizAttempt, includeAnswers bool) *AttemptResponse {
	response := &AttemptResponse{
		ID:              attempt.ID,
		QuizID:          attempt.QuizID,
		QuizTitle:       attempt.Quiz.Title,
		StudentID:       attempt.StudentID,
		Status:          attempt.Status,
		StartedAt:       attempt.StartedAt,
		SubmittedAt:     attempt.SubmittedAt,
		DurationSeconds: attempt.DurationSeconds,
		Score:           attempt.Score,
		PointsEarned:    attempt.PointsEarned,
		TotalPoints:     attempt.TotalPoints,
		AnsweredCount:   len(attempt.Answers),
	}

	if !includeAnswers {
		return response
	}

	questionsByID := make(map[uint]*models.Question, len(attempt.Quiz.Questions))
	for i := range attempt.Quiz.Questions {
		questionsByID[attempt.Quiz.Questions[i].ID] = &attempt.Quiz.Questions[i]
	}

	revealGrading := attempt.Status == models.AttemptCompleted
	response.Answers = make([]AnswerResponse, len(attempt.Answers))
	for i, a := range attempt.Answers {
		answer := AnswerResponse{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.SelectedOptionID,
			AnsweredAt:       a.AnsweredAt,
		}
		if question, ok := questionsByID[a.QuestionID]; ok {
			answer.QuestionText = question.Text
			answer.QuestionPoints = question.Points
		}
		if revealGrading {
			isCorrect := a.IsCorrect
			pointsEarned := a.PointsEarned
			answer.IsCorrect = &isCorrect
			answer.PointsEarned = &pointsEarned
			if question, ok := questionsByID[a.QuestionID]; ok {
				answer.CorrectOptionID = correctOptionID(question)
			}
		}
		response.Answers[i] = answer
	}

	return response
}

func correctOptionID(question *models.Question) *uint {
	for i := range question.Options {
		if question.Options[i].IsCorrect {
			return &question.Options[i].ID
		}
	}
	return nil
}

// ===== EVENTS =====

// publishEvent publishes best-effort: a broker outage never fails the
// user-facing operation.
func (s *attemptService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", eventType,
			"error", err)
	}
}
