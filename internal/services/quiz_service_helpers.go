package services

import (
	"context"
	"fmt"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

// ===== PERMISSION HELPERS =====

func (s *quizService) getUserRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return user.Role, nil
}

func (s *quizService) requireAuthorRole(ctx context.Context, userID, action string) error {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return err
	}
	if role != models.RoleInstructor && role != models.RoleAdmin {
		return NewPermissionError(userID, 0, "quiz", action, "insufficient role permissions")
	}
	return nil
}

// getOwnedQuiz fetches the quiz and verifies the user owns it (or is admin)
func (s *quizService) getOwnedQuiz(ctx context.Context, id uint, userID, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.CreatedBy != userID {
		role, err := s.getUserRole(ctx, userID)
		if err != nil {
			return nil, err
		}
		if role != models.RoleAdmin {
			return nil, NewPermissionError(userID, id, "quiz", action, "not owner or insufficient permissions")
		}
	}

	return quiz, nil
}

// checkReadAccess allows anyone to read a published quiz; drafts are
// visible to their creator and admins only.
func (s *quizService) checkReadAccess(ctx context.Context, quiz *models.Quiz, userID string) error {
	if quiz.IsPublished || quiz.CreatedBy == userID {
		return nil
	}

	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return err
	}
	if role == models.RoleAdmin {
		return nil
	}

	// Draft existence is not leaked to other users
	return ErrQuizNotFound
}

// ===== MODEL/RESPONSE BUILDING =====

func buildQuestion(quizID uint, position int, req *validator.QuestionCreateRequest) *models.Question {
	if req.Position > 0 {
		position = req.Position
	}

	question := &models.Question{
		QuizID:   quizID,
		Text:     req.Text,
		Points:   req.Points,
		Position: position,
		Options:  make([]models.QuestionOption, len(req.Options)),
	}

	for i, opt := range req.Options {
		optPosition := i + 1
		if opt.Position > 0 {
			optPosition = opt.Position
		}
		question.Options[i] = models.QuestionOption{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			Position:  optPosition,
		}
	}

	return question
}

func buildQuestionResponse(question *models.Question, revealCorrect bool) QuestionResponse {
	response := QuestionResponse{
		ID:       question.ID,
		Text:     question.Text,
		Points:   question.Points,
		Position: question.Position,
		Options:  make([]OptionResponse, len(question.Options)),
	}

	for i, opt := range question.Options {
		option := OptionResponse{
			ID:       opt.ID,
			Text:     opt.Text,
			Position: opt.Position,
		}
		if revealCorrect {
			isCorrect := opt.IsCorrect
			option.IsCorrect = &isCorrect
		}
		response.Options[i] = option
	}

	return response
}

func buildQuizResponse(quiz *models.Quiz, includeQuestions, revealCorrect bool) *QuizResponse {
	response := &QuizResponse{
		ID:             quiz.ID,
		Title:          quiz.Title,
		Description:    quiz.Description,
		IsPublished:    quiz.IsPublished,
		TimeLimit:      quiz.TimeLimit,
		CreatedBy:      quiz.CreatedBy,
		QuestionsCount: quiz.QuestionsCount,
		TotalPoints:    quiz.TotalPoints,
		CreatedAt:      quiz.CreatedAt,
		UpdatedAt:      quiz.UpdatedAt,
	}

	if includeQuestions {
		response.Questions = make([]QuestionResponse, len(quiz.Questions))
		for i := range quiz.Questions {
			response.Questions[i] = buildQuestionResponse(&quiz.Questions[i], revealCorrect)
		}
	}

	return response
}
