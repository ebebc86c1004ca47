package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edustack/quiz-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidationError represents a business validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates a struct against business rules
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := bv.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: bv.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateQuizCreate validates quiz creation business rules
func (bv *BusinessValidator) ValidateQuizCreate(req *QuizCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Question and option structure rules
	for i, q := range req.Questions {
		errors = append(errors, bv.validateQuestionRules(fmt.Sprintf("questions[%d]", i), &q)...)
	}

	return errors
}

// ValidateQuizUpdate validates quiz update business rules
func (bv *BusinessValidator) ValidateQuizUpdate(req *QuizUpdateRequest, existing *models.Quiz) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	// Published quizzes keep their structure stable for in-flight attempts
	if existing != nil && existing.IsPublished && len(req.Questions) > 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "cannot replace questions of a published quiz",
			Value:   len(req.Questions),
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateQuestionCreate validates a single question creation request
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateQuestionRules("question", req)...)

	return errors
}

// ValidatePublish validates the conditions for publishing a quiz
func (bv *BusinessValidator) ValidatePublish(questionCount int) ValidationErrors {
	var errors ValidationErrors

	if questionCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "quiz must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateDeletePermission validates if a quiz can be deleted
func (bv *BusinessValidator) ValidateDeletePermission(hasAttempts bool) ValidationErrors {
	var errors ValidationErrors

	if hasAttempts {
		errors = append(errors, ValidationError{
			Field:   "attempts",
			Message: "cannot delete quiz with existing attempts",
			Value:   hasAttempts,
			Rule:    "business_logic",
		})
	}

	return errors
}

// validateQuestionRules validates the option structure of a question
func (bv *BusinessValidator) validateQuestionRules(field string, req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	if len(req.Options) < 2 || len(req.Options) > 6 {
		errors = append(errors, ValidationError{
			Field:   field + ".options",
			Message: "must have between 2 and 6 options",
			Value:   len(req.Options),
			Rule:    "business_logic",
		})
	}

	correctCount := 0
	for i, opt := range req.Options {
		if strings.TrimSpace(opt.Text) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.options[%d].text", field, i),
				Message: "option text cannot be empty",
				Value:   opt.Text,
				Rule:    "business_logic",
			})
		}
		if opt.IsCorrect {
			correctCount++
		}
	}

	if correctCount != 1 {
		errors = append(errors, ValidationError{
			Field:   field + ".options",
			Message: "must have exactly one correct option",
			Value:   correctCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Quiz title validation (1-200 characters)
	bv.validate.RegisterValidation("quiz_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Description validation (max 1000 characters)
	bv.validate.RegisterValidation("quiz_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 1000
	})

	// Time limit validation in minutes, 0 means untimed
	bv.validate.RegisterValidation("time_limit", func(fl validator.FieldLevel) bool {
		timeLimit := fl.Field().Int()
		return timeLimit >= 0 && timeLimit <= 300
	})

	// Points range validation
	bv.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	// Role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		switch models.UserRole(role) {
		case models.RoleStudent, models.RoleInstructor, models.RoleAdmin:
			return true
		}
		return false
	})
}

// getErrorMessage returns user-friendly error messages
func (bv *BusinessValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "quiz_title":
		return "must be between 1 and 200 characters"
	case "quiz_description":
		return "must be at most 1000 characters"
	case "time_limit":
		return "must be between 0 and 300 minutes"
	case "points_range":
		return "must be between 1 and 100"
	case "user_role":
		return "must be one of student, instructor, admin"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
