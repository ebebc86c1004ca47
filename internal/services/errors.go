package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to handlers, mapped there onto HTTP statuses.
var (
	// Quiz catalog
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotPublished = errors.New("quiz is not published")
	ErrQuizHasAttempts  = errors.New("quiz has existing attempts")
	ErrQuestionNotFound = errors.New("question not found")
	ErrOptionNotFound   = errors.New("option not found")
	ErrOptionMismatch   = errors.New("option does not belong to question")

	// Attempt lifecycle
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrActiveAttemptExists = errors.New("student already has an in-progress attempt for this quiz")
	ErrAttemptNotActive    = errors.New("attempt is not in progress")
	ErrAttemptCompleted    = errors.New("attempt is already completed")
	ErrAttemptTimeExpired  = errors.New("attempt time limit has expired")
	ErrQuestionNotInQuiz   = errors.New("question does not belong to quiz")

	// Users
	ErrUserNotFound = errors.New("user not found")
)

// PermissionError carries who tried what on which resource
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ValidationError reports a single invalid field
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsPermissionError reports whether err is a permission failure
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
