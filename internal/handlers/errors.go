package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/quiz-service/internal/services"
	"github.com/edustack/quiz-service/internal/validator"
)

// handleServiceError maps service errors onto HTTP status codes
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationError.Message,
			Details: map[string]interface{}{
				"field": validationError.Field,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Attempt not found",
		})
	case errors.Is(err, services.ErrOptionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Answer option not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrQuizNotPublished):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Quiz is not published",
		})
	case errors.Is(err, services.ErrActiveAttemptExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "An attempt is already in progress for this quiz",
		})
	case errors.Is(err, services.ErrAttemptCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt has already been submitted",
		})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt is not active",
		})
	case errors.Is(err, services.ErrAttemptTimeExpired):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt time limit has expired",
		})
	case errors.Is(err, services.ErrQuizHasAttempts):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz has recorded attempts and cannot be deleted",
		})
	case errors.Is(err, services.ErrQuestionNotInQuiz):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Question does not belong to this quiz",
		})
	case errors.Is(err, services.ErrOptionMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Selected option does not belong to the question",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
