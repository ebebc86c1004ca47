package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/services"
	"github.com/edustack/quiz-service/internal/utils"
	"github.com/edustack/quiz-service/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
	validator   *validator.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
		validator:   validator,
	}
}

// CreateQuiz creates a new quiz
// @Summary Create quiz
// @Description Creates a new quiz draft, optionally with an initial question set
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body validator.QuizCreateRequest true "Quiz data"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	h.LogRequest(c, "Creating quiz")

	var req validator.QuizCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// UpdateQuiz updates quiz metadata (and, pre-publication, its questions)
// @Summary Update quiz
// @Description Updates quiz fields; question replacement is only allowed before publication
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param quiz body validator.QuizUpdateRequest true "Quiz data"
// @Success 200 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating quiz", "quiz_id", id)

	var req validator.QuizUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), id, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz deletes a quiz
// @Summary Delete quiz
// @Description Deletes a quiz; rejected once the quiz has recorded attempts
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz deleted",
	})
}

// PublishQuiz publishes a quiz
// @Summary Publish quiz
// @Description Makes a quiz visible to students; requires at least one question
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/publish [post]
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Publishing quiz", "quiz_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.Publish(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz published",
	})
}

// UnpublishQuiz withdraws a quiz from the catalog
// @Summary Unpublish quiz
// @Description Hides a quiz from students; existing attempts are unaffected
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/unpublish [post]
func (h *QuizHandler) UnpublishQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Unpublishing quiz", "quiz_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.Unpublish(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz unpublished",
	})
}

// AddQuestion adds a question to a draft quiz
// @Summary Add question
// @Description Adds a question to a quiz; rejected once the quiz is published
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param question body validator.QuestionCreateRequest true "Question data"
// @Success 201 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Adding question", "quiz_id", quizID)

	var req validator.QuestionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	question, err := h.quizService.AddQuestion(c.Request.Context(), quizID, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// RemoveQuestion removes a question from a draft quiz
// @Summary Remove question
// @Description Removes a question from a quiz; rejected once the quiz is published
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/questions/{question_id} [delete]
func (h *QuizHandler) RemoveQuestion(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	h.LogRequest(c, "Removing question", "quiz_id", quizID, "question_id", questionID)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.RemoveQuestion(c.Request.Context(), quizID, questionID, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question removed",
	})
}

// GetQuiz retrieves a quiz by ID
// @Summary Get quiz
// @Description Retrieves a quiz; drafts are only visible to their creator and admins
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz", "quiz_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetQuizWithDetails retrieves a quiz with its questions
// @Summary Get quiz with details
// @Description Retrieves a quiz with its full question set; the answer key is only included for the creator and admins
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/details [get]
func (h *QuizHandler) GetQuizWithDetails(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz with details", "quiz_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	quiz, err := h.quizService.GetByIDWithDetails(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes lists quizzes with filters
// @Summary List quizzes
// @Description Lists quizzes; students only see published ones
// @Tags quizzes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Param published query bool false "Publication filter"
// @Success 200 {object} map[string]interface{}
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	h.LogRequest(c, "Listing quizzes")

	filters := h.parseQuizFilters(c)
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	quizzes, total, err := h.quizService.List(c.Request.Context(), filters, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(quizzes, total, filters.Limit, filters.Offset))
}

// GetQuizzesByCreator lists quizzes authored by a creator
// @Summary Get quizzes by creator
// @Description Lists quizzes authored by a specific creator
// @Tags quizzes
// @Produce json
// @Param creator_id path string true "Creator ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/creator/{creator_id} [get]
func (h *QuizHandler) GetQuizzesByCreator(c *gin.Context) {
	creatorID := ParseStringIDParam(c, "creator_id")
	if creatorID == "" {
		return
	}

	h.LogRequest(c, "Getting quizzes by creator", "creator_id", creatorID)

	filters := h.parseQuizFilters(c)
	quizzes, total, err := h.quizService.GetByCreator(c.Request.Context(), creatorID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(quizzes, total, filters.Limit, filters.Offset))
}

// GetQuizStats retrieves attempt statistics for a quiz
// @Summary Get quiz statistics
// @Description Retrieves aggregate attempt statistics for a quiz
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} repositories.QuizStats
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/stats [get]
func (h *QuizHandler) GetQuizStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz stats", "quiz_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	stats, err := h.quizService.GetStats(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *QuizHandler) parseQuizFilters(c *gin.Context) repositories.QuizFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.QuizFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if published := c.Query("published"); published != "" {
		value := published == "true"
		filters.Published = &value
	}

	if createdBy := strings.TrimSpace(c.Query("created_by")); createdBy != "" {
		filters.CreatedBy = &createdBy
	}

	if sortBy := c.Query("sort_by"); sortBy != "" {
		filters.SortBy = sortBy
	}
	if sortOrder := c.Query("sort_order"); sortOrder != "" {
		filters.SortOrder = sortOrder
	}

	return filters
}
