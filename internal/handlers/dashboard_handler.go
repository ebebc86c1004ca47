package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/quiz-service/internal/services"
	"github.com/edustack/quiz-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
	exportService    services.ExportService
}

func NewDashboardHandler(
	dashboardService services.DashboardService,
	exportService services.ExportService,
	logger utils.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
		exportService:    exportService,
	}
}

// GetSummary returns overall activity metrics
// @Summary Get dashboard summary
// @Description Get overview metrics: quizzes, attempts, active students, recent completions
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardSummary
// @Failure 403 {object} ErrorResponse
// @Router /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard summary")

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	summary, err := h.dashboardService.GetSummary(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetQuizDashboard returns per-quiz metrics
// @Summary Get quiz dashboard
// @Description Get attempt statistics and score distribution for one quiz
// @Tags dashboard
// @Produce json
// @Param quiz_id path uint true "Quiz ID"
// @Success 200 {object} services.QuizDashboard
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /dashboard/quizzes/{quiz_id} [get]
func (h *DashboardHandler) GetQuizDashboard(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz dashboard", "quiz_id", quizID)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	dashboard, err := h.dashboardService.GetQuizDashboard(c.Request.Context(), quizID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// ExportQuizResults streams an xlsx export of a quiz's completed attempts
// @Summary Export quiz results
// @Description Downloads the completed attempts of a quiz as an Excel workbook
// @Tags dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param quiz_id path uint true "Quiz ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /dashboard/quizzes/{quiz_id}/export [get]
func (h *DashboardHandler) ExportQuizResults(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", quizID)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	data, err := h.exportService.ExportQuizResults(c.Request.Context(), quizID, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-%d-results.xlsx", quizID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
