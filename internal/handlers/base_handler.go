package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edustack/quiz-service/internal/utils"
)

// BaseHandler carries shared helpers for all HTTP handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the standard success payload for operations
// without a dedicated response body
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	logger := utils.FromContext(c.Request.Context(), h.logger)
	logger.Info(msg, args...)
}

func (h BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	logger := utils.FromContext(c.Request.Context(), h.logger)
	logger.Error(msg, append(args, "error", err)...)
}

// parseIDParam parses a numeric path parameter; on failure it writes a
// 400 response and returns 0.
func (h BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ParseStringIDParam parses a string path parameter; on failure it
// writes a 400 response and returns "".
func ParseStringIDParam(c *gin.Context, param string) string {
	value := strings.TrimSpace(c.Param(param))
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return ""
	}
	return value
}

func paginatedResponse(data interface{}, total int64, limit, offset int) map[string]interface{} {
	page := (offset / max(limit, 1)) + 1
	totalPages := (int(total) + limit - 1) / max(limit, 1)
	return map[string]interface{}{
		"data":        data,
		"total":       total,
		"page":        page,
		"size":        limit,
		"total_pages": totalPages,
	}
}
