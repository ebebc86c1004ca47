package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edustack/quiz-service/internal/config"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/services"
	"github.com/edustack/quiz-service/internal/utils"
	"github.com/edustack/quiz-service/internal/validator"
)

type HandlerManager struct {
	quizHandler      *QuizHandler
	attemptHandler   *AttemptHandler
	dashboardHandler *DashboardHandler
	authMiddleware   *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		quizHandler:      NewQuizHandler(serviceManager.Quiz(), validator, logger),
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), serviceManager.Export(), logger),
		authMiddleware:   authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			// Authoring - instructors and admins only
			quizzes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/unpublish", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.UnpublishQuiz)

			// Question management - instructors and admins only
			quizzes.POST("/:id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.AddQuestion)
			quizzes.DELETE("/:id/questions/:question_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.RemoveQuestion)

			// Reads - all authenticated users; drafts filtered per role in the service
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/details", hm.quizHandler.GetQuizWithDetails)

			// Stats - instructors and admins only
			quizzes.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.GetQuizStats)
			quizzes.GET("/creator/:creator_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.GetQuizzesByCreator)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/details", hm.attemptHandler.GetAttemptWithDetails)
			attempts.PUT("/:id/answers", hm.attemptHandler.RecordAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.DELETE("/:id", hm.attemptHandler.AbandonAttempt)

			// Quiz-specific routes
			attempts.GET("/current/:quiz_id", hm.attemptHandler.GetCurrentAttempt)
			attempts.GET("/quiz/:quiz_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.attemptHandler.GetAttemptsByQuiz)

			// Student-specific routes - instructors and admins only
			attempts.GET("/student/:student_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.attemptHandler.GetAttemptsByStudent)
		}

		// Dashboard routes - instructors and admins only
		dashboard := v1.Group("/dashboard")
		dashboard.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin))
		{
			dashboard.GET("/summary", hm.dashboardHandler.GetSummary)
			dashboard.GET("/quizzes/:quiz_id", hm.dashboardHandler.GetQuizDashboard)
			dashboard.GET("/quizzes/:quiz_id/export", hm.dashboardHandler.ExportQuizResults)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
