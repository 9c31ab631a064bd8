package routes

import (
	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/assistant"
	"vitalmine-server/internal/config"
	"vitalmine-server/internal/feed"
	"vitalmine-server/internal/handlers"
	"vitalmine-server/internal/middleware"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/service"
)

// Dependencies are the collaborators the handlers are built from.
type Dependencies struct {
	Users     repository.UserRepository
	Tokens    repository.TokenRepository
	Readings  repository.ReadingRepository
	Recorder  *service.Recorder
	Trends    *service.Trends
	Assistant *assistant.Service
	Hub       *feed.Hub
	DB        handlers.Pinger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, cfg)
	userHandler := handlers.NewUserHandler(deps.Users)
	readingHandler := handlers.NewReadingHandler(deps.Recorder, deps.Trends, deps.Readings, deps.Users)
	subjectHandler := handlers.NewSubjectHandler(deps.Trends)
	exportHandler := handlers.NewExportHandler(deps.Readings)
	assistantHandler := handlers.NewAssistantHandler(deps.Assistant, deps.Readings)
	streamHandler := handlers.NewStreamHandler(deps.Hub, cfg.Origin)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	staff := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleClinician, models.RoleDataEntry)
	reviewers := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleClinician)
	recorders := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDataEntry, models.RoleSubject)

	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
		}

		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		readingRoutes := private.Group("/readings")
		{
			// Clinicians review but never record.
			readingRoutes.POST("", recorders, readingHandler.RecordReading)
			readingRoutes.GET("", staff, readingHandler.GetWard)
			readingRoutes.GET("/stream", streamHandler.Stream)
			// Subjects are limited to their own readings inside the handler.
			readingRoutes.GET("/:id", readingHandler.GetReading)
			readingRoutes.GET("/:id/pdf", readingHandler.GetReadingPDF)
		}

		subjectRoutes := private.Group("/subjects")
		{
			subjectRoutes.GET("", staff, subjectHandler.GetDirectory)
			subjectRoutes.GET("/me/dashboard", subjectHandler.GetMyDashboard)
			subjectRoutes.GET("/me/series", subjectHandler.GetMySeries)
			subjectRoutes.GET("/:id/dashboard", subjectHandler.GetDashboard)
			subjectRoutes.GET("/:id/series", subjectHandler.GetSeries)
		}

		exportRoutes := private.Group("/exports")
		exportRoutes.Use(reviewers)
		{
			exportRoutes.GET("/readings.csv", exportHandler.ExportCSV)
			exportRoutes.GET("/readings.xlsx", exportHandler.ExportXLSX)
		}

		private.POST("/assistant/ask", assistantHandler.Ask)
	}

	router.GET("/health", healthHandler.Health)
	router.GET("/readyz", healthHandler.Ready)
}
