package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/handler"
	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/response"
	"github.com/prepdesk/prepdesk-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Catalog  *handler.CatalogHandler
	Exam     *handler.ExamHandler
	Question *handler.QuestionHandler
	Session  *handler.SessionHandler
	History  *handler.HistoryHandler
	Comment  *handler.CommentHandler
	Media    *handler.MediaHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded media files statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/google", handlers.Auth.GoogleLogin)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// ─── 2. Authenticated API ──────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(authService))
	{
		// Profiles
		api.GET("/users/my-profile", handlers.User.GetMyProfile)
		api.PUT("/users/my-profile", handlers.User.UpdateMyProfile)
		api.GET("/users/:id/profile", handlers.User.GetUserProfile)

		// Catalog
		api.GET("/subjects", handlers.Catalog.ListSubjects)
		api.GET("/subjects/:id", handlers.Catalog.GetSubject)
		api.GET("/subjects/:id/lessons", handlers.Catalog.ListLessons)
		api.GET("/lessons/:id", handlers.Catalog.GetLesson)

		// Exams
		api.GET("/exams", handlers.Exam.ListExams)
		api.GET("/exams/:exam_id", handlers.Exam.GetExam)
		api.GET("/exams/:exam_id/questions/detail", handlers.Exam.GetExamPayload)

		// Live session
		api.POST("/exams/:exam_id/session/start", handlers.Session.StartSession)
		api.GET("/exams/:exam_id/session", handlers.Session.GetSessionState)
		api.PUT("/exams/:exam_id/session/answer", handlers.Session.SetAnswer)
		api.PUT("/exams/:exam_id/session/flag", handlers.Session.ToggleFlag)
		api.PUT("/exams/:exam_id/session/navigate", handlers.Session.Navigate)
		api.POST("/exams/:exam_id/session/submit", handlers.Session.SubmitSession)
		api.POST("/exams/:exam_id/session/reset", handlers.Session.ResetSession)

		// History
		api.POST("/exam-history", handlers.History.SubmitHistory)
		api.GET("/exam-history", handlers.History.ListMyHistory)
		api.GET("/exam-history/:id", handlers.History.GetHistory)

		// Question discussion
		api.GET("/questions/:question_id/comments", handlers.Comment.ListComments)
		api.POST("/question-comments", handlers.Comment.CreateComment)
		api.DELETE("/question-comments/:id", handlers.Comment.DeleteComment)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exams/:exam_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdmin(authService))
	{
		adminAPI.POST("/media/upload", handlers.Media.UploadMedia)

		adminAPI.GET("/users", handlers.User.ListUsers)
		adminAPI.PUT("/users/:id/profile", handlers.User.UpdateUserProfile)

		adminAPI.POST("/subjects", handlers.Catalog.CreateSubject)
		adminAPI.PUT("/subjects/:id", handlers.Catalog.UpdateSubject)
		adminAPI.DELETE("/subjects/:id", handlers.Catalog.DeleteSubject)
		adminAPI.POST("/subjects/:id/lessons", handlers.Catalog.CreateLesson)
		adminAPI.PUT("/lessons/:id", handlers.Catalog.UpdateLesson)
		adminAPI.DELETE("/lessons/:id", handlers.Catalog.DeleteLesson)

		adminAPI.GET("/exams", handlers.Exam.ListExamsAdmin)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		adminAPI.PUT("/exams/:exam_id", handlers.Exam.UpdateExam)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		adminAPI.POST("/exams/:exam_id/publish", handlers.Exam.PublishExam)
		adminAPI.POST("/exams/:exam_id/archive", handlers.Exam.ArchiveExam)

		adminAPI.GET("/exams/:exam_id/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Question.AddQuestion)
		adminAPI.PUT("/exams/:exam_id/questions", handlers.Question.ReplaceQuestions)
		adminAPI.PUT("/questions/:question_id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.DeleteQuestion)
	}

	return router
}
