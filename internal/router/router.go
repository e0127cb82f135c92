package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/handler"
	"github.com/stemsi/course-builder/internal/middleware"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/service"
)

// submitLockTTL bounds how long a crashed submission keeps the admin locked out.
const submitLockTTL = 2 * time.Minute

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Draft      *handler.DraftHandler
	Quiz       *handler.QuizHandler
	Submission *handler.SubmissionHandler
	Media      *handler.MediaHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx stops background helpers such as the rate limiter cleanup.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
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

	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.Brotli())

	// Uploaded media never changes under the same name.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	// Submissions hit the backend several times each; 10 per minute per admin.
	submitLimiter := middleware.NewRateLimiter(ctx, 10, time.Minute)

	// ─── 1. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireAdminWSAuth(authService),
		middleware.RequirePermission(model.PermissionSubmissionsRead),
	)
	{
		ws.GET("/submissions/:id/stream", handlers.WS.SubmissionStream)
	}

	// ─── 2. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		adminAPI.POST("/media/upload",
			middleware.RequirePermission(model.PermissionMediaUpload),
			handlers.Media.UploadMedia,
		)

		// Course wizard draft
		draftAPI := adminAPI.Group("/draft")
		draftAPI.Use(middleware.RequirePermission(model.PermissionCoursesWrite))
		{
			draftAPI.GET("", handlers.Draft.Get)
			draftAPI.DELETE("", handlers.Draft.Reset)
			draftAPI.PUT("/basic-info", handlers.Draft.UpdateBasicInfo)
			draftAPI.POST("/image",
				middleware.RequirePermission(model.PermissionMediaUpload),
				handlers.Draft.UploadImage,
			)
			draftAPI.PUT("/succession-rates", handlers.Draft.SetSuccessionRates)
			draftAPI.PUT("/target-page", handlers.Draft.Navigate)
			draftAPI.GET("/navigation", handlers.Draft.Navigation)
			draftAPI.GET("/validate", handlers.Draft.Validate)

			draftAPI.POST("/sections", handlers.Draft.AddSection)
			draftAPI.POST("/sections/reorder", handlers.Draft.ReorderSections)
			draftAPI.PATCH("/sections/:section_id", handlers.Draft.UpdateSection)
			draftAPI.PUT("/sections/:section_id/title", handlers.Draft.UpdateSectionTitle)
			draftAPI.PUT("/sections/:section_id/editing", handlers.Draft.ToggleEditSection)
			draftAPI.PUT("/active-section", handlers.Draft.SetActiveSection)

			draftAPI.POST("/sections/:section_id/contents", handlers.Draft.AddContent)
			draftAPI.POST("/sections/:section_id/contents/file",
				middleware.RequirePermission(model.PermissionMediaUpload),
				handlers.Draft.AddFileContent,
			)
			draftAPI.POST("/sections/:section_id/contents/reorder", handlers.Draft.ReorderContent)
			draftAPI.PUT("/sections/:section_id/contents/:content_id", handlers.Draft.UpdateContent)
			draftAPI.DELETE("/sections/:section_id/contents/:content_id", handlers.Draft.RemoveContent)
			draftAPI.POST("/sections/:section_id/contents/:content_id/edit", handlers.Draft.OpenContentForEdit)
			draftAPI.PUT("/editing", handlers.Draft.CommitEdit)

			draftAPI.POST("/modals/:kind", handlers.Draft.OpenModal)
			draftAPI.DELETE("/modals/:kind", handlers.Draft.CloseModal)

			draftAPI.POST("/submit",
				middleware.RequirePermission(model.PermissionCoursesSubmit),
				submitLimiter.Middleware(),
				middleware.SingleSubmission(rdb, submitLockTTL),
				handlers.Draft.Submit,
			)
		}

		// Quizzes
		adminAPI.POST("/quizzes/validate",
			middleware.RequirePermission(model.PermissionCoursesWrite),
			handlers.Quiz.Validate,
		)
		adminAPI.POST("/quizzes",
			middleware.RequirePermission(model.PermissionCoursesSubmit),
			submitLimiter.Middleware(),
			middleware.SingleSubmission(rdb, submitLockTTL),
			handlers.Quiz.Submit,
		)

		// Submission ledger
		adminAPI.GET("/submissions",
			middleware.RequirePermission(model.PermissionSubmissionsRead),
			handlers.Submission.List,
		)
		adminAPI.GET("/submissions/:id",
			middleware.RequirePermission(model.PermissionSubmissionsRead),
			handlers.Submission.Get,
		)
	}

	return router
}
