package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/handler"
	"github.com/talentgate/assessment-backend/internal/metrics"
	"github.com/talentgate/assessment-backend/internal/middleware"
	"github.com/talentgate/assessment-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Candidate  *handler.CandidateHandler
	Assessment *handler.AssessmentHandler
	Result     *handler.ResultHandler
	Feedback   *handler.FeedbackHandler
	Integrity  *handler.IntegrityHandler
	Health     *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(metrics.Middleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Skipper: middleware.SkipPrefixes("/metrics"),
	}))

	// Resumes stored on local disk.
	if cfg.ResumeStore == "" || cfg.ResumeStore == "local" {
		uploadsGroup := router.Group("/uploads")
		uploadsGroup.Use(middleware.CacheControl(time.Hour))
		{
			uploadsGroup.Static("/", cfg.UploadDir)
		}
	}

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── 1. Candidate Group ────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())
	{
		api.POST("/candidates", limiter.Middleware(), handlers.Candidate.Register)
		api.GET("/candidates/:id", handlers.Candidate.Get)
		api.GET("/candidates/:id/result", handlers.Result.Get)
		api.POST("/feedback/chat", limiter.Middleware(), handlers.Feedback.Chat)
	}

	// ─── 2. Review Group ───────────────────────────────────────────────
	{
		api.GET("/candidates/:id/integrity", handlers.Integrity.Snapshot)
		api.GET("/candidates/:id/integrity/stream", handlers.Integrity.Monitor)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/candidates/:candidate_id/assessment", handlers.Assessment.Stream)
	}

	return router
}
