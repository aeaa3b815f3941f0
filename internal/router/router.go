package router

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/quizling/internal/config"
	"github.com/stemsi/quizling/internal/handler"
	"github.com/stemsi/quizling/internal/middleware"
	"github.com/stemsi/quizling/internal/response"
	"github.com/stemsi/quizling/internal/web"
)

// staticMaxAge covers the embedded scripts and stylesheet.
const staticMaxAge = 3600

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Page     *handler.PageHandler
	Question *handler.QuestionHandler
	Health   *handler.HealthHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to disable rate limiting.
func SetupRouter(handlers *Handlers, cfg *config.Config, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. WebSocket upgrades pass through.
	router.Use(middleware.Brotli())

	limit := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		limit = limiter.Middleware()
	}

	static := router.Group("/static")
	static.Use(middleware.CacheControl(staticMaxAge))
	{
		static.StaticFS("/", web.Static())
	}

	router.GET("/health", middleware.NoStore(), handlers.Health.Health)

	// ─── 1. Pages ──────────────────────────────────────────────────────
	router.GET("/", handlers.Page.Home)
	router.GET("/questions", handlers.Page.Browse)
	router.GET("/questions/:id", handlers.Page.Question)
	router.GET("/quiz", handlers.Page.Quiz)

	// ─── 2. JSON API (Rate Limited) ────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(limit)
	{
		api.GET("/questions", handlers.Question.ListQuestions)
		api.GET("/questions/:id", handlers.Question.GetQuestion)
	}

	// ─── 3. WebSocket Streams (Rate Limited) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(limit)
	{
		ws.GET("/quiz", handlers.WS.QuizStream)
		ws.GET("/browse", handlers.WS.BrowseStream)
	}

	router.NoRoute(handlers.Page.NotFound)

	return router, nil
}
