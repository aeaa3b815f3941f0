package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/cache"
	"github.com/stemsi/quizling/internal/config"
	"github.com/stemsi/quizling/internal/database"
	"github.com/stemsi/quizling/internal/handler"
	"github.com/stemsi/quizling/internal/logger"
	"github.com/stemsi/quizling/internal/middleware"
	"github.com/stemsi/quizling/internal/router"
	"github.com/stemsi/quizling/internal/validator"
	"github.com/stemsi/quizling/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("env", cfg.AppEnv).
		Str("api_base_url", cfg.APIBaseURL).
		Msg("Starting Quizling")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Question API Client ───────────────────────────────────────────
	var questions api.QuestionAPI = api.New(api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger.Diagnostic(log, cfg.IsDevelopment()),
	})

	// ─── Connect to Redis (optional) ───────────────────────────────────
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		questions = cache.NewQuestionCache(questions, rdb, cfg.CacheTTL, log)
	} else {
		log.Info().Msg("REDIS_URL not set, question cache disabled")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	healthWorker := worker.NewHealthWorker(questions, cfg.HealthInterval, log)

	handlers := &router.Handlers{
		Page:     handler.NewPageHandler(questions, healthWorker, cfg.QuizQuestionCount, log),
		Question: handler.NewQuestionHandler(questions, log),
		Health:   handler.NewHealthHandler(healthWorker),
		WS:       handler.NewWSHandler(questions, cfg.QuizQuestionCount, cfg.SearchDebounce, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
	}
	r, err := router.SetupRouter(handlers, cfg, limiter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up router")
	}

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// ─── Start Background Workers ─────────────────────────────────────
	g.Go(func() error {
		healthWorker.Start(gctx)
		return nil
	})

	// ─── Start Server ──────────────────────────────────────────────────
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down gracefully...")

		// Stop accepting new HTTP requests (5s timeout). Open WebSocket
		// streams are hijacked and not tracked by Shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
