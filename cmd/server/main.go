package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/database"
	"github.com/talentgate/assessment-backend/internal/feedback"
	"github.com/talentgate/assessment-backend/internal/handler"
	"github.com/talentgate/assessment-backend/internal/logger"
	"github.com/talentgate/assessment-backend/internal/metrics"
	"github.com/talentgate/assessment-backend/internal/middleware"
	"github.com/talentgate/assessment-backend/internal/notify"
	"github.com/talentgate/assessment-backend/internal/repository"
	"github.com/talentgate/assessment-backend/internal/router"
	"github.com/talentgate/assessment-backend/internal/scoring"
	"github.com/talentgate/assessment-backend/internal/service"
	"github.com/talentgate/assessment-backend/internal/storage"
	"github.com/talentgate/assessment-backend/internal/validator"
	"github.com/talentgate/assessment-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("assessment_duration", cfg.AssessmentDuration).
		Msg("Starting Assessment Backend")

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Resume Storage ────────────────────────────────────────────────
	resumes, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize resume storage")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	integrityRepo := repository.NewIntegrityRepository(pool, rdb)

	// ─── Feedback Advisor ──────────────────────────────────────────────
	var advisor feedback.Advisor = feedback.RuleAdvisor{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := feedback.NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, advisor, log)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini advisor unavailable, using rule-based feedback")
		} else {
			advisor = gemini
		}
	}

	// ─── Result Emails ─────────────────────────────────────────────────
	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.SMTPHost != "" {
		smtp, err := notify.NewSMTPSender(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("SMTP unavailable, result emails will only be logged")
		} else {
			sender = smtp
		}
	}

	// ─── Initialize Services ──────────────────────────────────────────
	candidateService := service.NewCandidateService(candidateRepo, resumes, cfg.MaxUploadBytes, log)
	questionService := service.NewQuestionService(questionRepo, resultRepo, rdb, cfg, log)
	resultService := service.NewResultService(rdb, resultRepo, log)
	sessionState := service.NewSessionStateService(rdb, cfg, log)
	feedbackService := service.NewFeedbackService(resultService, advisor, cfg, log)
	integrityService := service.NewIntegrityService(integrityRepo)
	auditSink := service.NewRedisAuditSink(rdb)
	scorer := scoring.Instrument(scoring.NewClient(cfg.ScoringURL, cfg.ScoringTimeout, log))

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Candidate: handler.NewCandidateHandler(candidateService),
		Assessment: handler.NewAssessmentHandler(
			candidateService, questionService, auditSink, scorer,
			sessionState, resultService, cfg, log,
		),
		Result:    handler.NewResultHandler(resultService),
		Feedback:  handler.NewFeedbackHandler(feedbackService, log),
		Integrity: handler.NewIntegrityHandler(rdb, integrityService, log),
		Health:    handler.NewHealthHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	integrityWorker := worker.NewIntegrityWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(pool, rdb, log)
	notifyWorker := worker.NewNotifyWorker(candidateRepo, sender, rdb, cfg, log)

	workers.Add(3)
	go func() { defer workers.Done(); integrityWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); resultWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); notifyWorker.Start(workerCtx) }()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Cleanup(workerCtx.Done())

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, limiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Hijacked WebSocket connections
	// are not tracked by Shutdown; their sessions finish on their own.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for their final flush.
	workerCancel()
	drained := make(chan struct{})
	go func() { workers.Wait(); close(drained) }()
	select {
	case <-drained:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Workers did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
