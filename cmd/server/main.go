package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/backend"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/database"
	"github.com/stemsi/course-builder/internal/handler"
	"github.com/stemsi/course-builder/internal/logger"
	"github.com/stemsi/course-builder/internal/repository"
	"github.com/stemsi/course-builder/internal/router"
	"github.com/stemsi/course-builder/internal/service"
	"github.com/stemsi/course-builder/internal/validator"
	"github.com/stemsi/course-builder/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("backend", cfg.BackendBaseURL).
		Msg("Starting Course Builder")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	submissionRepo := repository.NewSubmissionRepository(pool)
	draftRepo := repository.NewDraftRepository(rdb, cfg.DraftTTL)

	// ─── Backend API Clients ───────────────────────────────────────────
	// Requests made for an admin forward that admin's token; background
	// compensation runs under the service token.
	api := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, backend.ContextTokenStore{}, log)
	serviceAPI := api.WithTokens(backend.StaticTokenStore{
		Value: cfg.BackendServiceToken,
		User:  cfg.BackendServiceUser,
	})

	// ─── Initialize Services ──────────────────────────────────────────
	progressBus := service.NewRedisProgressBus(rdb, log)
	compensationQueue := service.NewRedisCompensationQueue(rdb)

	authService := service.NewAuthService(cfg.JWTSecret)
	mediaService := service.NewMediaService(cfg)
	submissionService := service.NewSubmissionService(api, submissionRepo, progressBus, compensationQueue, log)
	draftService := service.NewDraftService(draftRepo, submissionService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Draft:      handler.NewDraftHandler(draftService, mediaService, log),
		Quiz:       handler.NewQuizHandler(submissionService),
		Submission: handler.NewSubmissionHandler(submissionRepo),
		Media:      handler.NewMediaHandler(mediaService),
		WS:         handler.NewWSHandler(submissionRepo, progressBus, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	var sweeper *worker.SweepScheduler
	if cfg.BackendServiceToken == "" {
		log.Warn().Msg("BACKEND_SERVICE_TOKEN not set; orphaned backend records will not be cleaned up")
	} else {
		compensationWorker := worker.NewCompensationWorker(rdb, serviceAPI, submissionRepo, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			compensationWorker.Start(workerCtx)
		}()

		sweeper = worker.NewSweepScheduler(rdb, submissionRepo, compensationQueue, log)
		if err := sweeper.Start(workerCtx, cfg.SweepSchedule); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("Invalid SWEEP_SCHEDULE")
		}
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, rdb, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
		// Submissions make several sequential backend calls.
		WriteTimeout: 4*cfg.BackendTimeout + 10*time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests; let running submissions finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.BackendTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the queue to drain.
	if sweeper != nil {
		sweeper.Stop()
	}
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
