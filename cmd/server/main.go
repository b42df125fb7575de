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
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/database"
	"github.com/stemsi/surveychain/internal/handler"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/logger"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/repository"
	"github.com/stemsi/surveychain/internal/router"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/validator"
	"github.com/stemsi/surveychain/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("gateway", cfg.CanisterGatewayURL).
		Msg("Starting surveychain gateway")

	treasury, err := ledger.ParsePrincipal(cfg.TreasuryPrincipal)
	if err != nil {
		log.Fatal().Err(err).Str("treasury", cfg.TreasuryPrincipal).Msg("Invalid treasury principal")
	}

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
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	journalRepo := repository.NewJournalRepository(pool)

	// ─── Initialize Canister Clients ───────────────────────────────────
	agent := canister.NewAgent(cfg, log)
	canisters := service.NewCanisters(agent, cfg)
	manager := auth.NewManager(cfg.JWTSecret, auth.NewRedisRegistry(rdb), canisters.Users, log)

	// ─── Initialize Services ──────────────────────────────────────────
	formService := service.NewFormService(canisters, rdb, cfg.FormsCacheTTL, log)
	notificationService := service.NewNotificationService(rdb, log)
	journalService := service.NewJournalService(rdb, journalRepo, formService, log)
	editorService := service.NewEditorService(canisters, formService, notificationService, journalService, treasury, cfg.SyncDebounce, log)
	responseService := service.NewResponseService(canisters, formService, journalService, log)
	profileService := service.NewProfileService(canisters, log)
	walletService := service.NewWalletService(canisters)
	verificationService := service.NewVerificationService(canisters, journalService, cfg.MaxFrameSide, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(manager, profileService),
		Profile:      handler.NewProfileHandler(profileService, walletService),
		Verification: handler.NewVerificationHandler(verificationService, cfg.MaxUploadBytes),
		Form:         handler.NewFormHandler(formService, responseService, journalService),
		Editor:       handler.NewEditorHandler(editorService),
		WS:           handler.NewWSHandler(formService, editorService, notificationService, log, cfg.AllowedOrigins),
		Health:       handler.NewHealthHandler(pool, rdb, editorService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	journalWorker := worker.NewJournalWorker(journalRepo, rdb, log)
	reaper := worker.NewEditorReaper(editorService, cfg.EditorIdle, cfg.ReaperSchedule, log)

	workers.Add(3)
	go func() {
		defer workers.Done()
		limiter.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		journalWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		if err := reaper.Start(workerCtx); err != nil {
			log.Error().Err(err).Msg("Editor reaper not started")
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(manager, limiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Push pending editor edits to the backend while journal producers still run.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
	editorService.CloseAll(flushCtx)
	flushCancel()

	// 3. Stop background workers and wait for the journal queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
