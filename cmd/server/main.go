// Quiz Agent - autonomous quiz-solving server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/quiz-agent/internal/api"
	"github.com/ashureev/quiz-agent/internal/chain"
	"github.com/ashureev/quiz-agent/internal/config"
	"github.com/ashureev/quiz-agent/internal/driver"
	"github.com/ashureev/quiz-agent/internal/llm"
	"github.com/ashureev/quiz-agent/internal/middleware"
	"github.com/ashureev/quiz-agent/internal/progress"
	"github.com/ashureev/quiz-agent/internal/sandbox"
	"github.com/ashureev/quiz-agent/internal/scrape"
	"github.com/ashureev/quiz-agent/internal/session"
	"github.com/ashureev/quiz-agent/internal/store"
)

const fetchTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "sandbox_mode", cfg.Sandbox.Mode, "model", cfg.LLM.Model)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	exec, err := newExecutor(cfg)
	if err != nil {
		slog.Error("Failed to initialize sandbox", "error", err)
		os.Exit(1)
	}

	// Build the solve pipeline.
	sessions := session.NewStore(cfg.DataDir)
	fetcher := scrape.NewFetcher(fetchTimeout)
	loader := scrape.NewHTTPLoader(fetcher)
	converter := scrape.NewConverter(fetcher)
	client := llm.NewOpenAIClient(cfg.LLM)
	drv := driver.New(client, exec, fetcher, cfg.MaxRounds)
	solver := chain.NewQuizSolver(loader, converter, sessions, client, drv)
	submitter := chain.NewHTTPSubmitter(fetchTimeout)
	broker := progress.NewBroker()
	controller := chain.NewController(solver, submitter, broker, cfg)

	handler := api.NewHandler(repo, controller, broker, cfg.Email, cfg.Secret)

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	r.Post("/", handler.Solve)
	r.Get("/health", handler.Health)
	r.Get("/runs", handler.Runs)
	r.Get("/ws/progress", handler.Progress)

	// Create server. WriteTimeout stays 0 so the progress websocket can
	// outlive any fixed window.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartCleanupWorker(ctx, sessions, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// newExecutor builds the configured code executor. Docker mode fails hard
// when the daemon is unreachable rather than falling back to the
// unisolated local runner.
func newExecutor(cfg *config.Config) (sandbox.Executor, error) {
	if cfg.Sandbox.Mode == config.SandboxDocker {
		docker, err := sandbox.NewDocker(cfg.Sandbox.Image, cfg.Sandbox.Timeout)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docker.Ping(pingCtx); err != nil {
			return nil, err
		}
		slog.Info("Docker sandbox ready", "image", cfg.Sandbox.Image)
		return docker, nil
	}
	slog.Info("Local sandbox selected", "python", cfg.Sandbox.PythonBin)
	return sandbox.NewLocal(cfg.Sandbox.PythonBin, cfg.Sandbox.Timeout), nil
}
