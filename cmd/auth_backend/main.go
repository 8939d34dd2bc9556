package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/core/services"
	"github.com/jobcrew/auth_backend/internal/handlers"
	"github.com/jobcrew/auth_backend/internal/middleware"
	"github.com/jobcrew/auth_backend/internal/platform/config"
	"github.com/jobcrew/auth_backend/internal/platform/otel"
	"github.com/jobcrew/auth_backend/internal/repositories/database/pgsql"
	"github.com/jobcrew/auth_backend/internal/repositories/database/sqlite"
	"github.com/jobcrew/auth_backend/internal/utils"
	"github.com/jobcrew/auth_backend/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	shutdownTracing, err := otel.Setup(ctx, cfg.ServiceName, cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		logger.Warn("Tracing disabled", slog.String("error", err.Error()))
	}

	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	var tracker portssvc.EventTracker
	if posthogClient.IsInitialized() {
		tracker = posthogClient
	}

	container, err := services.NewServiceContainer(cfg, repos, tracker)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	if cfg.SeedDevAccounts {
		if err := container.User.SeedDevAccounts(ctx); err != nil {
			return fmt.Errorf("seed dev accounts: %w", err)
		}
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.CORS(cfg.CORSAllowedOrigins))
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}
	if err := handlers.RegisterRoutes(r, cfg, container, tracker); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: otelhttp.NewHandler(r, cfg.ServiceName),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	posthogClient.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
	return nil
}

// openStore connects the configured credential store and returns its repositories.
func openStore(ctx context.Context, cfg *config.Config) (portsrepo.RepositoryProvider, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("Using SQLite credential store", slog.String("path", cfg.SQLitePath))
		return store.RepositoryProvider(), func() {
			if err := store.Close(); err != nil {
				slog.Error("Error closing sqlite store", slog.String("error", err.Error()))
			}
		}, nil
	default:
		if cfg.RunMigrations {
			slog.Info("Running database migrations...", slog.String("source", cfg.MigrationsPath))
			if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("open database pool: %w", err)
		}
		return pgsql.NewRepositoryProvider(pool), func() { database.ClosePgxPool(pool) }, nil
	}
}
