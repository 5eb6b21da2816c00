package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/lorrc/bug-burndown/internal/adapters/primary/http"
	mw "github.com/lorrc/bug-burndown/internal/adapters/primary/http/middleware"
	"github.com/lorrc/bug-burndown/internal/config"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the burndown page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen address, overrides SERVER_PORT (e.g. :8080)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	// 1. Initialize Structured Logger
	logger := newLogger(cfg, os.Stdout)
	logger.Info("starting service",
		"version", Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	// 2. Wire the core and its adapters
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	if err := a.tracker.Ping(pingCtx); err != nil {
		// Not fatal: the readiness probe keeps reporting it
		logger.Warn("bugzilla is not reachable yet", "url", cfg.Bugzilla.URL, "error", err)
	}
	cancelPing()

	// 3. Initialize Rate Limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	// 4. Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	burndownHandler := httpAdapter.NewBurndownHandler(a.service, a.tracker, errorHandler, logger)
	healthHandler := httpAdapter.NewHealthHandler(a.tracker, Version)

	// 5. Setup Router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:         logger,
		Burndown:       burndownHandler,
		Health:         healthHandler,
		RateLimiter:    rateLimiter,
		Metrics:        a.metrics.Handler(),
		Observer:       a.metrics,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutdown requested", "reason", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}
