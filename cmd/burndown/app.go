package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/lorrc/bug-burndown/internal/adapters/secondary/bugzilla"
	"github.com/lorrc/bug-burndown/internal/adapters/secondary/releases"
	"github.com/lorrc/bug-burndown/internal/config"
	"github.com/lorrc/bug-burndown/internal/core/ports"
	"github.com/lorrc/bug-burndown/internal/core/services"
	"github.com/lorrc/bug-burndown/internal/infrastructure/clock"
	"github.com/lorrc/bug-burndown/internal/infrastructure/logging"
	"github.com/lorrc/bug-burndown/internal/infrastructure/metrics"
)

// app holds the wired core shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracker *bugzilla.Client
	metrics *metrics.Metrics
	service *services.BurndownService
}

func newLogger(cfg *config.Config, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}
	return logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      output,
		AddSource:   cfg.IsDevelopment(),
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
}

// newApp wires the hexagon: the Bugzilla client and release calendar on the
// secondary side, the burndown service in the core.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	tracker, err := bugzilla.NewClient(bugzilla.Config{
		BaseURL:    cfg.Bugzilla.URL,
		APIKey:     cfg.Bugzilla.APIKey,
		PageSize:   cfg.Bugzilla.PageSize,
		HTTPClient: &http.Client{Timeout: cfg.Bugzilla.Timeout},
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bugzilla client: %w", err)
	}

	// Left as a nil interface when no calendar is configured
	var calendar ports.ReleaseCalendar
	if cfg.Releases.CalendarPath != "" {
		loaded, err := releases.Load(cfg.Releases.CalendarPath)
		if err != nil {
			return nil, err
		}
		calendar = loaded
		logger.Info("release calendar loaded",
			"path", cfg.Releases.CalendarPath,
			"releases", len(loaded.Releases()),
		)
	}

	m := metrics.New()
	service := services.NewBurndownService(tracker, calendar, m, clock.Real(), services.BurndownConfig{
		ProductFilter:   cfg.Bugzilla.ProductFilter,
		StartMonths:     cfg.Chart.StartMonths,
		IgnoreOldClosed: cfg.Chart.IgnoreOldClosed,
	}, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		tracker: tracker,
		metrics: m,
		service: service,
	}, nil
}
