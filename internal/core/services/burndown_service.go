package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/lorrc/bug-burndown/internal/core/ports"
)

// BurndownConfig holds the service-wide defaults for building a burndown.
type BurndownConfig struct {
	// ProductFilter is appended to every search, e.g. "&product=Core".
	ProductFilter string
	// StartMonths is how many four-week months the chart shows by default.
	StartMonths int
	// IgnoreOldClosed applies the pre-window closure policy to every
	// request, not only those that ask for it.
	IgnoreOldClosed bool
}

// BurndownService implements the burndown use case: one search, then the
// aggregation, stats and forecasts.
type BurndownService struct {
	searcher ports.BugSearcher
	releases ports.ReleaseCalendar
	observer ports.SearchObserver
	clock    ports.Clock
	cfg      BurndownConfig
	logger   *slog.Logger
}

var _ ports.BurndownService = (*BurndownService)(nil)

// NewBurndownService creates a new burndown service. releases and observer
// may be nil.
func NewBurndownService(
	searcher ports.BugSearcher,
	releases ports.ReleaseCalendar,
	observer ports.SearchObserver,
	clock ports.Clock,
	cfg BurndownConfig,
	logger *slog.Logger,
) *BurndownService {
	if cfg.StartMonths <= 0 {
		cfg.StartMonths = domain.DefaultChartStartMonths
	}
	return &BurndownService{
		searcher: searcher,
		releases: releases,
		observer: observer,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With("component", "burndown_service"),
	}
}

// Burndown builds the report for a raw location query string.
func (s *BurndownService) Burndown(ctx context.Context, rawQuery string) (*domain.Report, error) {
	// 1. Parse the request
	qs := domain.NormalizeQueryString(rawQuery)
	search := domain.StripControlParams(qs)
	if search == "" {
		return nil, apperrors.ErrNoResults
	}

	params, err := domain.ParseQueryString(qs)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings(params)
	if err != nil {
		return nil, err
	}
	settings.Query = search + s.cfg.ProductFilter

	// 2. Run the search
	bugs, err := s.search(ctx, settings.Query)
	if err != nil {
		return nil, err
	}
	if len(bugs) == 0 {
		return nil, apperrors.ErrNoResults
	}

	// 3. Aggregate
	now := s.clock.Now()
	settings.GeneratedAt = now
	series := domain.BuildSeries(bugs, domain.SeriesOptions{
		Floor:           settings.StartDate,
		Now:             now,
		IgnoreOldClosed: settings.IgnoreOldClosed,
		Weight:          settings.Weight,
	})

	stats := domain.ComputeStats(series, now)
	if s.releases != nil {
		for i := range stats.Forecasts {
			stats.Forecasts[i].Version = s.versionFor(stats.Forecasts[i])
		}
	}

	report := &domain.Report{
		Title:    domain.ChartTitle(qs),
		Series:   series,
		OpenBugs: make([]*domain.Bug, 0),
		BugIDs:   make([]int64, 0, len(bugs)),
		Stats:    stats,
		Settings: settings,
	}
	for _, bug := range bugs {
		report.BugIDs = append(report.BugIDs, bug.ID)
		if bug.Open {
			report.OpenBugs = append(report.OpenBugs, bug)
		}
	}

	s.logStats(ctx, stats)
	return report, nil
}

func (s *BurndownService) settings(params domain.QueryParams) (domain.ReportSettings, error) {
	startDate, err := domain.ChartStartDate(params, s.clock.Now(), s.cfg.StartMonths)
	if err != nil {
		return domain.ReportSettings{}, apperrors.NewValidationError(err, "Invalid start date", map[string]interface{}{
			"since": err.Error(),
		})
	}

	weight := domain.WeightCount
	if value := params.Get(domain.ParamWeight); value != "" {
		weight = domain.Weighting(value)
		if !weight.IsValid() {
			return domain.ReportSettings{}, apperrors.NewValidationError(apperrors.ErrBadRequest, "Invalid weighting", map[string]interface{}{
				domain.ParamWeight: "must be one of count, points",
			})
		}
	}

	return domain.ReportSettings{
		StartDate:       startDate,
		IgnoreOldClosed: s.cfg.IgnoreOldClosed || params.Has(domain.ParamIgnoreOldClosed),
		Weight:          weight,
	}, nil
}

func (s *BurndownService) search(ctx context.Context, query string) ([]*domain.Bug, error) {
	s.logger.DebugContext(ctx, "searching bugs", "query", query)

	start := s.clock.Now()
	bugs, err := s.searcher.SearchBugs(ctx, query)
	elapsed := s.clock.Now().Sub(start)

	if s.observer != nil {
		s.observer.ObserveSearch(elapsed, len(bugs), err)
	}

	if err != nil {
		var fetchErr *apperrors.FetchError
		if !errors.As(err, &fetchErr) {
			err = apperrors.NewFetchError("search error", err)
		}
		return nil, err
	}

	s.logger.DebugContext(ctx, "bug search finished",
		"bugs", len(bugs),
		"duration_ms", elapsed.Milliseconds(),
	)
	return bugs, nil
}

func (s *BurndownService) versionFor(f domain.Forecast) string {
	if f.Unbounded {
		return domain.UnknownVersion
	}
	return s.releases.VersionFor(f.Date)
}

func (s *BurndownService) logStats(ctx context.Context, stats domain.Stats) {
	s.logger.InfoContext(ctx, "burndown progress",
		"closed", stats.CurrentClosed,
		"total", stats.CurrentOpen+stats.CurrentClosed,
		"progress_pct", domain.RoundDown(stats.Progress)*100,
	)
	s.logger.InfoContext(ctx, "burndown velocity",
		"period_days", stats.PeriodDays,
		"bugs_closed", stats.BugsClosed,
		"closed_per_day", domain.RoundDown(stats.ClosedPerDay),
		"bugs_opened", stats.BugsOpened,
		"opened_per_day", domain.RoundDown(stats.OpenedPerDay),
	)
	for _, f := range stats.Forecasts {
		attrs := []any{
			"label", f.Label,
			"open", f.OpenCount,
			"closed_per_day", domain.RoundDown(f.Velocity),
		}
		if f.Unbounded {
			attrs = append(attrs, "unbounded", true)
		} else {
			attrs = append(attrs, "days", f.DaysToZero, "date", f.Date)
		}
		if f.Version != "" {
			attrs = append(attrs, "version", f.Version)
		}
		s.logger.InfoContext(ctx, "burndown forecast", attrs...)
	}
}
