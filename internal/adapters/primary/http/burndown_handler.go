package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/bug-burndown/internal/adapters/primary/presenter"
	"github.com/lorrc/bug-burndown/internal/adapters/primary/validation"
	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/lorrc/bug-burndown/internal/core/ports"
	"github.com/lorrc/bug-burndown/internal/infrastructure/logging"
)

// BurndownHandler serves the chart page and the JSON API. Every request
// runs a fresh search.
type BurndownHandler struct {
	service      ports.BurndownService
	linker       presenter.Linker
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewBurndownHandler creates a new burndown handler
func NewBurndownHandler(
	service ports.BurndownService,
	linker presenter.Linker,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *BurndownHandler {
	return &BurndownHandler{
		service:      service,
		linker:       linker,
		errorHandler: errorHandler,
		logger:       logger.With("component", "burndown_handler"),
	}
}

// RegisterRoutes sets up the JSON API routes under the caller's prefix.
func (h *BurndownHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleReport)
	r.Get("/chart", h.HandleChart)
	r.Get("/bugs", h.HandleBugs)
}

// burndown validates the request query and runs the use case.
func (h *BurndownHandler) burndown(r *http.Request) (*domain.Report, error) {
	qs := domain.NormalizeQueryString(r.URL.RawQuery)

	params, err := domain.ParseQueryString(qs)
	if err != nil {
		return nil, err
	}
	if err := validation.BurndownQuery(qs, params); err != nil {
		return nil, err
	}

	ctx := logging.WithQuery(r.Context(), qs)
	return h.service.Burndown(ctx, qs)
}

// HandlePage renders the HTML page. Failures are shown in place of the
// chart, with the matching status code.
func (h *BurndownHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	report, err := h.burndown(r)

	status := http.StatusOK
	if err != nil && !errors.Is(err, apperrors.ErrNoResults) {
		status = h.errorHandler.StatusFor(err)
		h.logFailure(r.Context(), status, err)
	}

	var buf bytes.Buffer
	page := presenter.NewPage(r.URL.RawQuery, report, err, h.linker)
	if renderErr := presenter.RenderPage(&buf, page); renderErr != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(renderErr))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// HandleReport returns the whole report as JSON.
func (h *BurndownHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.burndown(r)
	if errors.Is(err, apperrors.ErrNoResults) {
		WriteJSON(w, http.StatusOK, emptyResponse(r.URL.RawQuery))
		return
	}
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, h.toResponse(report))
}

// HandleChart returns the columnar chart payload.
func (h *BurndownHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	report, err := h.burndown(r)
	if errors.Is(err, apperrors.ErrNoResults) {
		WriteJSON(w, http.StatusOK, presenter.ChartPayload(domain.Series{}))
		return
	}
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, presenter.ChartPayload(report.Series))
}

// HandleBugs lists the open bugs with their tracker links.
func (h *BurndownHandler) HandleBugs(w http.ResponseWriter, r *http.Request) {
	report, err := h.burndown(r)
	if errors.Is(err, apperrors.ErrNoResults) {
		WriteList(w, []presenter.BugLink{})
		return
	}
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, presenter.BugLinks(report.OpenBugs, h.linker.BugURL))
}

func (h *BurndownHandler) logFailure(ctx context.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "burndown failed", "status_code", status, "error", err)
		return
	}
	h.logger.WarnContext(ctx, "burndown rejected", "status_code", status, "error", err)
}

// BurndownResponse is the JSON form of a report.
type BurndownResponse struct {
	Title      string              `json:"title"`
	Empty      bool                `json:"empty"`
	Message    string              `json:"message,omitempty"`
	Settings   *SettingsResponse   `json:"settings,omitempty"`
	Series     *SeriesResponse     `json:"series,omitempty"`
	Stats      *StatsResponse      `json:"stats,omitempty"`
	OpenBugs   []presenter.BugLink `json:"openBugs,omitempty"`
	BugListURL string              `json:"bugListUrl,omitempty"`
	BugIDs     []int64             `json:"bugIds,omitempty"`
}

// SettingsResponse echoes what the report was built with.
type SettingsResponse struct {
	Query           string `json:"query"`
	StartDate       string `json:"startDate"`
	IgnoreOldClosed bool   `json:"ignoreOldClosed"`
	Weight          string `json:"weight"`
	GeneratedAt     string `json:"generatedAt"`
}

// SeriesResponse is the daily series, one entry per date in every slice.
type SeriesResponse struct {
	Dates  []string `json:"dates"`
	Open   []int    `json:"open"`
	Closed []int    `json:"closed"`
}

// StatsResponse summarizes velocity and forecasts.
type StatsResponse struct {
	PeriodDays      int                `json:"periodDays"`
	InitialOpen     int                `json:"initialOpen"`
	CurrentOpen     int                `json:"currentOpen"`
	InitialClosed   int                `json:"initialClosed"`
	CurrentClosed   int                `json:"currentClosed"`
	BugsClosed      int                `json:"bugsClosed"`
	BugsOpened      int                `json:"bugsOpened"`
	ClosedPerDay    float64            `json:"closedPerDay"`
	OpenedPerDay    float64            `json:"openedPerDay"`
	NetClosedPerDay float64            `json:"netClosedPerDay"`
	Progress        float64            `json:"progress"`
	Forecasts       []ForecastResponse `json:"forecasts"`
}

// ForecastResponse is one zero-bug projection. Date and DaysToZero are
// omitted when the backlog never reaches zero.
type ForecastResponse struct {
	Label      string  `json:"label"`
	Velocity   float64 `json:"velocity"`
	OpenCount  int     `json:"openCount"`
	DaysToZero int     `json:"daysToZero,omitempty"`
	Date       string  `json:"date,omitempty"`
	Unbounded  bool    `json:"unbounded"`
	Version    string  `json:"version,omitempty"`
}

func emptyResponse(rawQuery string) BurndownResponse {
	title := presenter.PageTitle
	if qs := domain.NormalizeQueryString(rawQuery); qs != "" {
		title = domain.ChartTitle(qs)
	}
	return BurndownResponse{
		Title:   title,
		Empty:   true,
		Message: presenter.NoBugsText,
	}
}

func (h *BurndownHandler) toResponse(report *domain.Report) BurndownResponse {
	links := presenter.BugLinks(report.OpenBugs, h.linker.BugURL)
	stats := report.Stats

	forecasts := make([]ForecastResponse, 0, len(stats.Forecasts))
	for _, f := range stats.Forecasts {
		forecasts = append(forecasts, ForecastResponse{
			Label:      f.Label,
			Velocity:   domain.RoundDown(f.Velocity),
			OpenCount:  f.OpenCount,
			DaysToZero: f.DaysToZero,
			Date:       f.Date,
			Unbounded:  f.Unbounded,
			Version:    f.Version,
		})
	}

	return BurndownResponse{
		Title: report.Title,
		Settings: &SettingsResponse{
			Query:           report.Settings.Query,
			StartDate:       report.Settings.StartDate,
			IgnoreOldClosed: report.Settings.IgnoreOldClosed,
			Weight:          string(report.Settings.Weight),
			GeneratedAt:     report.Settings.GeneratedAt.UTC().Format(time.RFC3339),
		},
		Series: &SeriesResponse{
			Dates:  report.Series.Dates,
			Open:   report.Series.Open,
			Closed: report.Series.Closed,
		},
		Stats: &StatsResponse{
			PeriodDays:      stats.PeriodDays,
			InitialOpen:     stats.InitialOpen,
			CurrentOpen:     stats.CurrentOpen,
			InitialClosed:   stats.InitialClosed,
			CurrentClosed:   stats.CurrentClosed,
			BugsClosed:      stats.BugsClosed,
			BugsOpened:      stats.BugsOpened,
			ClosedPerDay:    domain.RoundDown(stats.ClosedPerDay),
			OpenedPerDay:    domain.RoundDown(stats.OpenedPerDay),
			NetClosedPerDay: domain.RoundDown(stats.NetClosedPerDay),
			Progress:        domain.RoundDown(stats.Progress),
			Forecasts:       forecasts,
		},
		OpenBugs:   links,
		BugListURL: h.linker.BugListURL(presenter.LinkIDs(links)),
		BugIDs:     report.BugIDs,
	}
}
