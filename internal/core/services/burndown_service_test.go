package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/lorrc/bug-burndown/internal/core/mocks"
	"github.com/lorrc/bug-burndown/internal/core/services"
	"github.com/lorrc/bug-burndown/internal/infrastructure/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testFilter = "&product=Core"

var testNow = time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func exampleBugs() []*domain.Bug {
	return []*domain.Bug{
		{ID: 1, Open: true, Summary: "Crash on startup", CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		{
			ID:         2,
			Summary:    "Typo in menu",
			CreatedAt:  time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
			ResolvedAt: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
		},
	}
}

func newService(searcher *mocks.MockBugSearcher, cfg services.BurndownConfig) *services.BurndownService {
	return services.NewBurndownService(searcher, nil, nil, clock.Fixed(testNow), cfg, testLogger())
}

func TestBurndownService_Burndown(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{ProductFilter: testFilter})

		searcher.On("SearchBugs", ctx, "component=DOM"+testFilter).Return(exampleBugs(), nil)

		report, err := svc.Burndown(ctx, "?component=DOM&since=2024-01-01/")

		require.NoError(t, err)
		assert.Equal(t, "Burning up: component=DOM, since=2024-01-01", report.Title)
		assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}, report.Series.Dates)
		assert.Equal(t, []int{1, 2, 1, 1}, report.Series.Open)
		assert.Equal(t, []int{0, 0, 1, 1}, report.Series.Closed)
		require.Len(t, report.OpenBugs, 1)
		assert.Equal(t, int64(1), report.OpenBugs[0].ID)
		assert.Equal(t, []int64{1, 2}, report.BugIDs)
		assert.Equal(t, "2024-01-01", report.Settings.StartDate)
		assert.Equal(t, domain.WeightCount, report.Settings.Weight)
		assert.Equal(t, testNow, report.Settings.GeneratedAt)
		require.Len(t, report.Stats.Forecasts, 2)

		searcher.AssertExpectations(t)
	})

	t.Run("default start date is three months back", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		searcher.On("SearchBugs", ctx, "component=DOM").Return(exampleBugs(), nil)

		report, err := svc.Burndown(ctx, "component=DOM")

		require.NoError(t, err)
		assert.Equal(t, "2023-10-12", report.Settings.StartDate)
		assert.Equal(t, "2023-10-12", report.Series.Dates[0])
	})

	t.Run("empty query does not search", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{ProductFilter: testFilter})

		report, err := svc.Burndown(ctx, "?since=2024-01-01")

		assert.Nil(t, report)
		assert.ErrorIs(t, err, apperrors.ErrNoResults)
		searcher.AssertNotCalled(t, "SearchBugs", mock.Anything, mock.Anything)
	})

	t.Run("no matching bugs", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		searcher.On("SearchBugs", ctx, "component=DOM").Return([]*domain.Bug{}, nil)

		report, err := svc.Burndown(ctx, "component=DOM")

		assert.Nil(t, report)
		assert.ErrorIs(t, err, apperrors.ErrNoResults)
	})

	t.Run("fetch error keeps its type", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		searcher.On("SearchBugs", ctx, "component=DOM").
			Return(nil, apperrors.NewFetchError("HTTP 502", errors.New("bad gateway")))

		_, err := svc.Burndown(ctx, "component=DOM")

		var fetchErr *apperrors.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "HTTP 502", fetchErr.Type)
		assert.ErrorIs(t, err, apperrors.ErrFetch)
	})

	t.Run("other search errors become fetch errors", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		searcher.On("SearchBugs", ctx, "component=DOM").Return(nil, errors.New("boom"))

		_, err := svc.Burndown(ctx, "component=DOM")

		assert.ErrorIs(t, err, apperrors.ErrFetch)
	})

	t.Run("invalid since", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		_, err := svc.Burndown(ctx, "component=DOM&since=yesterday")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 422, appErr.StatusCode)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStartDate)
		searcher.AssertNotCalled(t, "SearchBugs", mock.Anything, mock.Anything)
	})

	t.Run("invalid weighting", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		_, err := svc.Burndown(ctx, "component=DOM&burnup_weight=hours")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("malformed query", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})

		_, err := svc.Burndown(ctx, "component=%zz")

		assert.ErrorIs(t, err, apperrors.ErrMalformedQuery)
	})
}

func TestBurndownService_Policies(t *testing.T) {
	ctx := context.Background()
	bugs := []*domain.Bug{
		{ID: 1, CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), ResolvedAt: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Open: true, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Points: func() *int { p := 8; return &p }()},
	}

	t.Run("ignore old closed bugs from the query", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})
		searcher.On("SearchBugs", ctx, "component=DOM").Return(bugs, nil)

		report, err := svc.Burndown(ctx, "component=DOM&since=2024-01-01&burnup_ignore_old_closed_bugs")

		require.NoError(t, err)
		assert.True(t, report.Settings.IgnoreOldClosed)
		assert.Equal(t, 0, report.Series.Closed[0])
	})

	t.Run("ignore old closed bugs from config", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{IgnoreOldClosed: true})
		searcher.On("SearchBugs", ctx, "component=DOM").Return(bugs, nil)

		report, err := svc.Burndown(ctx, "component=DOM&since=2024-01-01")

		require.NoError(t, err)
		assert.True(t, report.Settings.IgnoreOldClosed)
	})

	t.Run("points weighting", func(t *testing.T) {
		searcher := mocks.NewMockBugSearcher()
		svc := newService(searcher, services.BurndownConfig{})
		searcher.On("SearchBugs", ctx, "component=DOM").Return(bugs, nil)

		report, err := svc.Burndown(ctx, "component=DOM&since=2024-01-01&burnup_weight=points")

		require.NoError(t, err)
		assert.Equal(t, domain.WeightPoints, report.Settings.Weight)
		// 3 default points opened and closed on the floor, then 8 more opened.
		assert.Equal(t, []int{0, 8, 8}, report.Series.Open)
		assert.Equal(t, []int{3, 3, 3}, report.Series.Closed)
	})
}

func TestBurndownService_ReleasesAndObserver(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockBugSearcher()
	releases := mocks.NewMockReleaseCalendar()
	observer := mocks.NewMockSearchObserver()
	svc := services.NewBurndownService(searcher, releases, observer, clock.Fixed(testNow), services.BurndownConfig{}, testLogger())

	searcher.On("SearchBugs", ctx, "component=DOM").Return(exampleBugs(), nil)
	observer.On("ObserveSearch", time.Duration(0), 2, nil).Return()
	// One bug open, one closed over three days: min forecast burns at 1/3 per day.
	releases.On("VersionFor", "2024-01-07").Return("125")

	report, err := svc.Burndown(ctx, "component=DOM&since=2024-01-01")

	require.NoError(t, err)
	require.Len(t, report.Stats.Forecasts, 2)
	assert.Equal(t, "125", report.Stats.Forecasts[0].Version)
	assert.True(t, report.Stats.Forecasts[1].Unbounded)
	assert.Equal(t, domain.UnknownVersion, report.Stats.Forecasts[1].Version)

	observer.AssertExpectations(t)
	releases.AssertExpectations(t)
}
