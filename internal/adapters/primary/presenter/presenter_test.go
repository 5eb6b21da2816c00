package presenter_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lorrc/bug-burndown/internal/adapters/primary/presenter"
	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLinker struct{}

func (testLinker) BugURL(id int64) string {
	return "https://bugs.test/show_bug.cgi?id=" + strconv.FormatInt(id, 10)
}

func (testLinker) BugListURL(ids []int64) string {
	url := "https://bugs.test/buglist.cgi?bug_id="
	for _, id := range ids {
		url += strconv.FormatInt(id, 10) + ","
	}
	return url
}

func exampleSeries() domain.Series {
	return domain.Series{
		Dates:  []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
		Open:   []int{1, 2, 1, 1},
		Closed: []int{0, 0, 1, 1},
	}
}

func exampleReport() *domain.Report {
	series := exampleSeries()
	now := time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC)
	return &domain.Report{
		Title:  "Burning up: component=DOM",
		Series: series,
		OpenBugs: []*domain.Bug{
			{ID: 1, Open: true, Summary: "Crash <on> startup"},
		},
		BugIDs: []int64{1, 2},
		Stats:  domain.ComputeStats(series, now),
	}
}

func TestChartPayload(t *testing.T) {
	payload := presenter.ChartPayload(exampleSeries())

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	expected := `{
		"data": {
			"xs": {"openBugCounts": "bugDates", "closedBugCounts": "bugDates"},
			"columns": [
				["bugDates", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"],
				["closedBugCounts", 0, 0, 1, 1],
				["openBugCounts", 1, 2, 1, 1]
			],
			"names": {"openBugCounts": "Open Bugs", "closedBugCounts": "Closed Bugs"},
			"types": {"openBugCounts": "area", "closedBugCounts": "area"},
			"colors": {"openBugCounts": "#FFA537", "closedBugCounts": "#00B3F5"},
			"groups": [["openBugCounts", "closedBugCounts"]],
			"order": null
		},
		"axis": {"x": {"type": "timeseries", "tick": {"format": "%Y-%m-%d"}}}
	}`
	assert.JSONEq(t, expected, string(raw))
}

func TestChartPayload_Empty(t *testing.T) {
	payload := presenter.ChartPayload(domain.Series{})

	require.Len(t, payload.Data.Columns, 3)
	for _, col := range payload.Data.Columns {
		assert.Len(t, col, 1, "only the key remains")
	}
}

func TestBugLinks(t *testing.T) {
	bugs := []*domain.Bug{
		{ID: 7, Open: true, Summary: "First"},
		{ID: 8, Open: false, Summary: "Closed"},
		{ID: 9, Open: true, Summary: "Second"},
	}

	links := presenter.BugLinks(bugs, testLinker{}.BugURL)

	require.Len(t, links, 2)
	assert.Equal(t, "bug 7 - First", links[0].Text)
	assert.Equal(t, "https://bugs.test/show_bug.cgi?id=7", links[0].URL)
	assert.Equal(t, "bug 9 - Second", links[1].Text)
	assert.Equal(t, []int64{7, 9}, presenter.LinkIDs(links))
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "no results", err: apperrors.ErrNoResults, want: "🙈 Zarro boogs found"},
		{name: "fetch error", err: apperrors.NewFetchError("HTTP 502", errors.New("bad gateway")), want: "🤮 HTTP 502"},
		{name: "validation", err: apperrors.NewValidationError(apperrors.ErrInvalidStartDate, "Invalid start date", nil), want: "🤮 Invalid start date"},
		{name: "field errors", err: func() error {
			errs := apperrors.NewValidationErrors()
			errs.Add("since", "bad")
			errs.Add("burnup_weight", "bad")
			return errs
		}(), want: "🤮 invalid burnup_weight, since"},
		{name: "malformed", err: apperrors.ErrMalformedQuery, want: "🤮 malformed query"},
		{name: "other", err: errors.New("boom"), want: "🤮 internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, presenter.ErrorText(tt.err))
		})
	}
}

func TestNewPage(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		page := presenter.NewPage("?component=DOM", exampleReport(), nil, testLinker{})

		assert.Equal(t, "Burning up: component=DOM", page.Title)
		assert.Empty(t, page.ErrorText)
		require.Len(t, page.Links, 1)
		assert.Equal(t, "https://bugs.test/buglist.cgi?bug_id=1,", page.BugListURL)
	})

	t.Run("error keeps the query title", func(t *testing.T) {
		page := presenter.NewPage("?component=DOM&since=2024-01-01/", nil, apperrors.ErrNoResults, testLinker{})

		assert.Equal(t, "Burning up: component=DOM, since=2024-01-01", page.Title)
		assert.Equal(t, presenter.NoBugsText, page.ErrorText)
		assert.Nil(t, page.Report)
	})

	t.Run("no query", func(t *testing.T) {
		page := presenter.NewPage("", nil, apperrors.ErrNoResults, testLinker{})

		assert.Equal(t, presenter.PageTitle, page.Title)
	})
}

func TestRenderPage(t *testing.T) {
	t.Run("chart", func(t *testing.T) {
		var buf bytes.Buffer
		page := presenter.NewPage("component=DOM", exampleReport(), nil, testLinker{})

		require.NoError(t, presenter.RenderPage(&buf, page))

		html := buf.String()
		assert.Contains(t, html, "<title>Burning up: component=DOM</title>")
		assert.Contains(t, html, "echarts.min.js")
		assert.Contains(t, html, "Open Bugs")
		assert.Contains(t, html, "Closed Bugs")
		assert.Contains(t, html, "#FFA537")
		assert.Contains(t, html, "bug 1 - Crash &lt;on&gt; startup")
		assert.Contains(t, html, `href="https://bugs.test/buglist.cgi?bug_id=1,"`)
		assert.Contains(t, html, "Open bug list in Bugzilla")
		assert.Contains(t, html, "Forecast min")
	})

	t.Run("error text replaces the chart", func(t *testing.T) {
		var buf bytes.Buffer
		page := presenter.NewPage("component=DOM", nil, apperrors.NewFetchError("timeout", errors.New("slow")), testLinker{})

		require.NoError(t, presenter.RenderPage(&buf, page))

		html := buf.String()
		assert.Contains(t, html, "🤮 timeout")
		assert.NotContains(t, html, "echarts.min.js")
		assert.NotContains(t, html, "Open bug list in Bugzilla")
	})
}

func TestWriteSummary(t *testing.T) {
	report := exampleReport()
	report.Settings = domain.ReportSettings{StartDate: "2024-01-01", Weight: domain.WeightCount}
	report.Stats.Forecasts[0].Version = "125"

	var buf bytes.Buffer
	require.NoError(t, presenter.WriteSummary(&buf, report))

	assert.Equal(t, strings.Join([]string{
		"Burning up: component=DOM",
		"Since 2024-01-01 (count weighting), 3 days",
		"Progress: 1 of 2 bugs closed = 50%",
		"Velocity: 1 bugs closed (0 -> 1) in 3 days = 0.33 bugs closed per day",
		"Velocity: 1 bugs opened (1 -> 2) / 3 days = 0.33 bugs opened per day",
		"Forecast min: 1 open bugs / 0.33 bugs closed per day = 3 days -> 2024-01-07 (125)",
		"Forecast max: 1 open bugs / 0 bugs closed per day -> Infinity",
		"",
	}, "\n"), buf.String())
}
