package domain

import (
	"fmt"
	"time"

	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// DayLayout is the calendar-day format used for bucket keys and chart axes.
// Lexicographic order on this layout is chronological order.
const DayLayout = "2006-01-02"

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 4 * Week // a chart month is exactly four weeks
)

// DefaultChartStartMonths is how far back the chart starts when no start
// date is requested.
const DefaultChartStartMonths = 3

// DayString truncates t to its UTC calendar day.
func DayString(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string as midnight UTC.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidStartDate, day)
	}
	return t, nil
}

// DaysAgo steps back n calendar days in UTC.
func DaysAgo(now time.Time, n int) time.Time {
	return now.UTC().AddDate(0, 0, -n)
}

func WeeksAgo(now time.Time, n int) time.Time {
	return DaysAgo(now, 7*n)
}

func MonthsAgo(now time.Time, n int) time.Time {
	return WeeksAgo(now, 4*n)
}

// ChartStartDate returns the first day shown on the chart. An explicit since
// parameter wins over burnup_since, and both win over the computed default
// of months before now.
func ChartStartDate(params QueryParams, now time.Time, months int) (string, error) {
	for _, key := range []string{ParamSince, ParamBurnupSince} {
		if value := params.Get(key); value != "" {
			if _, err := ParseDay(value); err != nil {
				return "", err
			}
			return value, nil
		}
	}
	return DayString(MonthsAgo(now, months)), nil
}
