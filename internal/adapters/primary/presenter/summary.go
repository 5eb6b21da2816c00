package presenter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/lorrc/bug-burndown/internal/core/domain"
)

// WriteSummary writes the progress, velocity and forecast lines of report
// as plain text.
func WriteSummary(w io.Writer, report *domain.Report) error {
	s := report.Stats
	total := s.CurrentOpen + s.CurrentClosed

	lines := []string{
		report.Title,
		fmt.Sprintf("Since %s (%s weighting), %d days", report.Settings.StartDate, report.Settings.Weight, s.PeriodDays),
		fmt.Sprintf("Progress: %d of %d bugs closed = %s%%",
			s.CurrentClosed, total, formatFloat(domain.RoundDown(s.Progress)*100)),
		fmt.Sprintf("Velocity: %d bugs closed (%d -> %d) in %d days = %s bugs closed per day",
			s.BugsClosed, s.InitialClosed, s.CurrentClosed, s.PeriodDays, formatFloat(domain.RoundDown(s.ClosedPerDay))),
		fmt.Sprintf("Velocity: %d bugs opened (%d -> %d) / %d days = %s bugs opened per day",
			s.BugsOpened, s.InitialOpen, s.CurrentOpen+s.BugsClosed, s.PeriodDays, formatFloat(domain.RoundDown(s.OpenedPerDay))),
	}
	for _, f := range s.Forecasts {
		lines = append(lines, forecastLine(f))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func forecastLine(f domain.Forecast) string {
	prefix := fmt.Sprintf("%s: %d open bugs / %s bugs closed per day",
		f.Label, f.OpenCount, formatFloat(domain.RoundDown(f.Velocity)))
	if f.Unbounded {
		return prefix + " -> Infinity"
	}
	line := fmt.Sprintf("%s = %d days -> %s", prefix, f.DaysToZero, f.Date)
	if f.Version != "" {
		line += " (" + f.Version + ")"
	}
	return line
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
