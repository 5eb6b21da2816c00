package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// UnknownVersion is reported when a forecast lands after every known release.
const UnknownVersion = "unknown"

// MaxForecastDays is the longest projection reported as a date. Slower
// burn rates are treated as never reaching zero.
const MaxForecastDays = math.MaxInt32

// Forecast is a single linear projection of when the open count reaches zero.
type Forecast struct {
	Label      string
	Velocity   float64 // bugs closed per day
	OpenCount  int
	DaysToZero int
	Date       string // empty when Unbounded
	Unbounded  bool
	Version    string // empty when no release calendar is configured
}

// ForecastZeroBugs projects the zero-bug date for openCount bugs burning down
// at velocity per day. A velocity of zero or less never reaches zero, and
// neither does one that needs more than MaxForecastDays.
func ForecastZeroBugs(label string, velocity float64, openCount int, now time.Time) Forecast {
	f := Forecast{
		Label:     label,
		Velocity:  velocity,
		OpenCount: openCount,
	}
	if velocity <= 0 {
		f.Unbounded = true
		return f
	}
	days := math.Ceil(float64(openCount) / velocity)
	if math.IsNaN(days) || days > MaxForecastDays {
		f.Unbounded = true
		return f
	}
	f.DaysToZero = int(days)
	f.Date = DayString(now.UTC().AddDate(0, 0, f.DaysToZero))
	return f
}

// Stats summarizes progress and velocity over the charted period.
type Stats struct {
	PeriodDays      int
	InitialOpen     int
	CurrentOpen     int
	InitialClosed   int
	CurrentClosed   int
	BugsClosed      int
	BugsOpened      int
	ClosedPerDay    float64
	OpenedPerDay    float64
	NetClosedPerDay float64
	Progress        float64 // fraction of all charted bugs that are closed
	Forecasts       []Forecast
}

// ComputeStats derives velocities and the two zero-bug forecasts from a
// non-empty series. The minimum forecast assumes nothing new is filed; the
// maximum one nets out the incoming rate.
func ComputeStats(series Series, now time.Time) Stats {
	if series.Empty() {
		return Stats{}
	}
	last := series.Len() - 1

	var s Stats
	s.PeriodDays = periodDays(series.Dates[0], series.Dates[last])
	s.InitialOpen, s.CurrentOpen = series.Open[0], series.Open[last]
	s.InitialClosed, s.CurrentClosed = series.Closed[0], series.Closed[last]
	s.BugsClosed = s.CurrentClosed - s.InitialClosed
	s.BugsOpened = s.CurrentOpen - s.InitialOpen + s.BugsClosed
	if s.PeriodDays > 0 {
		s.ClosedPerDay = float64(s.BugsClosed) / float64(s.PeriodDays)
		s.OpenedPerDay = float64(s.BugsOpened) / float64(s.PeriodDays)
	}
	s.NetClosedPerDay = s.ClosedPerDay - s.OpenedPerDay
	if total := s.CurrentOpen + s.CurrentClosed; total > 0 {
		s.Progress = float64(s.CurrentClosed) / float64(total)
	}

	s.Forecasts = []Forecast{
		ForecastZeroBugs("Forecast min", s.ClosedPerDay, s.CurrentOpen, now),
		ForecastZeroBugs("Forecast max", s.NetClosedPerDay, s.CurrentOpen, now),
	}
	return s
}

func periodDays(first, last string) int {
	start, err := time.Parse(DayLayout, first)
	if err != nil {
		return 0
	}
	end, err := time.Parse(DayLayout, last)
	if err != nil {
		return 0
	}
	return int(math.Ceil(float64(end.Sub(start)) / float64(Day)))
}

// RoundDown truncates f to two decimal places.
func RoundDown(f float64) float64 {
	return math.Floor(f*100) / 100
}

// Release is a version and the last day that can still land in it.
type Release struct {
	Version string
	Cutoff  string
}

// ReleaseCalendar maps forecast dates onto release versions.
type ReleaseCalendar struct {
	releases []Release
}

// NewReleaseCalendar validates the cutoff dates and orders them.
func NewReleaseCalendar(releases []Release) (*ReleaseCalendar, error) {
	sorted := make([]Release, 0, len(releases))
	for _, r := range releases {
		if r.Version == "" {
			return nil, fmt.Errorf("%w: release with cutoff %q has no version", apperrors.ErrInvalidCalendar, r.Cutoff)
		}
		if _, err := time.Parse(DayLayout, r.Cutoff); err != nil {
			return nil, fmt.Errorf("%w: version %s: cutoff %q is not YYYY-MM-DD", apperrors.ErrInvalidCalendar, r.Version, r.Cutoff)
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cutoff < sorted[j].Cutoff
	})
	return &ReleaseCalendar{releases: sorted}, nil
}

// VersionFor returns the first version whose cutoff is on or after date.
func (c *ReleaseCalendar) VersionFor(date string) string {
	for _, r := range c.releases {
		if r.Cutoff >= date {
			return r.Version
		}
	}
	return UnknownVersion
}

// Releases returns the calendar in cutoff order.
func (c *ReleaseCalendar) Releases() []Release {
	return append([]Release(nil), c.releases...)
}
