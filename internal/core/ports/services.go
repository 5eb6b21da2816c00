package ports

import (
	"context"
	"time"

	"github.com/lorrc/bug-burndown/internal/core/domain"
)

// BugSearcher defines the port for running a search against the bug tracker.
// Implementations return every matching bug, or a *errors.FetchError.
type BugSearcher interface {
	SearchBugs(ctx context.Context, query string) ([]*domain.Bug, error)
	BugURL(id int64) string
	BugListURL(ids []int64) string
}

// ReleaseCalendar defines the port for mapping a day onto a release version.
type ReleaseCalendar interface {
	VersionFor(date string) string
}

// Clock defines the port for reading the current time.
type Clock interface {
	Now() time.Time
}

// BurndownService defines the core operation of building a burndown report.
type BurndownService interface {
	Burndown(ctx context.Context, rawQuery string) (*domain.Report, error)
}

// SearchObserver receives the outcome of each bug search.
type SearchObserver interface {
	ObserveSearch(duration time.Duration, bugs int, err error)
}
