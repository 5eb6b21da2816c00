package domain

import (
	"time"
)

// DefaultBugPoints is the weight of a bug that carries no points estimate.
const DefaultBugPoints = 3

// Weighting selects how much each bug contributes to a day bucket.
type Weighting string

const (
	WeightCount  Weighting = "count"
	WeightPoints Weighting = "points"
)

// IsValid reports whether w is a known weighting.
func (w Weighting) IsValid() bool {
	switch w {
	case WeightCount, WeightPoints:
		return true
	}
	return false
}

// Bug is a single search result from the bug tracker.
type Bug struct {
	ID            int64
	Open          bool
	Summary       string
	CreatedAt     time.Time
	ResolvedAt    time.Time // zero while the bug has never been resolved
	LastChangedAt time.Time
	Points        *int
}

// ClosedAt returns the time the bug was closed. Trackers that do not report a
// resolution time fall back to the last change.
func (b *Bug) ClosedAt() time.Time {
	if !b.ResolvedAt.IsZero() {
		return b.ResolvedAt
	}
	return b.LastChangedAt
}

// Weight returns the bug's contribution under the given weighting.
func (b *Bug) Weight(w Weighting) int {
	if w != WeightPoints {
		return 1
	}
	if b.Points == nil {
		return DefaultBugPoints
	}
	return *b.Points
}
