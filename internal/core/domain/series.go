package domain

import (
	"sort"
	"time"
)

// DayBucket holds the activity recorded on one calendar day.
type DayBucket struct {
	Day    string
	Opened int
	Closed int
}

// Series is the cumulative burndown. Index i of Dates, Open and Closed all
// describe the same day.
type Series struct {
	Dates  []string
	Open   []int
	Closed []int
}

// Empty reports whether the series has no points to draw.
func (s Series) Empty() bool {
	return len(s.Dates) == 0
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	return len(s.Dates)
}

// SeriesOptions controls how bugs are bucketed into a Series.
type SeriesOptions struct {
	// Floor is the first day of the chart (YYYY-MM-DD). Earlier activity is
	// clamped onto it.
	Floor string
	// Now decides which day counts as today.
	Now time.Time
	// IgnoreOldClosed keeps closures clamped onto the first day out of the
	// closed total, so bugs fixed before the window do not show as a spike.
	IgnoreOldClosed bool
	Weight          Weighting
}

// BucketBugs groups bug activity into per-day deltas, sorted by day.
func BucketBugs(bugs []*Bug, floor string, weight Weighting) []DayBucket {
	byDay := make(map[string]*DayBucket)
	bucket := func(day string) *DayBucket {
		if day < floor {
			day = floor
		}
		b, ok := byDay[day]
		if !ok {
			b = &DayBucket{Day: day}
			byDay[day] = b
		}
		return b
	}

	for _, bug := range bugs {
		w := bug.Weight(weight)
		bucket(DayString(bug.CreatedAt)).Opened += w
		if !bug.Open {
			bucket(DayString(bug.ClosedAt())).Closed += w
		}
	}

	buckets := make([]DayBucket, 0, len(byDay))
	for _, b := range byDay {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Day < buckets[j].Day
	})
	return buckets
}

// BuildSeries turns bugs into running open/closed totals that start at
// opts.Floor and end no earlier than today. No bugs yields an empty series.
func BuildSeries(bugs []*Bug, opts SeriesOptions) Series {
	if len(bugs) == 0 {
		return Series{}
	}

	buckets := BucketBugs(bugs, opts.Floor, opts.Weight)
	series := Series{
		Dates:  make([]string, 0, len(buckets)+2),
		Open:   make([]int, 0, len(buckets)+2),
		Closed: make([]int, 0, len(buckets)+2),
	}

	openCount, closedCount := 0, 0
	for i, b := range buckets {
		openCount += b.Opened - b.Closed
		if i > 0 || !opts.IgnoreOldClosed {
			closedCount += b.Closed
		}
		series.append(b.Day, openCount, closedCount)
	}

	if first := series.Dates[0]; first > opts.Floor {
		series.prepend(opts.Floor, series.Open[0], series.Closed[0])
	}
	if today := DayString(opts.Now); series.Dates[series.Len()-1] < today {
		series.append(today, openCount, closedCount)
	}
	return series
}

func (s *Series) append(day string, open, closed int) {
	s.Dates = append(s.Dates, day)
	s.Open = append(s.Open, open)
	s.Closed = append(s.Closed, closed)
}

func (s *Series) prepend(day string, open, closed int) {
	s.Dates = append([]string{day}, s.Dates...)
	s.Open = append([]int{open}, s.Open...)
	s.Closed = append([]int{closed}, s.Closed...)
}
