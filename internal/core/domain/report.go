package domain

import "time"

// ReportSettings records the parameters a report was built with.
type ReportSettings struct {
	Query           string // bug search sent to the tracker, filter included
	StartDate       string
	IgnoreOldClosed bool
	Weight          Weighting
	GeneratedAt     time.Time
}

// Report is everything the page needs to draw one burndown.
type Report struct {
	Title    string
	Series   Series
	OpenBugs []*Bug
	// BugIDs lists every bug the search returned, in search order.
	BugIDs   []int64
	Stats    Stats
	Settings ReportSettings
}
