// Package presenter turns a burndown report into what browsers and API
// clients consume: chart input, bug links and the HTML page.
package presenter

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// Series keys and display attributes shared by the payload and the page.
const (
	DatesKey  = "bugDates"
	OpenKey   = "openBugCounts"
	ClosedKey = "closedBugCounts"

	OpenName   = "Open Bugs"
	ClosedName = "Closed Bugs"

	OpenColor   = "#FFA537"
	ClosedColor = "#00B3F5"

	NoBugsText = "🙈 Zarro boogs found"
)

// Payload is the columnar chart input understood by billboard.js.
type Payload struct {
	Data PayloadData `json:"data"`
	Axis PayloadAxis `json:"axis"`
}

// PayloadData holds the columns and per-series display settings.
type PayloadData struct {
	XS      map[string]string `json:"xs"`
	Columns [][]any           `json:"columns"`
	Names   map[string]string `json:"names"`
	Types   map[string]string `json:"types"`
	Colors  map[string]string `json:"colors"`
	Groups  [][]string        `json:"groups"`
	Order   *string           `json:"order"`
}

// PayloadAxis configures the x axis.
type PayloadAxis struct {
	X PayloadXAxis `json:"x"`
}

type PayloadXAxis struct {
	Type string      `json:"type"`
	Tick PayloadTick `json:"tick"`
}

type PayloadTick struct {
	Format string `json:"format"`
}

// ChartPayload builds the stacked area payload for series. Each column
// starts with its key followed by one value per day.
func ChartPayload(series domain.Series) Payload {
	return Payload{
		Data: PayloadData{
			XS: map[string]string{
				OpenKey:   DatesKey,
				ClosedKey: DatesKey,
			},
			Columns: [][]any{
				column(DatesKey, series.Dates),
				column(ClosedKey, series.Closed),
				column(OpenKey, series.Open),
			},
			Names: map[string]string{
				OpenKey:   OpenName,
				ClosedKey: ClosedName,
			},
			Types: map[string]string{
				OpenKey:   "area",
				ClosedKey: "area",
			},
			Colors: map[string]string{
				OpenKey:   OpenColor,
				ClosedKey: ClosedColor,
			},
			Groups: [][]string{{OpenKey, ClosedKey}},
		},
		Axis: PayloadAxis{
			X: PayloadXAxis{
				Type: "timeseries",
				Tick: PayloadTick{Format: "%Y-%m-%d"},
			},
		},
	}
}

func column[T any](key string, values []T) []any {
	col := make([]any, 0, len(values)+1)
	col = append(col, key)
	for _, v := range values {
		col = append(col, v)
	}
	return col
}

// BugLink is one entry of the open bug list.
type BugLink struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

// BugLinks lists the open bugs as "bug <id> - <summary>" in input order.
func BugLinks(bugs []*domain.Bug, bugURL func(int64) string) []BugLink {
	links := make([]BugLink, 0, len(bugs))
	for _, bug := range bugs {
		if !bug.Open {
			continue
		}
		links = append(links, BugLink{
			ID:   bug.ID,
			Text: "bug " + strconv.FormatInt(bug.ID, 10) + " - " + bug.Summary,
			URL:  bugURL(bug.ID),
		})
	}
	return links
}

// LinkIDs returns the ids of links in order.
func LinkIDs(links []BugLink) []int64 {
	ids := make([]int64, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}

// ErrorText is the message shown in place of the chart when err stops a
// burndown from being drawn.
func ErrorText(err error) string {
	var fetchErr *apperrors.FetchError
	var appErr *apperrors.AppError
	var validationErrs *apperrors.ValidationErrors
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrNoResults):
		return NoBugsText
	case errors.As(err, &fetchErr):
		return "🤮 " + fetchErr.Type
	case errors.As(err, &appErr):
		return "🤮 " + appErr.Message
	case errors.As(err, &validationErrs):
		fields := make([]string, 0, len(validationErrs.Errors))
		for field := range validationErrs.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		return "🤮 invalid " + strings.Join(fields, ", ")
	case errors.Is(err, apperrors.ErrMalformedQuery):
		return "🤮 malformed query"
	default:
		return "🤮 internal error"
	}
}
