package domain

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// Query parameters read by the burndown itself. Every other key is part of
// the bug search and is forwarded to the tracker untouched.
const (
	ParamSince              = "since"
	ParamBurnupSince        = "burnup_since"
	ParamIgnoreOldClosed    = "burnup_ignore_old_closed_bugs"
	ParamWeight             = "burnup_weight"
	chartTitlePrefix        = "Burning up: "
	queryPairSeparator      = "&"
	queryKeyValueSeparator  = "="
	queryTitlePairSeparator = ", "
)

var controlParams = map[string]bool{
	ParamSince:           true,
	ParamBurnupSince:     true,
	ParamIgnoreOldClosed: true,
	ParamWeight:          true,
}

// QueryParams maps lower-cased query keys to their decoded values. A key that
// appears without a value maps to the empty string.
type QueryParams map[string]string

// Has reports whether key was present, with or without a value.
func (p QueryParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Get returns the value for key, or the empty string.
func (p QueryParams) Get(key string) string {
	return p[key]
}

// NormalizeQueryString strips the leading "?" and a single trailing "/" that
// browsers and bookmark tools tend to leave on a location's search part.
func NormalizeQueryString(raw string) string {
	qs := strings.TrimPrefix(raw, "?")
	return strings.TrimSuffix(qs, "/")
}

// ParseQueryString splits qs into key/value pairs. Parsing stops at the first
// pair with an empty key (e.g. "&&"); the pairs before it are kept.
func ParseQueryString(qs string) (QueryParams, error) {
	params := make(QueryParams)
	for _, pair := range strings.Split(qs, queryPairSeparator) {
		key, value, hasValue := strings.Cut(pair, queryKeyValueSeparator)
		key = strings.ToLower(key)
		if key == "" {
			break
		}
		if !hasValue {
			params[key] = ""
			continue
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrMalformedQuery, key, err)
		}
		params[key] = decoded
	}
	return params, nil
}

// StripControlParams removes the burndown's own parameters from qs so that
// only the bug search itself reaches the tracker.
func StripControlParams(qs string) string {
	if qs == "" {
		return ""
	}
	pairs := strings.Split(qs, queryPairSeparator)
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key, _, _ := strings.Cut(pair, queryKeyValueSeparator)
		if controlParams[strings.ToLower(key)] {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, queryPairSeparator)
}

// ChartTitle derives the page title from the query string.
func ChartTitle(qs string) string {
	return chartTitlePrefix + strings.Join(strings.Split(qs, queryPairSeparator), queryTitlePairSeparator)
}
