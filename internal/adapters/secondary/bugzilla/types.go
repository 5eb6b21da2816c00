package bugzilla

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/bug-burndown/internal/core/domain"
)

// includeFields limits the search response to what the burndown reads.
const includeFields = "id,summary,is_open,creation_time,last_change_time,cf_last_resolved,cf_fx_points"

// searchResponse is the body of GET /rest/bug.
type searchResponse struct {
	Bugs []bugJSON `json:"bugs"`
}

// errorResponse is the body Bugzilla returns when a call fails.
type errorResponse struct {
	Error   bool   `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type bugJSON struct {
	ID             int64        `json:"id"`
	Summary        string       `json:"summary"`
	IsOpen         bool         `json:"is_open"`
	CreationTime   bugzillaTime `json:"creation_time"`
	LastChangeTime bugzillaTime `json:"last_change_time"`
	LastResolved   bugzillaTime `json:"cf_last_resolved"`
	Points         points       `json:"cf_fx_points"`
}

func (b bugJSON) toDomain() *domain.Bug {
	return &domain.Bug{
		ID:            b.ID,
		Open:          b.IsOpen,
		Summary:       b.Summary,
		CreatedAt:     b.CreationTime.Time,
		ResolvedAt:    b.LastResolved.Time,
		LastChangedAt: b.LastChangeTime.Time,
		Points:        b.Points.value,
	}
}

// bugzillaTime accepts the RFC 3339 timestamps of the REST API and the
// "YYYY-MM-DD hh:mm:ss" form some custom fields still use. Null and empty
// values decode to the zero time.
type bugzillaTime struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

func (t *bugzillaTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bugzilla: timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("bugzilla: unrecognized timestamp %q", s)
}

// points decodes cf_fx_points, which is "---" when unset and either a string
// or a number otherwise.
type points struct {
	value *int
}

func (p *points) UnmarshalJSON(data []byte) error {
	p.value = nil
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" || raw == "---" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || n < 0 || n > math.MaxInt32 {
		// Unparseable or out of range estimates count as unestimated.
		return nil
	}
	v := int(math.Round(n))
	p.value = &v
	return nil
}
