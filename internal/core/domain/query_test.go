package domain_test

import (
	"testing"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQueryString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"only question mark", "?", ""},
		{"leading question mark", "?foo=bar&baz=qux", "foo=bar&baz=qux"},
		{"trailing slash", "?foo=bar&baz=qux&/", "foo=bar&baz=qux&"},
		{"already normalized", "foo=bar", "foo=bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizeQueryString(tt.raw))
		})
	}
}

func TestParseQueryString(t *testing.T) {
	tests := []struct {
		name string
		qs   string
		want domain.QueryParams
	}{
		{
			name: "simple pairs",
			qs:   "foo=bar&baz=qux",
			want: domain.QueryParams{"foo": "bar", "baz": "qux"},
		},
		{
			name: "keys are lower-cased",
			qs:   "Since=2024-01-01",
			want: domain.QueryParams{"since": "2024-01-01"},
		},
		{
			name: "values are decoded",
			qs:   "classification=Client%20Software&product=Core",
			want: domain.QueryParams{"classification": "Client Software", "product": "Core"},
		},
		{
			name: "split on first equals only",
			qs:   "f1=a=b",
			want: domain.QueryParams{"f1": "a=b"},
		},
		{
			name: "key without value maps to empty string",
			qs:   "burnup_ignore_old_closed_bugs&product=Core",
			want: domain.QueryParams{"burnup_ignore_old_closed_bugs": "", "product": "Core"},
		},
		{
			name: "empty key stops the parse",
			qs:   "product=Core&&component=DOM",
			want: domain.QueryParams{"product": "Core"},
		},
		{
			name: "trailing separator",
			qs:   "product=Core&",
			want: domain.QueryParams{"product": "Core"},
		},
		{
			name: "empty query",
			qs:   "",
			want: domain.QueryParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseQueryString(tt.qs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQueryString_MalformedEscape(t *testing.T) {
	_, err := domain.ParseQueryString("product=%zz")

	assert.ErrorIs(t, err, apperrors.ErrMalformedQuery)
}

func TestQueryParams_Has(t *testing.T) {
	params, err := domain.ParseQueryString("flag&key=value")
	require.NoError(t, err)

	assert.True(t, params.Has("flag"))
	assert.Equal(t, "", params.Get("flag"))
	assert.True(t, params.Has("key"))
	assert.False(t, params.Has("missing"))
}

func TestStripControlParams(t *testing.T) {
	qs := "product=Core&since=2024-01-01&Burnup_Since=2024-02-01&burnup_ignore_old_closed_bugs&burnup_weight=points&component=DOM"

	assert.Equal(t, "product=Core&component=DOM", domain.StripControlParams(qs))
	assert.Equal(t, "", domain.StripControlParams(""))
}

func TestChartTitle(t *testing.T) {
	assert.Equal(t, "Burning up: product=Core, component=DOM", domain.ChartTitle("product=Core&component=DOM"))
}
