package releases_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lorrc/bug-burndown/internal/adapters/secondary/releases"
	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCalendar = `releases:
  - version: "126"
    cutoff: 2024-05-13
  - version: "125"
    cutoff: 2024-04-15
`

func TestLoad(t *testing.T) {
	t.Run("reads and orders the calendar", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "releases.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleCalendar), 0o600))

		calendar, err := releases.Load(path)

		require.NoError(t, err)
		assert.Equal(t, []domain.Release{
			{Version: "125", Cutoff: "2024-04-15"},
			{Version: "126", Cutoff: "2024-05-13"},
		}, calendar.Releases())
		assert.Equal(t, "125", calendar.VersionFor("2024-04-15"))
		assert.Equal(t, "126", calendar.VersionFor("2024-04-16"))
		assert.Equal(t, domain.UnknownVersion, calendar.VersionFor("2024-06-01"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := releases.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidCalendar)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := releases.Load("")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCalendar)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantLen int
	}{
		{name: "valid", input: sampleCalendar, wantLen: 2},
		{name: "empty document", input: "", wantLen: 0},
		{name: "bad cutoff", input: "releases:\n  - version: \"1\"\n    cutoff: soon\n", wantErr: true},
		{name: "missing version", input: "releases:\n  - cutoff: 2024-01-01\n", wantErr: true},
		{name: "unknown key", input: "releases:\n  - version: \"1\"\n    cutoff: 2024-01-01\n    codename: x\n", wantErr: true},
		{name: "not yaml", input: "releases: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calendar, err := releases.Parse(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidCalendar)
				return
			}
			require.NoError(t, err)
			assert.Len(t, calendar.Releases(), tt.wantLen)
		})
	}
}
