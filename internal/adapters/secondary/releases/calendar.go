// Package releases loads the table of release versions and their cutoff
// dates used to label zero-bug forecasts.
package releases

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a release calendar:
//
//	releases:
//	  - version: "125"
//	    cutoff: 2024-03-18
type File struct {
	Releases []Entry `yaml:"releases"`
}

// Entry is one version and the last day that still lands in it.
type Entry struct {
	Version string `yaml:"version"`
	Cutoff  string `yaml:"cutoff"`
}

// Load reads a calendar file from path.
func Load(path string) (*domain.ReleaseCalendar, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: calendar path is required", apperrors.ErrInvalidCalendar)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: calendar file not found: %s", apperrors.ErrInvalidCalendar, path)
		}
		return nil, fmt.Errorf("reading release calendar %s: %w", path, err)
	}

	calendar, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("release calendar %s: %w", path, err)
	}
	return calendar, nil
}

// Parse decodes a calendar from r. Unknown keys are rejected.
func Parse(r io.Reader) (*domain.ReleaseCalendar, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCalendar, err)
	}

	entries := make([]domain.Release, 0, len(file.Releases))
	for _, e := range file.Releases {
		entries = append(entries, domain.Release{Version: e.Version, Cutoff: e.Cutoff})
	}
	return domain.NewReleaseCalendar(entries)
}
