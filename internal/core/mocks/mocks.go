package mocks

import (
	"context"
	"time"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	"github.com/lorrc/bug-burndown/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockBugSearcher is a mock implementation of ports.BugSearcher
type MockBugSearcher struct {
	mock.Mock
}

var _ ports.BugSearcher = (*MockBugSearcher)(nil)

func NewMockBugSearcher() *MockBugSearcher {
	return &MockBugSearcher{}
}

func (m *MockBugSearcher) SearchBugs(ctx context.Context, query string) ([]*domain.Bug, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bug), args.Error(1)
}

func (m *MockBugSearcher) BugURL(id int64) string {
	args := m.Called(id)
	return args.String(0)
}

func (m *MockBugSearcher) BugListURL(ids []int64) string {
	args := m.Called(ids)
	return args.String(0)
}

// MockReleaseCalendar is a mock implementation of ports.ReleaseCalendar
type MockReleaseCalendar struct {
	mock.Mock
}

var _ ports.ReleaseCalendar = (*MockReleaseCalendar)(nil)

func NewMockReleaseCalendar() *MockReleaseCalendar {
	return &MockReleaseCalendar{}
}

func (m *MockReleaseCalendar) VersionFor(date string) string {
	args := m.Called(date)
	return args.String(0)
}

// MockSearchObserver is a mock implementation of ports.SearchObserver
type MockSearchObserver struct {
	mock.Mock
}

var _ ports.SearchObserver = (*MockSearchObserver)(nil)

func NewMockSearchObserver() *MockSearchObserver {
	return &MockSearchObserver{}
}

func (m *MockSearchObserver) ObserveSearch(duration time.Duration, bugs int, err error) {
	m.Called(duration, bugs, err)
}

// MockBurndownService is a mock implementation of ports.BurndownService
type MockBurndownService struct {
	mock.Mock
}

var _ ports.BurndownService = (*MockBurndownService)(nil)

func NewMockBurndownService() *MockBurndownService {
	return &MockBurndownService{}
}

func (m *MockBurndownService) Burndown(ctx context.Context, rawQuery string) (*domain.Report, error) {
	args := m.Called(ctx, rawQuery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
