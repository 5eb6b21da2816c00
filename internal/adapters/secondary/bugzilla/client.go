package bugzilla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/lorrc/bug-burndown/internal/core/ports"
)

// DefaultBaseURL is the Mozilla Bugzilla instance.
const DefaultBaseURL = "https://bugzilla.mozilla.org"

// apiKeyHeader carries the optional API key on every request.
const apiKeyHeader = "X-BUGZILLA-API-KEY"

// maxResponseBytes bounds a single search page.
const maxResponseBytes = 64 << 20

// Config holds configuration for creating a Bugzilla REST client.
type Config struct {
	// BaseURL is the root of the Bugzilla installation. Defaults to
	// DefaultBaseURL.
	BaseURL string

	// APIKey is sent as X-BUGZILLA-API-KEY when set. Anonymous searches
	// only see public bugs.
	APIKey string

	// PageSize is the number of bugs requested per page. Zero requests
	// everything in one call.
	PageSize int

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client searches a Bugzilla installation over its REST API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.BugSearcher = (*Client)(nil)

// NewClient creates a Bugzilla client. Returns an error if the base URL is
// not an absolute http(s) URL.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("bugzilla: base URL must be an absolute http(s) URL (got %q)", baseURL)
	}
	if config.PageSize < 0 {
		return nil, fmt.Errorf("bugzilla: page size must not be negative (got %d)", config.PageSize)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		pageSize:   config.PageSize,
		httpClient: httpClient,
		logger:     logger.With("component", "bugzilla_client"),
	}, nil
}

// SearchBugs runs query (a buglist.cgi style query string) and returns every
// matching bug. Pages are fetched one after another until an empty page
// arrives, since the server may cap a page below the requested size. A query
// that sets its own limit is sent as a single request.
func (c *Client) SearchBugs(ctx context.Context, query string) ([]*domain.Bug, error) {
	query = strings.Trim(query, "&")
	paged := c.pageSize > 0 && !hasParam(query, "limit")

	var bugs []*domain.Bug
	for offset := 0; ; {
		page, err := c.searchPage(ctx, query, paged, offset)
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			bugs = append(bugs, b.toDomain())
		}

		if !paged || len(page) == 0 {
			break
		}
		if len(page) < c.pageSize {
			c.logger.DebugContext(ctx, "short search page, server may cap the page size",
				"requested", c.pageSize, "received", len(page))
		}
		offset += len(page)
		c.logger.DebugContext(ctx, "fetching next search page", "offset", offset)
	}

	if bugs == nil {
		bugs = []*domain.Bug{}
	}
	return bugs, nil
}

func (c *Client) searchPage(ctx context.Context, query string, paged bool, offset int) ([]bugJSON, error) {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/rest/bug?")
	if query != "" {
		b.WriteString(query)
		b.WriteString("&")
	}
	b.WriteString("include_fields=")
	b.WriteString(includeFields)
	if paged {
		fmt.Fprintf(&b, "&limit=%d&offset=%d", c.pageSize, offset)
	}

	var response searchResponse
	if err := c.get(ctx, b.String(), &response); err != nil {
		return nil, err
	}
	return response.Bugs, nil
}

// Ping checks that the installation answers its version endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var version struct {
		Version string `json:"version"`
	}
	return c.get(ctx, c.baseURL+"/rest/version", &version)
}

// BugURL returns the page of a single bug.
func (c *Client) BugURL(id int64) string {
	return c.baseURL + "/show_bug.cgi?id=" + strconv.FormatInt(id, 10)
}

// BugListURL returns the buglist page showing all of ids. Every id is
// followed by a comma, which Bugzilla ignores.
func (c *Client) BugListURL(ids []int64) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/buglist.cgi?bug_id=")
	for _, id := range ids {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteString(",")
	}
	return b.String()
}

// get executes a GET request and decodes the JSON body into result. Every
// failure is returned as a *apperrors.FetchError.
func (c *Client) get(ctx context.Context, requestURL string, result any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return apperrors.NewFetchError("invalid request", err)
	}
	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set(apiKeyHeader, c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return apperrors.NewFetchError(transportErrorType(ctx, err), err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return apperrors.NewFetchError(transportErrorType(ctx, err), err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIError(response.StatusCode, body)
	}

	// Bugzilla sometimes reports failures with a 200 and an error body.
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error {
		return newAPIError(response.StatusCode, apiErr)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return apperrors.NewFetchError("invalid response", fmt.Errorf("bugzilla: decoding response: %w", err))
	}
	return nil
}

func transportErrorType(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network error"
}

func hasParam(query, key string) bool {
	for _, pair := range strings.Split(query, "&") {
		k, _, _ := strings.Cut(pair, "=")
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
