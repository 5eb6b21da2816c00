package bugzilla

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// APIError is a failure reported by Bugzilla itself, either as a non-2xx
// status or as an error body.
type APIError struct {
	StatusCode int
	Code       int // Bugzilla error code, 0 when the body carried none
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bugzilla: HTTP %d: error %d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("bugzilla: HTTP %d: %s", e.StatusCode, e.Message)
}

func newAPIError(statusCode int, body errorResponse) *apperrors.FetchError {
	apiErr := &APIError{StatusCode: statusCode, Code: body.Code, Message: body.Message}
	return apperrors.NewFetchError(apiErr.errorType(), apiErr)
}

// maxErrorMessage bounds the copy kept from a non-JSON error body.
const maxErrorMessage = 200

// parseAPIError builds the error for a non-2xx response. Bodies that are not
// Bugzilla error JSON keep a truncated copy as the message.
func parseAPIError(statusCode int, body []byte) *apperrors.FetchError {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == "" {
		message := string(body)
		if len(message) > maxErrorMessage {
			// Cutting at a byte count can split a rune
			message = strings.ToValidUTF8(message[:maxErrorMessage], "")
		}
		parsed = errorResponse{Message: message}
	}
	return newAPIError(statusCode, parsed)
}

func (e *APIError) errorType() string {
	if e.Code != 0 {
		return fmt.Sprintf("bugzilla error %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
