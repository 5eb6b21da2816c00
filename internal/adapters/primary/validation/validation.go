package validation

import (
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/bug-burndown/internal/core/domain"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// MaxQueryLength bounds the query string forwarded to the tracker.
const MaxQueryLength = 4096

// reservedParams are set by the Bugzilla client on every search.
var reservedParams = []string{"include_fields", "exclude_fields", "offset"}

const paramLimit = "limit"

// Validator collects field errors
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the collected errors, or nil when there are none.
func (v *Validator) Err() error {
	if !v.errors.HasErrors() {
		return nil
	}
	return v.errors
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// Day validates that a non-empty value is a YYYY-MM-DD date
func (v *Validator) Day(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := time.Parse(domain.DayLayout, value); err != nil {
		v.errors.Add(field, "Must be a date formatted as YYYY-MM-DD")
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}

	for _, a := range allowed {
		if value == a {
			return v
		}
	}

	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Absent validates that a parameter was not supplied
func (v *Validator) Absent(field string, present bool) *Validator {
	if present {
		v.errors.Add(field, "Is set by the service and cannot be overridden")
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// BurndownQuery checks the parameters of a burndown request and reports
// every problem at once. qs must already be normalized.
func BurndownQuery(qs string, params domain.QueryParams) error {
	v := NewValidator().
		MaxLength("query", qs, MaxQueryLength).
		Day(domain.ParamSince, params.Get(domain.ParamSince)).
		Day(domain.ParamBurnupSince, params.Get(domain.ParamBurnupSince)).
		OneOf(domain.ParamWeight, params.Get(domain.ParamWeight), []string{
			string(domain.WeightCount),
			string(domain.WeightPoints),
		})

	for _, name := range reservedParams {
		v.Absent(name, params.Has(name))
	}

	// A limit turns off paging and goes to Bugzilla as is. Zero asks for
	// every match.
	if params.Has(paramLimit) {
		n, err := strconv.Atoi(params.Get(paramLimit))
		v.Custom(paramLimit, err == nil && n >= 0, "Must be a non-negative integer")
	}

	return v.Err()
}
