package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/rules"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "is required",
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks the whole configuration and returns ValidationErrors
// listing every problem, or nil.
func (c Config) Validate() error {
	var errs ValidationErrors

	collect := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	if err := ValidateRequired("ruler.url", c.Ruler.URL); err != nil {
		collect(err)
	} else if u, err := url.Parse(c.Ruler.URL); err != nil {
		errs.Add("ruler.url", fmt.Sprintf("is not a valid URL: %v", err), c.Ruler.URL)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add("ruler.url", "must be an absolute http or https URL", c.Ruler.URL)
	}
	positiveDuration(&errs, "ruler.timeout", c.Ruler.Timeout)

	r := c.Reconciler
	positiveInt(&errs, "reconciler.workers", r.Workers)
	positiveInt(&errs, "reconciler.maxRetries", r.MaxRetries)
	positiveInt(&errs, "reconciler.conflictRetries", r.ConflictRetries)
	positiveDuration(&errs, "reconciler.initialBackoff", r.InitialBackoff)
	positiveDuration(&errs, "reconciler.reconcileTimeout", r.ReconcileTimeout)
	if r.MaxBackoff < r.InitialBackoff {
		errs.Add("reconciler.maxBackoff", "must not be smaller than reconciler.initialBackoff", r.MaxBackoff.String())
	}
	if _, err := rules.ParseMergeStrategy(r.MergeStrategy); err != nil {
		errs.Add("reconciler.mergeStrategy", err.Error(), r.MergeStrategy)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), c.Logging.Level)
	}
	collect(ValidateOneOf("logging.format", c.Logging.Format,
		[]string{string(logging.FormatText), string(logging.FormatJSON)}))

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func positiveInt(errs *ValidationErrors, field string, v int) {
	if v < 1 {
		errs.Add(field, "must be at least 1", v)
	}
}

func positiveDuration(errs *ValidationErrors, field string, d time.Duration) {
	if d <= 0 {
		errs.Add(field, "must be a positive duration", d.String())
	}
}
