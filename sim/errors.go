package sim

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoRunners is wrapped by AggregationError when there is nothing to average.
var ErrNoRunners = errors.New("no completed runners")

// ConfigError reports an invalid configuration value. Configuration errors
// are detected before any Race Run starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AggregationError reports that a scenario could not be aggregated.
// Date is zero when the failure is not tied to a single day.
type AggregationError struct {
	Scenario string
	Date     time.Time
	Reason   string
	Err      error
}

func (e *AggregationError) Error() string {
	msg := fmt.Sprintf("aggregating scenario %q", e.Scenario)
	if !e.Date.IsZero() {
		msg += fmt.Sprintf(" day %s", e.Date.Format(DateLayout))
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AggregationError) Unwrap() error { return e.Err }
