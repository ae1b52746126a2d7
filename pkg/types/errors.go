package types

import (
	"errors"
	"fmt"
	"net/http"
)

// VenueError represents a failed call against an exchange endpoint.
type VenueError struct {
	Exchange string // exchange name
	Status   int    // HTTP status, 0 for transport-level failures
	Message  string // human-readable detail
}

func (e *VenueError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed: %s (HTTP %d)", e.Exchange, e.Message, e.Status)
	}

	return fmt.Sprintf("%s request failed: %s", e.Exchange, e.Message)
}

// RateLimited reports whether the venue rejected the call for request-rate
// reasons. MEXC answers 403 instead of 429 when throttling.
func (e *VenueError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == http.StatusForbidden
}

// ConfigError reports an invalid startup option. It is the only error class
// that aborts the process.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Key, e.Reason)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError

	return errors.As(err, &ce)
}
