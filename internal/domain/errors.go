package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoCandidates is returned when matching is attempted against an empty catalog
	ErrNoCandidates = errors.New("no catalog candidates")

	// ErrConfig is returned when a fee parameter is missing, zero where it must not be, or out of range
	ErrConfig = errors.New("invalid fee configuration")

	// ErrValidation is returned when a single input record is malformed
	ErrValidation = errors.New("invalid record")

	// ErrCatalogNotReady is returned while the catalog has not been published yet
	ErrCatalogNotReady = errors.New("catalog not loaded yet")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrUpstreamFailure is returned when the demand API request fails
	ErrUpstreamFailure = errors.New("demand API request failed")
)

// NoCandidatesError is fatal to a matching call. No partial result accompanies it.
type NoCandidatesError struct {
	DemandItems int
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no catalog candidates to match %d demand items against", e.DemandItems)
}

func (e *NoCandidatesError) Is(target error) bool {
	return target == ErrNoCandidates
}

// ConfigError reports a structurally invalid fee configuration or a zero sell price.
// It aborts the whole scoring call.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// ValidationError reports a malformed field on one input record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RecordError ties a per-record failure to its position in the input batch.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("record %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the failure in the shape returned to API callers.
func (e RecordError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Index int    `json:"index"`
		ID    string `json:"id,omitempty"`
		Error string `json:"error"`
	}{e.Index, e.ID, msg})
}
