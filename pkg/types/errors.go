package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. The structured error types below
// match their sentinel.
var (
	ErrNotFound          = errors.New("not found")
	ErrUpstream          = errors.New("upstream error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrValidation        = errors.New("validation error")
)

// NotFoundError is returned when an id does not resolve. Kind defaults to
// "market".
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "market"
	}
	return fmt.Sprintf("%s %q not found", kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UpstreamError represents a live transport failure. Status is the HTTP
// status code, or 0 for network faults.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream returned status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// IsClientError reports whether the upstream rejected the request with a 4xx.
func (e *UpstreamError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// RateLimitError is returned when a resource's sliding window is full.
type RateLimitError struct {
	Resource string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.Resource)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
