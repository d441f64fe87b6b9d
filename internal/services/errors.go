// Package services implements the business logic of the jukebox: the track
// admission pipeline, search, and playback state composition. This file
// centralizes service-level error values so they can be consistently
// returned by service methods and checked by callers.
//
// Translation into HTTP statuses happens at the handler layer; services
// never see a ResponseWriter.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotAuthenticated indicates no host credential is installed; every
	// provider-backed operation requires one.
	ErrNotAuthenticated = errors.New("host not authenticated with spotify")

	// ErrInvalidTrackURI is returned when a submission's playback URI does
	// not match the spotify:track:<22 alnum> shape.
	ErrInvalidTrackURI = errors.New("invalid track URI")

	// ErrTrackInfoRequired is returned when a submission omits the track
	// id or name needed for the local ledger.
	ErrTrackInfoRequired = errors.New("track information required")

	// ErrDuplicateTrack is returned when the submitted track id is already
	// recorded in the local queue ledger.
	ErrDuplicateTrack = errors.New("track is already in the queue")

	// ErrQueryTooShort is returned for search queries under two characters
	// after trimming.
	ErrQueryTooShort = errors.New("query must be at least 2 characters")
)

// RateLimitError is returned when a client's submission window is full.
// It carries everything the transport needs for the X-RateLimit-* and
// Retry-After headers.
type RateLimitError struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // whole seconds until the window resets
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfter)
}

// UpstreamError wraps a provider gateway failure with the operation that
// produced it. It is fatal for the request, never for the process.
type UpstreamError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying gateway error.
func (e *UpstreamError) Unwrap() error { return e.Err }
