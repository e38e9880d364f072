package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrValidationFailed is returned when a feed batch fails local validation
	ErrValidationFailed = errors.New("feed validation failed")

	// ErrFeedAPIFailure is returned when an SP-API Feeds request fails
	ErrFeedAPIFailure = errors.New("SP-API feeds request failed")

	// ErrUploadFailed is returned when the feed document upload is rejected
	ErrUploadFailed = errors.New("feed document upload failed")

	// ErrAuthFailure is returned when the LWA token exchange fails
	ErrAuthFailure = errors.New("LWA token exchange failed")

	// ErrPhaseFailed is returned when a phase finishes in a non-DONE status
	ErrPhaseFailed = errors.New("feed phase did not complete")

	// ErrNotFound is returned when a feed, document or run does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError carries every problem found in a batch.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
