// Package service provides call control and webhook ingestion logic.
package service

import (
	"errors"
)

var (
	// ErrMissingDestination means neither the request nor configuration named
	// a number to call.
	ErrMissingDestination = errors.New("missing destination: provide \"to\" or configure DEFAULT_TO_NUMBER")

	// ErrMissingSource means no caller number is configured.
	ErrMissingSource = errors.New("missing source: configure TWILIO_FROM_NUMBER")

	// ErrMissingCallSid means a hangup request did not name a call.
	ErrMissingCallSid = errors.New("callSid is required")

	// ErrNotConfigured means provider credentials or the public base URL are
	// missing.
	ErrNotConfigured = errors.New("telephony provider not configured")
)

// ProviderError wraps a failed provider API call. Its message is the
// provider's error description.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsInvalidRequest reports whether err should be answered with 400.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrMissingDestination) ||
		errors.Is(err, ErrMissingSource) ||
		errors.Is(err, ErrMissingCallSid) ||
		errors.Is(err, ErrNotConfigured)
}
