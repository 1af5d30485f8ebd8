package llm

import (
	"context"
	"errors"
)

// Sentinel errors for the upstream failure taxonomy. Handlers map
// these to distinguishable HTTP statuses; none of them are retried
// automatically.
var (
	// ErrMissingAPIKey means no upstream credential is configured.
	ErrMissingAPIKey = errors.New("llm: API key not configured")

	// ErrInvalidAPIKey means the upstream rejected the credential.
	ErrInvalidAPIKey = errors.New("llm: invalid API key")

	// ErrPermissionDenied means the credential lacks access to the model.
	ErrPermissionDenied = errors.New("llm: permission denied")

	// ErrTimeout means the upstream call exceeded the request deadline.
	ErrTimeout = errors.New("llm: upstream request timed out")

	// ErrUpstream is a transient upstream failure. The caller may retry
	// manually.
	ErrUpstream = errors.New("llm: upstream request failed")
)

// Classify maps a raw error from a provider call to the failure
// taxonomy, folding context deadline expiry into ErrTimeout.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, ErrInvalidAPIKey),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrUpstream):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	default:
		return errors.Join(ErrUpstream, err)
	}
}

// IsFatal reports whether the error is a configuration or permission
// failure that manual retry will not fix.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMissingAPIKey) ||
		errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrPermissionDenied)
}
