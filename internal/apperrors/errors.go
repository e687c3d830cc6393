package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrProviderNotFound indicates that no provider is registered under the requested key.
var ErrProviderNotFound = errors.New("provider not found")

// ErrRateNotFound indicates that no persisted rate exists yet for the requested
// parameters. Callers should treat it as "try again shortly", not as a failure.
var ErrRateNotFound = errors.New("rate not found")

// ErrNoDataAvailable indicates the requested date is inside the provider's
// reporting lag window, so data for it cannot exist yet. Never retried.
var ErrNoDataAvailable = errors.New("no data available yet")

// ErrInvalidOperand indicates a non-numeric value reached the decimal utility.
// This is a data-integrity bug, not a transient condition.
var ErrInvalidOperand = errors.New("invalid decimal operand")

// ErrUnsupportedOperation indicates the provider does not implement the
// requested fetch mode (e.g. range fetch).
var ErrUnsupportedOperation = errors.New("operation not supported by provider")

// DisabledProviderError indicates a provider that is administratively off or
// misconfigured (e.g. missing API key). Swallowed at orchestration boundaries.
type DisabledProviderError struct {
	Reason string
}

func (e *DisabledProviderError) Error() string {
	return fmt.Sprintf("provider disabled: %s", e.Reason)
}

// NewDisabledProvider creates a DisabledProviderError with the given reason.
func NewDisabledProvider(reason string) *DisabledProviderError {
	return &DisabledProviderError{Reason: reason}
}

// IsDisabledProvider reports whether err is (or wraps) a DisabledProviderError.
func IsDisabledProvider(err error) bool {
	var dp *DisabledProviderError
	return errors.As(err, &dp)
}

// LimitExceededError indicates the provider signalled a quota/429 condition.
// RetryAfter carries the time until the quota resets.
type LimitExceededError struct {
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("request limit exceeded, retry after %s", e.RetryAfter)
}

// NewLimitExceeded creates a LimitExceededError from a reset delay.
func NewLimitExceeded(retryAfter time.Duration) *LimitExceededError {
	return &LimitExceededError{RetryAfter: retryAfter}
}

// AsLimitExceeded extracts a LimitExceededError from err, if present.
func AsLimitExceeded(err error) (*LimitExceededError, bool) {
	var le *LimitExceededError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// ParseError indicates a malformed or unexpectedly shaped upstream payload.
// Content holds the raw body for diagnosis; it is logged, never returned upstream.
type ParseError struct {
	Message string
	Content string
}

func (e *ParseError) Error() string {
	return e.Message
}

// NewParseError creates a ParseError with the raw payload attached.
func NewParseError(message, content string) *ParseError {
	return &ParseError{Message: message, Content: content}
}
