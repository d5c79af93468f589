package ai

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies AI collaborator failures. Retry policy is derived from the
// kind, never from string matching on messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRateLimited means the provider returned 429. Retryable with a
	// server-hinted wait.
	KindRateLimited
	// KindServiceUnavailable covers 5xx responses. Retryable with linear backoff.
	KindServiceUnavailable
	// KindBadRequest means the prompt itself was rejected. Not retryable.
	KindBadRequest
	// KindTimeout means the call exceeded its deadline. Retryable.
	KindTimeout
	// KindMalformed means the response decoded but carried no usable content.
	// Not retryable; treated as content absence by callers.
	KindMalformed
	// KindExhausted is terminal for one call after the retry budget is spent.
	// Callers must degrade or skip, never abort the whole batch.
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindBadRequest:
		return "bad_request"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed_response"
	case KindExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the AI client.
type Error struct {
	Kind Kind
	Msg  string
	// RetryAfter is the server-provided wait hint on rate-limit responses,
	// already clamped to the configured bounds. Zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("ai: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return KindUnknown
}

// IsExhausted reports whether a call burned through its full retry budget.
func IsExhausted(err error) bool {
	return KindOf(err) == KindExhausted
}
