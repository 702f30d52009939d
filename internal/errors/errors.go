// Package errors provides the unified error taxonomy for the
// orchestration engine: the seven kinds named in the design notes
// (InvalidInput, ProviderUnavailable, ProviderRejected, StoreUnavailable,
// Timeout, Cancelled, Internal). Providers and Analysis Engines never
// raise these across their boundary — they fold failures into
// zero-confidence Findings instead. Only the Orchestrator raises
// InvalidInput, StoreUnavailable, and Internal as terminal errors; the
// rest are absorbed into an Investigation's outcome.
package errors

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error kinds from the error-handling design.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindProviderRejected    Kind = "provider_rejected"
	KindStoreUnavailable    Kind = "store_unavailable"
	KindTimeout             Kind = "timeout"
	KindCancelled           Kind = "cancelled"
	KindInternal            Kind = "internal"
)

// Terminal reports whether an error of this kind should propagate out of
// the Orchestrator rather than be absorbed into the Investigation's
// partial outcome.
func (k Kind) Terminal() bool {
	switch k {
	case KindInvalidInput, KindStoreUnavailable, KindInternal:
		return true
	default:
		return false
	}
}

// EngineError is a structured error carrying a Kind, a human message,
// and optional structured details.
type EngineError struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key/value pair of structured context.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an EngineError with no wrapped cause.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Wrap creates an EngineError wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: err}
}

// InvalidInput reports a malformed or out-of-range request: bad address,
// unsupported chain, depth out of [1,10], batch size over 100.
func InvalidInput(field, reason string) *EngineError {
	return New(KindInvalidInput, "invalid input").
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// ProviderUnavailable reports a transport failure after retries, or a
// depleted rate-limit bucket. Never raised across the adapter boundary —
// callers outside provideradapter fold this into a zero-confidence
// Finding instead of surfacing the error.
func ProviderUnavailable(providerID string, err error) *EngineError {
	return Wrap(KindProviderUnavailable, "provider unavailable", err).
		WithDetail("provider", providerID)
}

// ProviderRejected reports an authentication or 4xx response, terminal
// for that call and grounds for marking the adapter degraded.
func ProviderRejected(providerID string, statusCode int, err error) *EngineError {
	return Wrap(KindProviderRejected, "provider rejected request", err).
		WithDetail("provider", providerID).
		WithDetail("status_code", statusCode)
}

// StoreUnavailable reports a graph or cache backend failure on a
// mandatory step; this fails the Investigation as a whole.
func StoreUnavailable(store string, err error) *EngineError {
	return Wrap(KindStoreUnavailable, "store unavailable", err).
		WithDetail("store", store)
}

// Timeout reports a deadline exceeded for the named operation.
func Timeout(operation string) *EngineError {
	return New(KindTimeout, "operation timed out").
		WithDetail("operation", operation)
}

// Cancelled reports explicit cancellation of the named operation.
func Cancelled(operation string) *EngineError {
	return New(KindCancelled, "operation cancelled").
		WithDetail("operation", operation)
}

// Internal reports a programmer error: logged with full context,
// surfaced to the caller as an opaque failure, never swallowed.
func Internal(message string, err error) *EngineError {
	return Wrap(KindInternal, message, err)
}

// As extracts an *EngineError from an error chain.
func As(err error) (*EngineError, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) an EngineError, and
// KindInternal otherwise.
func KindOf(err error) Kind {
	if ee, ok := As(err); ok {
		return ee.Kind
	}
	return KindInternal
}
