package llm

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindHTTP              ErrorKind = "http"
	ErrKindAuth              ErrorKind = "auth"
	ErrKindSerialization     ErrorKind = "serialization"
	ErrKindStreaming         ErrorKind = "streaming"
	ErrKindProvider          ErrorKind = "provider"
	ErrKindRateLimit         ErrorKind = "rate_limit"
	ErrKindModelNotAvailable ErrorKind = "model_not_available"
	ErrKindConfig            ErrorKind = "config"
)

// LLMError is a provider-agnostic error container.
//
// It carries stable classification, raw payload access, and retry hints. A
// decode-time or protocol-violation error aborts the in-flight response;
// there is no local recovery inside the core.
type LLMError struct {
	Provider string
	Kind     ErrorKind

	HTTPStatus   int
	ProviderCode string
	Message      string

	Retryable bool

	// Raw is an optional raw error payload (e.g. the HTTP response body).
	Raw []byte

	Cause error
}

func (e *LLMError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: %s", e.Provider, msg)
	}
	return fmt.Sprintf("llm: %s", msg)
}

func (e *LLMError) Unwrap() error { return e.Cause }

func AsLLMError(err error) (*LLMError, bool) {
	var e *LLMError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func streamingError(provider, message string, cause error) *LLMError {
	return &LLMError{Provider: provider, Kind: ErrKindStreaming, Message: message, Cause: cause}
}

// ErrResponseConsumed is returned when Stream or Buffer is called on a
// Response whose underlying delta sequence was already traversed.
var ErrResponseConsumed = errors.New("llm: response already consumed")

// ErrStreamClosed is returned by Recv after Close.
var ErrStreamClosed = errors.New("llm: stream closed")
