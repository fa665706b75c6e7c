package synthesis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

// Kind classifies synthesis failures.
type Kind int

const (
	// UnknownFailure covers every failure that is neither bad input nor a
	// request-layer problem with the provider.
	UnknownFailure Kind = iota

	// ProviderUnavailable means the provider could not be reached or
	// rejected the request at the transport level.
	ProviderUnavailable

	// InvalidInput means the request was rejected before reaching the provider.
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case ProviderUnavailable:
		return "provider_unavailable"
	case InvalidInput:
		return "invalid_input"
	default:
		return "unknown_failure"
	}
}

// Sentinels matching each Kind through errors.Is.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownFailure      = errors.New("unknown failure")
)

// Error is the only error type returned by Adapter.Synthesize.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ProviderUnavailable:
		return fmt.Sprintf("TTS API request failed: %v", e.Cause)
	case InvalidInput:
		return fmt.Sprintf("invalid input: %v", e.Cause)
	default:
		return fmt.Sprintf("TTS generation error: %v", e.Cause)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrProviderUnavailable:
		return e.Kind == ProviderUnavailable
	case ErrInvalidInput:
		return e.Kind == InvalidInput
	case ErrUnknownFailure:
		return e.Kind == UnknownFailure
	}
	return false
}

// KindOf returns the Kind carried by err, or UnknownFailure.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return UnknownFailure
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: InvalidInput, Cause: fmt.Errorf(format, args...)}
}

// classify wraps a provider error. Request-layer failures become
// ProviderUnavailable, unsupported languages InvalidInput, everything else
// UnknownFailure.
func classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, provider.ErrUnsupportedLanguage) {
		return &Error{Kind: InvalidInput, Cause: err}
	}
	if isRequestLayer(err) {
		return &Error{Kind: ProviderUnavailable, Cause: err}
	}
	return &Error{Kind: UnknownFailure, Cause: err}
}

func isRequestLayer(err error) bool {
	var reqErr *provider.RequestError
	if errors.As(err, &reqErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
