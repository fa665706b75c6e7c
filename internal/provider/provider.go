// Package provider defines the contract between the synthesis adapter and the
// remote text-to-speech backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedLanguage is wrapped by backends that cannot speak the
// requested language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Request describes one synthesis call against a backend.
type Request struct {
	Text     string
	Language string
	Slow     bool
}

// Synthesizer produces MP3 audio for a request and writes all of it to w.
// Implementations must not write anything to w when they return an error
// before the first byte is available, but callers treat any error as fatal
// for the whole request.
type Synthesizer interface {
	Synthesize(ctx context.Context, w io.Writer, req Request) error
}

// Named is implemented by synthesizers that report a provider label for logs
// and metrics.
type Named interface {
	Name() string
}

// NameOf returns the provider label of s, or "unknown".
func NameOf(s Synthesizer) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "unknown"
}

// RequestError reports a failure in the request layer: the backend could not
// be reached or answered with a non-success status.
type RequestError struct {
	Provider   string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
