// Package synthesis turns text into a fully buffered, seekable audio stream by
// driving one provider call to completion.
package synthesis

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

const (
	// MediaTypeMPEG is the MIME type of every AudioStream produced here.
	MediaTypeMPEG = "audio/mpeg"

	DefaultLanguage = "en-uk"
	DefaultTimeout  = 10 * time.Second
)

// Options is the immutable synthesis policy shared by all requests.
type Options struct {
	Language string
	Slow     bool

	// Timeout bounds one synthesis call. Zero disables the bound and leaves
	// cancellation to the caller's context.
	Timeout time.Duration

	// MaxTextChars rejects longer text when > 0.
	MaxTextChars int
}

// DefaultOptions mirrors the fixed policy of the HTTP endpoint.
func DefaultOptions() Options {
	return Options{
		Language: DefaultLanguage,
		Slow:     false,
		Timeout:  DefaultTimeout,
	}
}

// Request is one validated synthesis input.
type Request struct {
	Text     string
	Language string
	Slow     bool
}

// Adapter wraps a provider call for a single request. Construct one per
// request; it holds no state beyond its configuration.
type Adapter struct {
	provider provider.Synthesizer
	opts     Options
}

// NewAdapter returns an adapter bound to p and opts.
func NewAdapter(p provider.Synthesizer, opts Options) *Adapter {
	if p == nil {
		panic("synthesis: provider must not be nil")
	}
	return &Adapter{provider: p, opts: opts}
}

// Options returns the adapter's policy.
func (a *Adapter) Options() Options { return a.opts }

// NewRequest validates text and binds it to the adapter's language and speed.
func (a *Adapter) NewRequest(text string) (Request, error) {
	if strings.TrimSpace(text) == "" {
		return Request{}, invalidInput("text is required")
	}
	if a.opts.MaxTextChars > 0 {
		if n := utf8.RuneCountInString(text); n > a.opts.MaxTextChars {
			return Request{}, invalidInput("text is %d characters, limit is %d", n, a.opts.MaxTextChars)
		}
	}
	if strings.TrimSpace(a.opts.Language) == "" {
		return Request{}, invalidInput("language is required")
	}
	return Request{Text: text, Language: a.opts.Language, Slow: a.opts.Slow}, nil
}

// Synthesize validates text and generates its audio with the adapter's
// policy. See Generate.
func (a *Adapter) Synthesize(ctx context.Context, text string) (*AudioStream, error) {
	req, err := a.NewRequest(text)
	if err != nil {
		return nil, err
	}
	return a.Generate(ctx, req)
}

// Generate runs the provider synchronously and returns the complete audio,
// rewound to the start. On error no audio is returned and the error is an
// *Error.
func (a *Adapter) Generate(ctx context.Context, req Request) (*AudioStream, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, invalidInput("text is required")
	}
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	err := a.provider.Synthesize(ctx, &buf, provider.Request{
		Text:     req.Text,
		Language: req.Language,
		Slow:     req.Slow,
	})
	if err != nil {
		return nil, classify(err)
	}
	if buf.Len() == 0 {
		return nil, &Error{Kind: UnknownFailure, Cause: errors.New("provider returned no audio")}
	}
	return newAudioStream(buf.Bytes(), MediaTypeMPEG), nil
}
