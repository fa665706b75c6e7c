package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

const (
	// StubFrameSize is the size of one MPEG-1 Layer III frame at 128 kbit/s, 44.1 kHz.
	StubFrameSize = 417
)

// stubFrameHeader: MPEG-1 Layer III, no CRC, 128 kbit/s, 44.1 kHz, mono.
var stubFrameHeader = []byte{0xFF, 0xFB, 0x90, 0xC4}

// StubSynthesizer implements Synthesizer with deterministic MP3 silence. It is
// intended for CI and local environments without network access to Google.
type StubSynthesizer struct {
	log *slog.Logger
}

// NewStubSynthesizer returns a stub that writes one silent MP3 frame per byte
// of input text.
func NewStubSynthesizer(logger *slog.Logger) *StubSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSynthesizer{log: logger}
}

// Name implements Named.
func (s *StubSynthesizer) Name() string { return "stub" }

// Synthesize writes len(req.Text) frames of StubFrameSize bytes to w.
func (s *StubSynthesizer) Synthesize(ctx context.Context, w io.Writer, req Request) error {
	if req.Text == "" {
		return fmt.Errorf("stub: text is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	frame := make([]byte, StubFrameSize)
	copy(frame, stubFrameHeader)

	frames := len(req.Text)
	for i := 0; i < frames; i++ {
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("stub: write frame: %w", err)
		}
	}

	s.log.Info("stub synthesis",
		"text_length", len(req.Text),
		"language", req.Language,
		"slow", req.Slow,
		"bytes", frames*StubFrameSize,
	)
	return nil
}
