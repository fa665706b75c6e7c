package server

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/config"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/synthesis"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/telemetry"
)

// SynthesisOptions derives the immutable per-request policy from cfg.
func SynthesisOptions(cfg config.Config) synthesis.Options {
	return synthesis.Options{
		Language:     cfg.Language,
		Slow:         cfg.Slow,
		Timeout:      time.Duration(cfg.TimeoutSec) * time.Second,
		MaxTextChars: cfg.MaxTextChars,
	}
}

// generate runs one adapter call wrapped in a span and provider metrics.
func generate(ctx context.Context, rec *telemetry.Recorder, p provider.Synthesizer, surface string, a *synthesis.Adapter, req synthesis.Request) (*synthesis.AudioStream, error) {
	name := provider.NameOf(p)

	ctx, span := telemetry.StartSpan(ctx, "tts.synthesize",
		trace.WithAttributes(
			attribute.String("tts.provider", name),
			attribute.String("tts.surface", surface),
			attribute.String("tts.language", req.Language),
			attribute.Int("tts.text_length", len(req.Text)),
		),
	)
	done := rec.SynthesisStarted(ctx, name, surface)
	start := time.Now()

	audio, err := a.Generate(ctx, req)

	done()
	outcome := telemetry.Outcome{
		Provider: name,
		Surface:  surface,
		Duration: time.Since(start),
	}
	if err != nil {
		outcome.ErrorKind = synthesis.KindOf(err).String()
	} else {
		outcome.Bytes = int(audio.Size())
		span.SetAttributes(attribute.Int64("tts.audio_bytes", audio.Size()))
	}
	rec.RecordSynthesis(ctx, outcome)
	telemetry.EndSpan(span, err)
	return audio, err
}
