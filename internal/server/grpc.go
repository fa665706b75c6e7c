// Package server exposes the synthesis pipeline over HTTP and over the NAP
// TextToSpeechService gRPC API.
package server

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/config"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/synthesis"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/telemetry"
)

const (
	chunkSize = 4096

	// nominalBytesPerMs estimates MP3 playback time at 32 kbit/s, the bitrate
	// served by the translate endpoint.
	nominalBytesPerMs = 4
)

// Server implements the TextToSpeechService on top of synthesis.Adapter.
type Server struct {
	napv1.UnimplementedTextToSpeechServiceServer

	cfg      config.Config
	opts     synthesis.Options
	log      *slog.Logger
	provider provider.Synthesizer
	metrics  *telemetry.Recorder
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, p provider.Synthesizer, metrics *telemetry.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		panic("server: provider must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger, nil)
	}
	return &Server{
		cfg:  cfg,
		opts: SynthesisOptions(cfg),
		log: logger.With(
			"component", "grpc",
			"provider", provider.NameOf(p),
			"language_mode", cfg.LanguageMode,
		),
		provider: p,
		metrics:  metrics,
	}
}

// StreamSynthesis synthesizes the request text into one buffer and streams it
// back in fixed-size chunks.
func (s *Server) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	if req == nil {
		return fmt.Errorf("server: request is nil")
	}

	text := req.GetText()
	language := resolveLanguage(s.cfg.LanguageMode, s.opts.Language, req.GetMetadata())

	logEntry := s.log.With(
		"session_id", req.GetSessionId(),
		"stream_id", req.GetStreamId(),
		"text_length", len(text),
		"language", language,
	)

	opts := s.opts
	opts.Language = language
	adapter := synthesis.NewAdapter(s.provider, opts)

	synthReq, err := adapter.NewRequest(text)
	if err != nil {
		logEntry.Warn("rejected synthesis request", "error", err)
		return s.sendError(stream, err.Error())
	}

	logEntry.Info("synthesis request received")

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_STARTED, nil); err != nil {
		logEntry.Error("failed to send started status", "error", err)
		return err
	}

	ctx := stream.Context()
	start := time.Now()

	audio, err := generate(ctx, s.metrics, s.provider, "grpc", adapter, synthReq)
	if err != nil {
		logEntry.Error("synthesis failed", "error", err, "kind", synthesis.KindOf(err).String())
		return s.sendError(stream, err.Error())
	}

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING, nil); err != nil {
		logEntry.Error("failed to send playing status", "error", err)
		return err
	}

	metadata := adapterinfo.SynthesisMetadata(provider.NameOf(s.provider), language)
	totalBytes := audio.Len()
	buffer := make([]byte, chunkSize)
	var sequence uint64

	for audio.Len() > 0 {
		if err := ctx.Err(); err != nil {
			logEntry.Info("synthesis interrupted", "reason", err)
			return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_INTERRUPTED, map[string]string{
				"reason": err.Error(),
			})
		}

		n, _ := audio.Read(buffer)
		sequence++

		chunk := &napv1.AudioChunk{
			Data:       append([]byte(nil), buffer[:n]...),
			Sequence:   sequence,
			First:      sequence == 1,
			Last:       audio.Len() == 0,
			DurationMs: uint32(n / nominalBytesPerMs),
			Metadata:   metadata,
		}
		if err := stream.Send(&napv1.SynthesisResponse{
			Status: napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING,
			Chunk:  chunk,
		}); err != nil {
			logEntry.Error("failed to send audio chunk", "error", err, "sequence", sequence)
			return err
		}

		logEntry.Debug("sent audio chunk", "sequence", sequence, "bytes", n)
	}

	duration := time.Since(start)
	logEntry.Info("synthesis completed",
		"total_bytes", totalBytes,
		"chunks", sequence,
		"duration_sec", duration.Seconds(),
	)

	return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED, map[string]string{
		"total_bytes":  strconv.Itoa(totalBytes),
		"total_chunks": strconv.FormatUint(sequence, 10),
		"duration_sec": fmt.Sprintf("%.2f", duration.Seconds()),
		"text_length":  strconv.Itoa(len(text)),
	})
}

func (s *Server) sendStatus(stream napv1.TextToSpeechService_StreamSynthesisServer, status napv1.SynthesisStatus, metadata map[string]string) error {
	return stream.Send(&napv1.SynthesisResponse{
		Status:   status,
		Metadata: metadata,
	})
}

func (s *Server) sendError(stream napv1.TextToSpeechService_StreamSynthesisServer, message string) error {
	resp := &napv1.SynthesisResponse{
		Status:       napv1.SynthesisStatus_SYNTHESIS_STATUS_ERROR,
		ErrorMessage: message,
	}
	if err := stream.Send(resp); err != nil {
		return err
	}
	return fmt.Errorf("synthesis error: %s", message)
}
