package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/config"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/synthesis"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/telemetry"
)

const (
	// GenerateAudioPath is the route of the synthesis endpoint.
	GenerateAudioPath = "/python/text-to-speech/generate-audio"

	// RequestIDHeader is accepted from callers and echoed on every response.
	RequestIDHeader = "X-Request-ID"

	audioFilename = "generated_audio.mp3"
)

type generateRequest struct {
	Text *string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the audio generation endpoint. It is safe for concurrent
// use; every request builds its own synthesis.Adapter.
type Handler struct {
	provider     provider.Synthesizer
	opts         synthesis.Options
	maxBodyBytes int64
	compatErrors bool
	log          *slog.Logger
	metrics      *telemetry.Recorder
}

// NewHandler returns the HTTP request handler for p.
func NewHandler(cfg config.Config, logger *slog.Logger, p provider.Synthesizer, metrics *telemetry.Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		panic("server: provider must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger, nil)
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = config.DefaultMaxBodyBytes
	}
	return &Handler{
		provider:     p,
		opts:         SynthesisOptions(cfg),
		maxBodyBytes: maxBody,
		compatErrors: cfg.CompatErrorStatus,
		log: logger.With(
			"component", "http",
			"provider", provider.NameOf(p),
		),
		metrics: metrics,
	}
}

// Register adds the generation route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST "+GenerateAudioPath, h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	logEntry := telemetry.WithSpan(ctx, h.log).With("request_id", requestID)

	text, err := h.decode(w, r)
	if err != nil {
		logEntry.Warn("rejected request body", "error", err)
		h.writeError(w, err)
		return
	}
	logEntry = logEntry.With("text_length", len(text), "language", h.opts.Language)

	adapter := synthesis.NewAdapter(h.provider, h.opts)
	req, err := adapter.NewRequest(text)
	if err != nil {
		logEntry.Warn("rejected synthesis request", "error", err)
		h.writeError(w, err)
		return
	}

	audio, err := generate(ctx, h.metrics, h.provider, "http", adapter, req)
	if err != nil {
		level := slog.LevelError
		if synthesis.KindOf(err) == synthesis.InvalidInput {
			level = slog.LevelWarn
		}
		logEntry.Log(ctx, level, "synthesis failed", "error", err, "kind", synthesis.KindOf(err).String())
		h.writeError(w, err)
		return
	}

	logEntry.Info("audio generated", "bytes", audio.Size())

	w.Header().Set("Content-Type", audio.MediaType())
	w.Header().Set("Content-Disposition", "inline; filename="+audioFilename)
	http.ServeContent(w, r, audioFilename, time.Time{}, audio)
}

// decode reads the JSON body and returns the text field. Failures are
// InvalidInput errors.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", &synthesis.Error{Kind: synthesis.InvalidInput, Cause: fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)}
		}
		return "", &synthesis.Error{Kind: synthesis.InvalidInput, Cause: fmt.Errorf("decode request body: %w", err)}
	}
	if body.Text == nil {
		return "", &synthesis.Error{Kind: synthesis.InvalidInput, Cause: errors.New("text is required")}
	}
	return *body.Text, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(synthesis.KindOf(err))
	if h.compatErrors {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func statusFor(kind synthesis.Kind) int {
	switch kind {
	case synthesis.InvalidInput:
		return http.StatusBadRequest
	case synthesis.ProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
