package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/cloudtts"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/config"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/gtts"
	healthhttp "github.com/nupi-ai/plugin-tts-remote-gtts/internal/health"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/server"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// lazyTTSServer wraps a TextToSpeechServiceServer and allows deferred initialization.
// It returns Unavailable errors until the underlying server is set via setServer.
type lazyTTSServer struct {
	napv1.UnimplementedTextToSpeechServiceServer
	server atomic.Pointer[napv1.TextToSpeechServiceServer]
}

func (l *lazyTTSServer) setServer(srv napv1.TextToSpeechServiceServer) {
	l.server.Store(&srv)
}

func (l *lazyTTSServer) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	srv := l.server.Load()
	if srv == nil {
		return status.Error(codes.Unavailable, "TTS service is initializing, please retry in a moment")
	}
	return (*srv).StreamSynthesis(req, stream)
}

// lazyHandler is the HTTP counterpart of lazyTTSServer.
type lazyHandler struct {
	handler atomic.Pointer[http.Handler]
}

func (l *lazyHandler) setHandler(h http.Handler) {
	l.handler.Store(&h)
}

func (l *lazyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := l.handler.Load()
	if h == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "TTS service is initializing, please retry in a moment"})
		return
	}
	(*h).ServeHTTP(w, r)
}

func main() {
	if err := run(); err != nil {
		slog.Error("adapter terminated with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{EnvFile: ".env"}.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting adapter",
		"adapter", adapterinfo.Info.Name,
		"adapter_slug", adapterinfo.Info.Slug,
		"adapter_version", adapterinfo.Version(),
		"listen_addr", cfg.ListenAddr,
		"http_addr", cfg.HTTPAddr,
		"provider", cfg.Provider,
		"language", cfg.Language,
		"language_mode", cfg.LanguageMode,
		"slow", cfg.Slow,
		"timeout_sec", cfg.TimeoutSec,
	)

	tel, err := telemetry.InitProvider(ctx, telemetry.ProviderConfig{
		ServiceName:    adapterinfo.Info.Slug,
		ServiceVersion: adapterinfo.Version(),
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
		TraceStdout:    cfg.TraceStdout,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	recorder := telemetry.NewRecorder(logger, tel.Metrics)

	// Bind the gRPC port before the provider is ready so the manager's
	// readiness check can connect while initialization runs.
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("bind listener: %w", err)
	}
	defer lis.Close()
	logger.Info("listener bound, port ready", "addr", lis.Addr().String())

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	serviceName := napv1.TextToSpeechService_ServiceDesc.ServiceName
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	lazyService := &lazyTTSServer{}
	napv1.RegisterTextToSpeechServiceServer(grpcServer, lazyService)

	var active atomic.Pointer[provider.Synthesizer]
	probes := healthhttp.New(healthhttp.Checker{
		Name: "provider",
		Check: func(context.Context) error {
			if active.Load() == nil {
				return errors.New("provider not initialized")
			}
			return nil
		},
	})

	lazyGenerate := &lazyHandler{}
	mux := http.NewServeMux()
	mux.Handle("POST "+server.GenerateAudioPath, lazyGenerate)
	mux.Handle("GET /metrics", tel.Handler)
	probes.Register(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           telemetry.Middleware(tel.Metrics, logger.With("component", "http"))(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	logger.Info("servers started (NOT_SERVING while initializing)")

	synth, closeProvider, err := newSynthesizer(ctx, cfg, logger)
	if err != nil {
		stop()
		shutdown(logger, grpcServer, httpServer, healthServer, probes)
		_ = g.Wait()
		return err
	}
	defer closeProvider()
	active.Store(&synth)

	lazyService.setServer(server.New(cfg, logger, synth, recorder))
	lazyGenerate.setHandler(server.NewHandler(cfg, logger, synth, recorder))

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_SERVING)
	probes.SetReady(true)
	logger.Info("adapter ready to serve requests", "provider", provider.NameOf(synth))

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested, stopping servers")
		shutdown(logger, grpcServer, httpServer, healthServer, probes)
		return nil
	})

	err = g.Wait()
	logger.Info("adapter stopped")
	return err
}

// newSynthesizer builds the configured provider. The returned close func is
// never nil.
func newSynthesizer(ctx context.Context, cfg config.Config, logger *slog.Logger) (provider.Synthesizer, func(), error) {
	noop := func() {}
	switch cfg.Provider {
	case config.ProviderStub:
		logger.Info("using STUB synthesizer, responses are deterministic and not from a remote API")
		return provider.NewStubSynthesizer(logger), noop, nil

	case config.ProviderCloud:
		client, err := cloudtts.NewClient(ctx, cfg.CredentialsFile, option.WithUserAgent(adapterinfo.UserAgent()))
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Cloud Text-to-Speech client initialized", "language_code", cloudtts.LanguageCode(cfg.Language))
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing cloud client failed", "error", err)
			}
		}, nil

	default:
		lang, tld, err := gtts.ResolveLanguage(cfg.Language, cfg.TLD)
		if err != nil {
			return nil, noop, fmt.Errorf("configure %s provider: %w", gtts.ProviderName, err)
		}
		logger.Info("Google Translate TTS client initialized", "lang", lang, "tld", tld)
		return gtts.NewClient(cfg.TLD, time.Duration(cfg.TimeoutSec)*time.Second), noop, nil
	}
}

func shutdown(logger *slog.Logger, grpcServer *grpc.Server, httpServer *http.Server, healthServer *health.Server, probes *healthhttp.Handler) {
	probes.SetReady(false)
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(napv1.TextToSpeechService_ServiceDesc.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("http graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}

	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn("graceful stop timed out, forcing stop")
		grpcServer.Stop()
	}
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
