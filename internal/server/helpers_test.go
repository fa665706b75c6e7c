package server

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/config"
	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

// mockProvider implements provider.Synthesizer for testing.
type mockProvider struct {
	data []byte
	err  error

	mu    sync.Mutex
	calls int
	req   provider.Request
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Synthesize(_ context.Context, w io.Writer, req provider.Request) error {
	m.mu.Lock()
	m.calls++
	m.req = req
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	_, err := w.Write(m.data)
	return err
}

func (m *mockProvider) called() (int, provider.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, m.req
}

func testConfig() config.Config {
	return config.Config{
		ListenAddr:   "bufconn",
		HTTPAddr:     "127.0.0.1:0",
		LogLevel:     "error",
		Provider:     config.ProviderStub,
		Language:     "en-uk",
		LanguageMode: config.LanguageModeClient,
		TimeoutSec:   10,
		MaxBodyBytes: config.DefaultMaxBodyBytes,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func audioBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
