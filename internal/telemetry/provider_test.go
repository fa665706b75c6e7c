package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestInitProviderServesPrometheus(t *testing.T) {
	origMP, origTP := otel.GetMeterProvider(), otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetMeterProvider(origMP)
		otel.SetTracerProvider(origTP)
	})

	p, err := InitProvider(context.Background(), ProviderConfig{ServiceVersion: "test"}, testLogger())
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	NewRecorder(testLogger(), p.Metrics).RecordSynthesis(context.Background(), Outcome{
		Provider: "stub",
		Surface:  "http",
		Duration: 10 * time.Millisecond,
		Bytes:    100,
	})

	rec := httptest.NewRecorder()
	p.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "tts_provider_requests") {
		t.Fatalf("exposition missing tts_provider_requests:\n%s", body)
	}

	ctx, span := StartSpan(context.Background(), "probe")
	defer span.End()
	if CorrelationID(ctx) == "" {
		t.Fatal("spans should be recorded without an exporter")
	}
}
