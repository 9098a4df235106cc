package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
)

func TestRouter_SpanNamedAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := telemetry.TracerProvider
	telemetry.TracerProvider = tp
	t.Cleanup(func() {
		telemetry.TracerProvider = prev
		_ = tp.Shutdown(context.Background())
	})

	svc := &mockLinkService{getByCodeFn: func(context.Context, string) (*links.Link, error) { return sampleLink(), nil }}
	router := newTestRouter(svc)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/links/abc123XYZ_/stats", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if got := spans[0].Name(); got != "links.stats" {
		t.Errorf("got span name %q, want links.stats", got)
	}

	var route string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == semconv.HTTPRouteKey {
			route = attr.Value.AsString()
		}
	}
	if route != "/links/{code}/stats" {
		t.Errorf("got http.route %q", route)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&mockLinkService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&mockLinkService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/links/abc", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d, want 405", rec.Code)
	}
}
