package http

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/encurtador-links/internal/transport/http/middleware"
)

var spanNames = map[string]string{
	"GET /health":                                  "health",
	"GET /metrics":                                 "metrics",
	"POST /links/shorten":                          "links.create",
	"GET /links/search":                            "links.search",
	"GET /links/{code}":                            "links.redirect",
	"GET /links/{code}/stats":                      "links.stats",
	"GET /aliases/{alias}":                         "links.by_alias",
	"PUT /links/{code}":                            "links.update",
	"DELETE /links/delete_by_short_code/{code}":    "links.delete_by_code",
	"DELETE /links/delete_by_custom_alias/{alias}": "links.delete_by_alias",
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool

	// Pinger is consulted by /health; nil reports ok unconditionally.
	Pinger Pinger
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
	}
}

func NewRouter(cfg *config.Config, linkService LinkService) http.Handler {
	return NewRouterWithOptions(cfg, linkService, DefaultRouterOptions())
}

func NewRouterWithOptions(cfg *config.Config, linkService LinkService, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler(opts.Pinger)
	linksHandler := NewLinksHandler(cfg, linkService)

	owner := middleware.OwnerMiddleware(cfg.Security.JWTSecret)
	apiKey := middleware.APIKeyMiddleware(cfg.Security.APIKeys)

	// Route middleware runs after the mux has matched, so r.Pattern is
	// already set on the request seen by the outer logging and metrics layers.
	handle := func(pattern string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
		mws = append([]func(http.Handler) http.Handler{owner}, mws...)
		mux.Handle(pattern, middleware.Chain(namedSpan(pattern, h), mws...))
	}

	mux.HandleFunc("GET /health", namedSpan("GET /health", healthHandler.Health))
	mux.HandleFunc("GET /metrics", namedSpan("GET /metrics", healthHandler.Metrics().ServeHTTP))

	handle("POST /links/shorten", linksHandler.Create, apiKey)
	handle("GET /links/search", linksHandler.Search)
	handle("GET /links/{code}", linksHandler.Redirect)
	handle("GET /links/{code}/stats", linksHandler.Stats)
	handle("GET /aliases/{alias}", linksHandler.GetByAlias)
	handle("PUT /links/{code}", linksHandler.Update, apiKey)
	handle("DELETE /links/delete_by_short_code/{code}", linksHandler.DeleteByCode, apiKey)
	handle("DELETE /links/delete_by_custom_alias/{alias}", linksHandler.DeleteByAlias, apiKey)

	var innerHandler http.Handler = mux
	if opts.EnableCORS {
		innerHandler = middleware.CORSMiddleware(cfg.Security.CORSOrigins)(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	otelOptions := []otelhttp.Option{
		// the route is unknown when the span starts; namedSpan renames it
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, cfg.App.Name, otelOptions...)
}

// namedSpan renames the server span after the matched route and tags it
// with http.route.
func namedSpan(pattern string, h http.HandlerFunc) http.HandlerFunc {
	name, ok := spanNames[pattern]
	if !ok {
		name = pattern
	}
	_, route, _ := strings.Cut(pattern, " ")

	return func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		span.SetName(name)
		span.SetAttributes(semconv.HTTPRoute(route))
		h(w, r)
	}
}
