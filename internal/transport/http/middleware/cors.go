package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"

	"github.com/IgorGrieder/encurtador-links/pkg/httputils"
)

// CORSMiddleware allows the configured origins. An empty list or "*" allows
// any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			APIKeyHeader,
			"Accept",
			"Origin",
			"X-Requested-With",
			httputils.CorrelationIDHeader,
			// OpenTelemetry headers
			"traceparent",
			"tracestate",
			"baggage",
		},
		ExposedHeaders:   []string{httputils.CorrelationIDHeader, "Location"},
		AllowCredentials: true,
	}

	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		// credentials forbid a literal "*", so echo the request origin
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = allowedOrigins
	}

	return cors.New(opts).Handler
}
