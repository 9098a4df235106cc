package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/IgorGrieder/encurtador-links/internal/constants"
	"github.com/IgorGrieder/encurtador-links/pkg/httputils"
)

const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware guards mutating routes. A missing key is 401, an unknown
// key is 403. With no keys configured every request passes.
func APIKeyMiddleware(allowedKeys []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(allowedKeys))
	for _, k := range allowedKeys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	if len(allowed) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if apiKey == "" {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}
			if !keyAllowed(allowed, []byte(apiKey)) {
				httputils.WriteAPIError(w, r, constants.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func keyAllowed(allowed [][]byte, key []byte) bool {
	ok := 0
	for _, k := range allowed {
		ok |= subtle.ConstantTimeCompare(k, key)
	}
	return ok == 1
}
