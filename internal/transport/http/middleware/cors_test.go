package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		reqOrigin   string
		wantAllowed string
	}{
		{"any origin when unset", nil, "https://app.example.com", "https://app.example.com"},
		{"wildcard", []string{"*"}, "https://other.example.com", "https://other.example.com"},
		{"listed origin", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
		{"unlisted origin", []string{"https://app.example.com"}, "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORSMiddleware(tt.origins)(okHandler())

			req := httptest.NewRequest(http.MethodOptions, "/links/abc", nil)
			req.Header.Set("Origin", tt.reqOrigin)
			req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowed {
				t.Errorf("got allow-origin %q, want %q", got, tt.wantAllowed)
			}
		})
	}
}
