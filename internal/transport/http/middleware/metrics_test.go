package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_LabelsByRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /links/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	h := MetricsMiddleware(mux)

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /links/{code}", "302")
	before := testutil.ToFloat64(counter)

	for _, code := range []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/links/"+code, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("got %v requests under the route label, want 3", got)
	}
}

func TestMetricsMiddleware_Unmatched(t *testing.T) {
	h := MetricsMiddleware(http.NewServeMux())

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("got %v unmatched requests, want 1", got)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("got %v in flight after completion, want 0", got)
	}
}

func TestStatusRecorder(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := newStatusRecorder(inner)

	if rec.status != http.StatusOK {
		t.Errorf("default status %d, want 200", rec.status)
	}

	rec.WriteHeader(http.StatusTeapot)
	n, _ := rec.Write([]byte("hello"))

	if rec.status != http.StatusTeapot || rec.bytes != n || n != 5 {
		t.Errorf("got status=%d bytes=%d", rec.status, rec.bytes)
	}
	if rec.Unwrap() != inner {
		t.Error("Unwrap should return the wrapped writer")
	}
}
