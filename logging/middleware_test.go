package logging

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

// newLoggedHandler wraps a trivial 200 handler in LoggingMiddleware and
// captures the log output.
func newLoggedHandler() (*strings.Builder, http.Handler) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	return &buf, h
}

func serveLogged(h http.Handler, method, target string, reqID any, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, reqID))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLoggingMiddlewareSkipsProbes(t *testing.T) {
	buf, h := newLoggedHandler()

	for _, path := range []string{"/health", "/metrics"} {
		buf.Reset()
		rr := serveLogged(h, http.MethodGet, path, "probe-1", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
		if out := buf.String(); out != "" {
			t.Errorf("%s should not be logged, got: %s", path, out)
		}
	}
}

func TestLoggingMiddlewareLogsRequests(t *testing.T) {
	buf, h := newLoggedHandler()

	rr := serveLogged(h, http.MethodPost, "/extract-medicine-data/", "req-1", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	out := buf.String()
	if !strings.Contains(out, "HTTP request") {
		t.Errorf("log line missing message, got: %s", out)
	}
	if !strings.Contains(out, "/extract-medicine-data/") {
		t.Errorf("log line missing path, got: %s", out)
	}
}

func TestLoggingMiddlewareRequestIDFallback(t *testing.T) {
	buf, h := newLoggedHandler()

	// A non-string value under the request ID key falls back to unknown
	serveLogged(h, http.MethodGet, "/test", 12345, nil)
	if out := buf.String(); !strings.Contains(out, "request_id=unknown") {
		t.Errorf("want request_id=unknown, got: %s", out)
	}
}

func TestLoggingMiddlewareQueryField(t *testing.T) {
	buf, h := newLoggedHandler()

	serveLogged(h, http.MethodGet, "/test", "q-1", nil)
	if out := buf.String(); strings.Contains(out, "query=") {
		t.Errorf("query field present without a query string: %s", out)
	}

	buf.Reset()
	serveLogged(h, http.MethodGet, "/test?foo=bar&baz=qux", "q-2", nil)
	out := buf.String()
	if !strings.Contains(out, "query=") || !strings.Contains(out, "foo=bar") {
		t.Errorf("query field missing or incomplete: %s", out)
	}
}

func TestLoggingMiddlewareContentLengthField(t *testing.T) {
	buf, h := newLoggedHandler()

	serveLogged(h, http.MethodPost, "/extract-medicine-data/", "c-1", strings.NewReader("fake image bytes"))
	if out := buf.String(); !strings.Contains(out, "content_length=") {
		t.Errorf("content_length missing for request with a body: %s", out)
	}

	buf.Reset()
	serveLogged(h, http.MethodGet, "/test", "c-2", nil)
	if out := buf.String(); strings.Contains(out, "content_length=") {
		t.Errorf("content_length present without a body: %s", out)
	}
}
