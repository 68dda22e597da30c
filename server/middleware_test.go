package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		query        string
		expectedCost int64
	}{
		// Free endpoints
		{"Index page", "/", "", 0},
		{"Favicon", "/favicon.ico", "", 0},

		// Cheap read-only endpoints
		{"Health endpoint", "/health", "", 5},
		{"Metrics endpoint", "/metrics", "", 5},

		// Extraction spends a model call
		{"Extract route", "/extract-medicine-data/", "", 100},
		{"Extract route without trailing slash", "/extract-medicine-data", "", 100},

		// Default case
		{"Unknown endpoint", "/unknown", "", 20},
		{"Nested unknown endpoint", "/some/other/path", "", 20},

		// ===== EDGE CASES =====
		// Query strings never change the cost
		{"Health with params", "/health", "test=value", 5},
		{"Extract with params", "/extract-medicine-data/", "debug=1", 100},
		{"Index with params", "/", "utm_source=mail", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path+"?"+tt.query, nil)
			cost := getTokenCost(req)

			if cost != tt.expectedCost {
				t.Errorf("Expected cost %d for path %s with query %s, got %d",
					tt.expectedCost, tt.path, tt.query, cost)
			}
		})
	}
}

func TestRateLimitHandler_Headers(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/unknown", nil)
	req.RemoteAddr = "10.1.1.1:5555"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected X-RateLimit-Limit 1000, got %s", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Rate") != "3" {
		t.Errorf("Expected X-RateLimit-Rate 3, got %s", rr.Header().Get("X-RateLimit-Rate"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected X-RateLimit-Remaining to be set")
	}
}

func TestRateLimitHandler_FreeEndpoint(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// The index page costs nothing, the bucket stays full
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.1.2:5555"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK, got %d", rr.Code)
	}
	if remaining := rr.Header().Get("X-RateLimit-Remaining"); remaining != "1000" {
		t.Errorf("Expected full bucket after free request, got %s", remaining)
	}
}

func TestRateLimitHandler_Exhaustion(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Each extraction costs 100 of the 1000 bucket tokens, so the client
	// gets ten through before the limiter pushes back
	clientAddr := "10.1.1.3:5555"
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("POST", "/extract-medicine-data/", nil)
		req.RemoteAddr = clientAddr
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Request %d should pass, got status %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest("POST", "/extract-medicine-data/", nil)
	req.RemoteAddr = clientAddr
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 after bucket exhaustion, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %s", rr.Header().Get("Retry-After"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("Expected X-RateLimit-Remaining 0, got %s", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if !strings.Contains(rr.Body.String(), "Rate limit exceeded") {
		t.Errorf("Expected rate limit message in body, got: %s", rr.Body.String())
	}
}

func TestRateLimiter_SeparateClients(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Draining one client's bucket must not affect another's
	drainedAddr := "10.1.1.4:5555"
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("POST", "/extract-medicine-data/", nil)
		req.RemoteAddr = drainedAddr
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest("POST", "/extract-medicine-data/", nil)
	req.RemoteAddr = "10.1.1.5:5555"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Fresh client should not be rate limited, got %d", rr.Code)
	}
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	if rl == nil {
		t.Fatal("NewRateLimiter returned nil")
	}
	if rl.clients == nil {
		t.Error("Expected initialized client map")
	}

	// The same client gets the same bucket back
	bucket1 := rl.getBucket("10.2.2.2:1111")
	bucket2 := rl.getBucket("10.2.2.2:1111")
	if bucket1 != bucket2 {
		t.Error("Expected the same bucket for repeated lookups")
	}

	bucket3 := rl.getBucket("10.2.2.3:1111")
	if bucket1 == bucket3 {
		t.Error("Expected distinct buckets for distinct clients")
	}
}
