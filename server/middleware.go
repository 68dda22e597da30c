package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/medlabel/labelscan-api/config"
	"github.com/medlabel/labelscan-api/logging"
	"github.com/medlabel/labelscan-api/metrics"
)

// RealIPMiddleware replaces RemoteAddr with the client address from
// X-Forwarded-For when the request came through a proxy.
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Only the first entry names the client, the rest is the proxy chain
			client, _, _ := strings.Cut(xff, ",")
			r.RemoteAddr = strings.TrimSpace(client)
		}
		next.ServeHTTP(w, r)
	})
}

// BlockDirectAccessMiddleware rejects requests that did not come through
// the reverse proxy. Loopback clients are exempt so the service stays
// reachable during local development.
func BlockDirectAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied := r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != ""
		if !proxied && !isLoopback(r.RemoteAddr) {
			logging.Warn("Direct access blocked", "remote_addr", r.RemoteAddr, "user_agent", r.Header.Get("User-Agent"))
			http.Error(w, "Direct access not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// Bare address without a port
		host = remoteAddr
	}
	return host == "127.0.0.1" || host == "::1" || host == "localhost"
}

// RequestSizeMiddleware rejects requests whose declared body size or
// header block exceeds the configured limits, before any handler starts
// reading them.
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			declared, err := strconv.ParseInt(r.Header.Get("Content-Length"), 10, 64)
			if err == nil && declared > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", declared,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())
				respondWithJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
					"error": fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody),
				})
				return
			}

			if size := headerBytes(r.Header); size > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", size,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())
				respondWithJSON(w, http.StatusRequestHeaderFieldsTooLarge, map[string]string{
					"error": fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// headerBytes approximates the wire size of the headers, counting key
// and value lengths without separators.
func headerBytes(h http.Header) int64 {
	var n int64
	for key, values := range h {
		n += int64(len(key))
		for _, v := range values {
			n += int64(len(v))
		}
	}
	return n
}

// Per-client budget. Both values are advertised to clients through the
// X-RateLimit headers.
const (
	rateLimitRefill = 3    // tokens per second
	rateLimitBurst  = 1000 // bucket capacity
)

// RateLimiter hands out one token bucket per client address.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*ratelimit.Bucket
}

// NewRateLimiter creates a rate limiter with an empty client table.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{clients: make(map[string]*ratelimit.Bucket)}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.clients[clientIP]
	if !ok {
		bucket = ratelimit.NewBucketWithRate(rateLimitRefill, rateLimitBurst)
		rl.clients[clientIP] = bucket
		metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	}
	return bucket
}

// sweep drops buckets that have refilled completely. A full bucket means
// the client has been quiet for at least burst/refill seconds.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
}

// globalRateLimiter is shared by every request through RateLimitHandler.
var globalRateLimiter = NewRateLimiter()

func init() {
	go func() {
		for range time.Tick(30 * time.Minute) {
			globalRateLimiter.sweep()
		}
	}()
}

// getTokenCost prices a request for the token bucket. Probes are cheap,
// extraction costs far more because it spends a model call.
func getTokenCost(r *http.Request) int64 {
	switch r.URL.Path {
	case "/", "/favicon.ico":
		return 0
	case "/health", "/metrics":
		return 5
	case "/extract-medicine-data", "/extract-medicine-data/":
		return 100
	}
	return 20
}

// RateLimitHandler charges each request against the client's token
// bucket and reports the bucket state through X-RateLimit headers.
func RateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := globalRateLimiter.getBucket(r.RemoteAddr)
		cost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateLimitBurst))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(rateLimitRefill))

		if bucket.TakeAvailable(cost) < cost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode JSON response", "error", err)
	}
}
