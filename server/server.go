// Package server wires the chi router, the middleware chain, and the
// lifecycle of the HTTP service, including graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medlabel/labelscan-api/config"
	"github.com/medlabel/labelscan-api/data"
	"github.com/medlabel/labelscan-api/handlers"
	"github.com/medlabel/labelscan-api/interfaces"
	"github.com/medlabel/labelscan-api/logging"
	"github.com/medlabel/labelscan-api/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// formatUptimeHuman renders a duration as "2d 1h 2m 30s". Units above the
// largest nonzero one are omitted, units below it always print.
func formatUptimeHuman(d time.Duration) string {
	total := int(d.Seconds())
	units := []struct {
		n      int
		suffix string
	}{
		{total / 86400, "d"},
		{total % 86400 / 3600, "h"},
		{total % 3600 / 60, "m"},
		{total % 60, "s"},
	}

	var b strings.Builder
	for i, u := range units {
		if b.Len() == 0 && u.n == 0 && i < len(units)-1 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d%s", u.n, u.suffix)
	}
	return b.String()
}

// Server owns the HTTP listener and its dependencies.
type Server struct {
	config        *config.Config
	dataContainer *data.DataContainer
	extractor     interfaces.Extractor
	healthChecker interfaces.HealthChecker
	router        chi.Router
	server        *http.Server
}

// NewServer builds the router, mounts middleware and routes, and prepares
// the listener without starting it.
func NewServer(cfg *config.Config, dataContainer *data.DataContainer, extractor interfaces.Extractor, healthChecker interfaces.HealthChecker) *Server {
	s := &Server{
		config:        cfg,
		dataContainer: dataContainer,
		extractor:     extractor,
		healthChecker: healthChecker,
		router:        chi.NewRouter(),
	}

	s.server = &http.Server{
		Addr:    net.JoinHostPort(cfg.Address, cfg.Port),
		Handler: s.router,
		// Uploads from mobile connections can be slow
		ReadTimeout: 60 * time.Second,
		// The model call happens inside the request, WriteTimeout stays
		// off so a slow extraction is not severed mid-response
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware mounts the chain in order. The direct access block runs
// before RealIPMiddleware so it still sees the socket address.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
}

func (s *Server) setupRoutes() {
	// The canonical extract route carries a trailing slash, the bare path is
	// registered too so clients that strip it still land on the handler
	extractHandler := handlers.ExtractMedicineData(s.extractor, s.dataContainer, s.config.UploadDir)
	s.router.Post("/extract-medicine-data/", extractHandler)
	s.router.Post("/extract-medicine-data", extractHandler)

	s.router.Get("/health", handlers.HealthCheck(s.healthChecker, s.dataContainer))
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
	s.router.Get("/", handlers.ServeIndex())
}

// Start serves requests until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Stopping server")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed, closing", "error", err)
		if closeErr := s.server.Close(); closeErr != nil {
			logging.Error("Server close failed", "error", closeErr)
			return closeErr
		}
	}

	// Responses already on the wire get a moment to finish
	time.Sleep(2 * time.Second)

	logging.Info("Server stopped")
	return nil
}

// startProfilingServer exposes pprof on a loopback-only port in dev mode.
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server listening", "addr", "localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Error("Profiling server failed", "error", err)
		}
	}()
}

// ServiceStats is a point-in-time snapshot for periodic logging.
type ServiceStats struct {
	Uptime          string `json:"uptime"`
	MemoryUsage     int    `json:"memory_usage_mb"`
	MedicineCount   int    `json:"medicine_count"`
	DatasetLoadedAt string `json:"dataset_loaded_at"`
}

// GetServiceStats reports uptime, heap use, and dataset state.
func (s *Server) GetServiceStats() ServiceStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return ServiceStats{
		Uptime:          formatUptimeHuman(time.Since(s.dataContainer.GetServerStartTime())),
		MemoryUsage:     int(mem.Alloc >> 20),
		MedicineCount:   s.dataContainer.GetMedicineCount(),
		DatasetLoadedAt: s.dataContainer.GetLoadedAt().Format(time.RFC3339),
	}
}
