package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/medlabel/labelscan-api/config"
	"github.com/medlabel/labelscan-api/data"
	"github.com/medlabel/labelscan-api/dataset"
	"github.com/medlabel/labelscan-api/extraction"
	"github.com/medlabel/labelscan-api/health"
	"github.com/medlabel/labelscan-api/logging"
	"github.com/medlabel/labelscan-api/scheduler"
	"github.com/medlabel/labelscan-api/server"
)

func init() {
	// Read the env variables from the working directory
	if err := godotenv.Load(); err != nil {
		// If failed, try loading from the executable directory
		ex, exErr := os.Executable()
		if exErr != nil {
			logging.Error("Failed to get executable path", "error", exErr)
			os.Exit(1)
		}

		if chdirErr := os.Chdir(filepath.Dir(ex)); chdirErr != nil {
			logging.Error("Failed to change directory", "error", chdirErr)
			os.Exit(1)
		}

		// A missing .env is tolerated here, the environment may already be
		// populated by the process manager
		_ = godotenv.Load()
	}
}

func main() {
	// Validate required environment variables before anything else
	if err := config.ValidateAllEnvVars(); err != nil {
		logging.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging to console and weekly rotating file
	logging.InitLoggerWithOptions("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize, cfg.SlogLevel())
	defer logging.CloseLogger()

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	// Load the reference dataset and start the housekeeping jobs before the
	// server accepts requests
	parser := dataset.NewMedicineParser(cfg.DatasetPath)
	sched := scheduler.NewScheduler(dataContainer, parser, cfg.UploadDir)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Model client for label extraction
	extractor, err := extraction.NewGeminiExtractor(context.Background(), cfg.GoogleAPIKey, cfg.ExtractionModel)
	if err != nil {
		logging.Error("Failed to create extraction client", "error", err)
		os.Exit(1)
	}

	healthChecker := health.NewHealthChecker(dataContainer)

	srv := server.NewServer(cfg, dataContainer, extractor, healthChecker)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}

	stats := srv.GetServiceStats()
	logging.Info("Final service statistics",
		"uptime", stats.Uptime,
		"memory_usage_mb", stats.MemoryUsage,
		"medicine_count", stats.MedicineCount,
	)
}
