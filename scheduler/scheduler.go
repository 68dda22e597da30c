// Package scheduler provides the startup dataset load and recurring
// housekeeping jobs for the labelscan API. It loads the medicine reference
// CSV into the data container before the server starts, sweeps abandoned
// upload scratch files hourly, and logs daily service statistics.
package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/medlabel/labelscan-api/interfaces"
	"github.com/medlabel/labelscan-api/logging"
	"github.com/medlabel/labelscan-api/validation"
)

var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler owns the startup load and the recurring jobs.
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	uploadDir string
	scheduler *gocron.Scheduler
}

// NewScheduler wires the parser and data store to the cron jobs.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, uploadDir string) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		uploadDir: uploadDir,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start loads the dataset and schedules the housekeeping jobs
func (s *Scheduler) Start() error {
	if err := s.loadDataset(); err != nil {
		logging.Error("Failed to load medicine dataset", "error", err)
		return fmt.Errorf("dataset load failed: %w", err)
	}

	// Sweep abandoned upload scratch files every hour
	_, err := s.scheduler.Every(1).Hours().Do(func() {
		if err := s.sweepScratchFiles(); err != nil {
			logging.Error("Failed to sweep upload scratch files", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule scratch file sweep", "error", err)
		return fmt.Errorf("failed to schedule scratch file sweep: %w", err)
	}

	// Log service statistics once a day
	_, err = s.scheduler.Every(1).Days().At("06:00").Do(s.logDailyStats)

	if err != nil {
		logging.Error("Failed to schedule daily statistics", "error", err)
		return fmt.Errorf("failed to schedule daily statistics: %w", err)
	}

	s.scheduler.StartAsync()

	return nil
}

// Stop halts the recurring jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// loadDataset parses the reference CSV and stores the snapshot.
// A missing file yields an empty snapshot and a degraded service, a
// malformed file is a startup failure.
func (s *Scheduler) loadDataset() error {
	logging.Info(fmt.Sprintf("Loading medicine dataset at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	medicines, err := s.parser.ParseMedicines()
	if err != nil {
		return fmt.Errorf("failed to parse medicine dataset: %w", err)
	}

	validator := validation.NewDataValidator()
	report := validator.ReportDataQuality(medicines)

	// Rows failing validation are kept, blank cells still match by the
	// other column and blank uses/side_effects pass through as-is
	invalidRows := 0
	for i := range medicines {
		if err := validator.ValidateMedicine(&medicines[i]); err != nil {
			invalidRows++
		}
	}
	if invalidRows > 0 {
		logging.Warn("Dataset rows failing validation were kept for matching",
			"count", invalidRows,
		)
	}

	if report.RowsWithoutUses > 0 || report.RowsWithoutSideEffects > 0 {
		logging.Warn("Dataset rows with blank detail cells",
			"rows_without_uses", report.RowsWithoutUses,
			"rows_without_side_effects", report.RowsWithoutSideEffects,
		)
	}

	// Atomic store using the injected data store (including report)
	s.dataStore.SetData(medicines, report)

	elapsed := time.Since(start)
	logging.Info("Medicine dataset loaded", "duration", elapsed.String(), "medicine_count", len(medicines))

	return nil
}

// sweepScratchFiles removes upload scratch files older than one hour.
// Handlers delete their own scratch files, anything this old was left
// behind by a crash or kill.
func (s *Scheduler) sweepScratchFiles() error {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return fmt.Errorf("failed to read upload directory: %w", err)
	}

	cutoff := time.Now().Add(-1 * time.Hour)
	var removed int

	for _, entry := range entries {
		// Matches the scratch file prefix used by the extract handler
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "upload-") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(s.uploadDir, entry.Name())
			if err := os.Remove(fullPath); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		logging.Info("Removed orphaned upload scratch files", "count", removed, "dir", s.uploadDir)
	}

	return nil
}

// logDailyStats writes a daily snapshot of service state to the log
func (s *Scheduler) logDailyStats() {
	report := s.dataStore.GetDataQualityReport()

	logging.Info("Daily service statistics",
		"medicine_count", s.dataStore.GetMedicineCount(),
		"dataset_loaded_at", s.dataStore.GetLoadedAt().Format(time.RFC3339),
		"uptime", time.Since(s.dataStore.GetServerStartTime()).String(),
		"duplicate_names", len(report.DuplicateNames),
	)
}
