// Package interfaces defines core abstractions for the labelscan API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/medlabel/labelscan-api/dataset/entities"
)

// Record is the untyped field set parsed from the model's JSON output.
// Downstream code reads the expected keys (medicine_name, manufacturer,
// active_salts, expiry_date, batch_number) but never rejects extra or
// missing ones.
type Record map[string]any

// ExtractionError is the caller-visible failure of an extraction.
// Message is a fixed string safe to return to clients; diagnostic detail is
// logged at the failure site and never carried here.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// DataQualityReport provides a summary of dataset quality issues
type DataQualityReport struct {
	DuplicateNames         []string
	RowsWithoutName        int // Count of rows with a blank name cell
	RowsWithoutComposition int // Count of rows with a blank composition cell
	RowsWithoutUses        int
	RowsWithoutSideEffects int
}

// DataStore defines the contract for dataset access.
// It provides thread-safe access to the medicine snapshot loaded once at
// startup and never mutated afterwards.
type DataStore interface {
	GetMedicines() []entities.Medicine
	GetMedicineCount() int
	GetLoadedAt() time.Time
	GetServerStartTime() time.Time
	GetDataQualityReport() *DataQualityReport

	// SetData stores the startup snapshot, rows must not be mutated after
	SetData(medicines []entities.Medicine, report *DataQualityReport)
}

// Parser defines the contract for loading the reference dataset.
type Parser interface {
	// ParseMedicines reads and parses all dataset rows
	ParseMedicines() ([]entities.Medicine, error)
}

// Extractor defines the contract for turning a label image into a Record.
type Extractor interface {
	// Extract sends the image to the model and parses its JSON response.
	// On failure the returned error is an *ExtractionError whose Message is
	// safe to surface to the caller.
	Extract(ctx context.Context, imagePath string) (Record, error)
}

// Scheduler defines the contract for background maintenance jobs.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// DataValidator defines the contract for dataset validation operations.
type DataValidator interface {
	// ValidateMedicine checks if a medicine row is usable for matching
	ValidateMedicine(m *entities.Medicine) error

	// ReportDataQuality generates a data quality report for a loaded dataset
	ReportDataQuality(medicines []entities.Medicine) *DataQualityReport
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, data map[string]any, httpStatus int)
}
