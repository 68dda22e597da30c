// Package health provides health checking functionality for the labelscan API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/medlabel/labelscan-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
	}
}

// HealthCheck returns HTTP-specific health data
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	// Get data statistics
	medicineCount := h.dataStore.GetMedicineCount()
	loadedAt := h.dataStore.GetLoadedAt()

	datasetAge := time.Since(loadedAt)

	// Extraction works without reference data, lookups just return the
	// fallback message. A missing dataset therefore degrades the service
	// instead of taking it down.
	if medicineCount == 0 {
		status = "degraded"
		httpStatus = http.StatusOK
	} else {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	// Build response data (no system metrics, only data-related fields)
	data = map[string]any{
		"dataset_loaded_at": loadedAt.Format(time.RFC3339),
		"dataset_age_hours": math.Round(datasetAge.Hours()*10) / 10,
		"medicines":         medicineCount,
	}

	if report := h.dataStore.GetDataQualityReport(); report != nil {
		data["duplicate_names"] = len(report.DuplicateNames)
		data["rows_without_uses"] = report.RowsWithoutUses
		data["rows_without_side_effects"] = report.RowsWithoutSideEffects
	}

	return status, data, httpStatus
}
