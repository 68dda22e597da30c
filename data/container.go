// Package data provides thread-safe storage for the medicine reference
// dataset. The snapshot is stored once during startup and shared by
// reference across request handlers through atomic loads.
package data

import (
	"sync/atomic"
	"time"

	"github.com/medlabel/labelscan-api/dataset/entities"
	"github.com/medlabel/labelscan-api/interfaces"
	"github.com/medlabel/labelscan-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the dataset snapshot behind atomic values.
// The snapshot is written once at startup and only read afterwards, so
// concurrent request handlers need no locking.
type DataContainer struct {
	medicines       atomic.Value // []entities.Medicine
	qualityReport   atomic.Value // *interfaces.DataQualityReport
	loadedAt        atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.medicines.Store(make([]entities.Medicine, 0))
	dc.qualityReport.Store(&interfaces.DataQualityReport{})
	dc.loadedAt.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// Thread-safe getters with type check

// GetMedicines returns the medicine rows in dataset order
func (dc *DataContainer) GetMedicines() []entities.Medicine {
	if v := dc.medicines.Load(); v != nil {
		if medicines, ok := v.([]entities.Medicine); ok {
			return medicines
		}
	}

	logging.Warn("Medicine list is empty or invalid")
	return []entities.Medicine{}
}

// GetMedicineCount returns the number of loaded medicine rows
func (dc *DataContainer) GetMedicineCount() int {
	return len(dc.GetMedicines())
}

// GetDataQualityReport returns the quality report from the startup load
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if v := dc.qualityReport.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok {
			return report
		}
	}

	logging.Warn("Data quality report is empty or invalid")
	return &interfaces.DataQualityReport{}
}

// GetLoadedAt returns the timestamp of the dataset load
func (dc *DataContainer) GetLoadedAt() time.Time {
	if v := dc.loadedAt.Load(); v != nil {
		if loadedAt, ok := v.(time.Time); ok {
			return loadedAt
		}
	}

	logging.Warn("Could not get the dataset load time")
	return time.Time{}
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// SetData stores the loaded dataset snapshot with its quality report.
// Called once from startup before the server begins accepting requests;
// the rows must not be modified by the caller afterwards.
func (dc *DataContainer) SetData(medicines []entities.Medicine, report *interfaces.DataQualityReport) {
	dc.medicines.Store(medicines)
	dc.qualityReport.Store(report)
	dc.loadedAt.Store(time.Now())
}
