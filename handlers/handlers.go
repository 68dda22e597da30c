// Package handlers provides HTTP request handlers for the labelscan API
// endpoints. It includes the label extraction endpoint, health checks, and
// response formatting with consistent error handling.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/medlabel/labelscan-api/data"
	"github.com/medlabel/labelscan-api/extraction"
	"github.com/medlabel/labelscan-api/interfaces"
	"github.com/medlabel/labelscan-api/logging"
	"github.com/medlabel/labelscan-api/lookup"
	"github.com/medlabel/labelscan-api/metrics"
)

// noInfoMessage fills uses/side_effects when neither lookup tier finds a row
const noInfoMessage = "No information found in our database."

// RespondWithJSON marshals payload and writes it with the given status.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(body)
}

// RespondWithError writes a JSON error body carrying the status text, the
// caller-safe message, and the code.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// ExtractMedicineData accepts a medicine label image upload, extracts its
// fields through the model, and merges reference data into the response.
// The upload is written to a per-request scratch file that is removed on
// every exit path.
func ExtractMedicineData(extractor interfaces.Extractor, dataContainer *data.DataContainer, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			logging.Warn("Upload request without a usable file field", "error", err, "remote_addr", r.RemoteAddr)
			RespondWithError(w, http.StatusBadRequest, "A file upload field named 'file' is required")
			return
		}
		defer file.Close()

		scratchPath, err := saveUpload(file, header.Filename, uploadDir)
		if err != nil {
			logging.Error("Failed to persist upload", "error", err)
			RespondWithError(w, http.StatusInternalServerError, extraction.MsgInternalFailure)
			return
		}
		defer func() {
			if err := os.Remove(scratchPath); err != nil {
				logging.Warn("Failed to remove upload scratch file", "path", scratchPath, "error", err)
			}
		}()

		start := time.Now()
		record, err := extractor.Extract(r.Context(), scratchPath)
		metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			message := extraction.MsgInternalFailure
			var extractionErr *interfaces.ExtractionError
			if errors.As(err, &extractionErr) {
				message = extractionErr.Message
			}

			if message == extraction.MsgParseFailure {
				metrics.ExtractionsTotal.WithLabelValues("parse_error").Inc()
			} else {
				metrics.ExtractionsTotal.WithLabelValues("model_error").Inc()
			}

			RespondWithError(w, http.StatusInternalServerError, message)
			return
		}
		metrics.ExtractionsTotal.WithLabelValues("ok").Inc()

		// Missing or null keys are treated as empty inputs for the lookup
		medicineName := stringField(record, "medicine_name")
		activeSalts := stringSliceField(record, "active_salts")

		details := lookup.FindMedicineDetails(dataContainer.GetMedicines(), medicineName, activeSalts)
		if details != nil {
			record["uses"] = details.Uses
			record["side_effects"] = details.SideEffects
			metrics.LookupsTotal.WithLabelValues(details.MatchedBy).Inc()
		} else {
			record["uses"] = noInfoMessage
			record["side_effects"] = noInfoMessage
			metrics.LookupsTotal.WithLabelValues("none").Inc()
		}

		RespondWithJSON(w, http.StatusOK, map[string]any{
			"message": "Data extracted successfully",
			"data":    record,
		})
	}
}

// saveUpload copies the uploaded file into a scratch file in uploadDir,
// keeping the original filename extension as a suffix. os.CreateTemp
// guarantees distinct names across concurrent requests.
func saveUpload(file io.Reader, originalName string, uploadDir string) (string, error) {
	scratchFile, err := os.CreateTemp(uploadDir, "upload-*"+filepath.Ext(originalName))
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	if _, err := io.Copy(scratchFile, file); err != nil {
		scratchFile.Close()
		os.Remove(scratchFile.Name())
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}

	if err := scratchFile.Close(); err != nil {
		os.Remove(scratchFile.Name())
		return "", fmt.Errorf("failed to close scratch file: %w", err)
	}

	return scratchFile.Name(), nil
}

// stringField reads a string key from the record, treating null, absent,
// and non-string values as empty
func stringField(record interfaces.Record, key string) string {
	if value, ok := record[key].(string); ok {
		return value
	}
	return ""
}

// stringSliceField reads a list-of-strings key from the record. A missing
// key, a null value, and non-string elements are all tolerated.
func stringSliceField(record interfaces.Record, key string) []string {
	raw, ok := record[key].([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if value, ok := item.(string); ok {
			values = append(values, value)
		}
	}
	return values
}

// HealthResponse fixes the field order of the health payload.
type HealthResponse struct {
	Status        string         `json:"status"`
	LoadedAt      string         `json:"dataset_loaded_at"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// HealthCheck reports service status plus dataset and runtime statistics.
func HealthCheck(checker interfaces.HealthChecker, dataContainer *data.DataContainer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, healthData, httpStatus := checker.HealthCheck()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		response := HealthResponse{
			Status:        status,
			LoadedAt:      dataContainer.GetLoadedAt().Format(time.RFC3339),
			UptimeSeconds: time.Since(dataContainer.GetServerStartTime()).Seconds(),
			Data:          healthData,
			System: map[string]any{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]any{
					"alloc_mb":       int(m.Alloc >> 20),
					"total_alloc_mb": int(m.TotalAlloc >> 20),
					"sys_mb":         int(m.Sys >> 20),
					"num_gc":         m.NumGC,
				},
			},
		}

		RespondWithJSON(w, httpStatus, response)
	}
}

// ServeIndex describes the service and its routes
func ServeIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		RespondWithJSON(w, http.StatusOK, map[string]any{
			"service": "labelscan-api",
			"endpoints": map[string]string{
				"POST /extract-medicine-data/": "Extract fields from a medicine label image (multipart field 'file') and enrich them from the reference dataset",
				"GET /health":                  "Service health and dataset statistics",
				"GET /metrics":                 "Prometheus metrics",
			},
		})
	}
}
