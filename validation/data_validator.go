// Package validation provides data validation for the medicine reference dataset.
package validation

import (
	"fmt"
	"strings"

	"github.com/medlabel/labelscan-api/dataset/entities"
	"github.com/medlabel/labelscan-api/interfaces"
	"github.com/medlabel/labelscan-api/logging"
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicine checks if a medicine row is usable
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	// Validate name
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty medicine name")
	}

	if len(m.Name) > 200 {
		return fmt.Errorf("medicine name too long: %d characters", len(m.Name))
	}

	// Validate composition
	if len(m.Composition) > 500 {
		return fmt.Errorf("composition too long for %q: %d characters", m.Name, len(m.Composition))
	}

	// Validate manufacturer
	if len(m.Manufacturer) > 200 {
		return fmt.Errorf("manufacturer too long for %q: %d characters", m.Name, len(m.Manufacturer))
	}

	return nil
}

// ReportDataQuality surveys the loaded rows without rejecting any of them.
// Blank cells are expected in this dataset, the report only makes them
// visible.
func (v *DataValidatorImpl) ReportDataQuality(medicines []entities.Medicine) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateNames:         []string{},
		RowsWithoutName:        0,
		RowsWithoutComposition: 0,
		RowsWithoutUses:        0,
		RowsWithoutSideEffects: 0,
	}

	// Check 1: Find duplicate names (case-insensitive)
	seenNames := make(map[string]bool)
	for _, med := range medicines {
		if med.NameNormalized == "" {
			continue
		}
		if seenNames[med.NameNormalized] {
			report.DuplicateNames = append(report.DuplicateNames, med.Name)
		}
		seenNames[med.NameNormalized] = true
	}

	// Check 2: Count rows with blank cells
	for _, med := range medicines {
		if strings.TrimSpace(med.Name) == "" {
			report.RowsWithoutName++
		}
		if strings.TrimSpace(med.Composition) == "" {
			report.RowsWithoutComposition++
		}
		if strings.TrimSpace(med.Uses) == "" {
			report.RowsWithoutUses++
		}
		if strings.TrimSpace(med.SideEffects) == "" {
			report.RowsWithoutSideEffects++
		}
	}

	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate medicine names detected, first matching row wins",
			"count", len(report.DuplicateNames),
		)
	}

	return report
}
