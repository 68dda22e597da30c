package dataset

import (
	"fmt"
	"os"
	"strings"

	"github.com/medlabel/labelscan-api/dataset/entities"
	"github.com/medlabel/labelscan-api/logging"
)

// Column headers expected in the reference CSV. Surrounding whitespace in the
// header row is trimmed before matching.
const (
	columnName         = "Medicine Name"
	columnComposition  = "Composition"
	columnUses         = "Uses"
	columnSideEffects  = "Side_effects"
	columnManufacturer = "Manufacturer"
	columnImageURL     = "Image URL"
)

// ParseMedicines loads the reference dataset from path.
// A missing file is not fatal: the service runs with an empty dataset and
// every lookup yields no match.
func ParseMedicines(path string) ([]entities.Medicine, error) {
	records, err := readCSVFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Medicine dataset not found, lookup is disabled", "path", path)
			return []entities.Medicine{}, nil
		}
		return nil, fmt.Errorf("failed to read medicine dataset: %w", err)
	}

	if len(records) == 0 {
		logging.Warn("Medicine dataset has no rows", "path", path)
		return []entities.Medicine{}, nil
	}

	// Map trimmed header names to their column index
	columns := make(map[string]int)
	for i, header := range records[0] {
		columns[strings.TrimSpace(header)] = i
	}

	for _, required := range []string{columnName, columnComposition, columnUses, columnSideEffects} {
		if _, ok := columns[required]; !ok {
			logging.Warn("Medicine dataset is missing a column", "column", required, "path", path)
		}
	}

	medicines := make([]entities.Medicine, 0, len(records)-1)
	skippedEmptyRows := 0

	for _, row := range records[1:] {
		name := cell(row, columns, columnName)
		composition := cell(row, columns, columnComposition)

		// A row with neither a name nor a composition can never match
		if name == "" && composition == "" {
			skippedEmptyRows++
			continue
		}

		medicines = append(medicines, entities.Medicine{
			Name:                  name,
			Composition:           composition,
			Uses:                  cell(row, columns, columnUses),
			SideEffects:           cell(row, columns, columnSideEffects),
			Manufacturer:          cell(row, columns, columnManufacturer),
			ImageURL:              cell(row, columns, columnImageURL),
			NameNormalized:        strings.ToLower(name),
			CompositionNormalized: strings.ToLower(composition),
		})
	}

	// Log skip statistics if any rows were skipped
	if skippedEmptyRows > 0 {
		logging.Info("Medicine dataset skip statistics",
			"empty_rows", skippedEmptyRows,
			"total_rows", len(records)-1,
			"records_parsed", len(medicines))
	}

	logging.Info("Medicine dataset loaded", "path", path, "medicine_count", len(medicines))
	return medicines, nil
}

// cell returns the row value for a named column, or "" when the column is
// absent or the row is shorter than the header.
func cell(row []string, columns map[string]int, column string) string {
	idx, ok := columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
