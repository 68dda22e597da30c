// Package dataset provides loading and parsing of the medicine reference CSV.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readCSVFile reads the whole CSV file into records.
// Some exported datasets arrive in ISO-8859-1 instead of UTF-8, so the raw
// bytes are checked first and decoded when needed.
func readCSVFile(path string) ([][]string, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if utf8.Valid(fileBytes) {
		// Already UTF-8, use as-is
		reader = bytes.NewReader(fileBytes)
	} else {
		// Not UTF-8, decode from ISO-8859-1
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(fileBytes))
	}

	csvReader := csv.NewReader(reader)
	// Rows with a deviating column count are filtered out later with a
	// skip counter instead of aborting the whole load
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %s: %w", path, err)
	}

	return records, nil
}
