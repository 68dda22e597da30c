package validation

import (
	"strings"
	"testing"

	"github.com/medlabel/labelscan-api/dataset/entities"
	"github.com/medlabel/labelscan-api/logging"
)

// ============================================================================
// EDGE CASE TESTS
// ============================================================================

func TestValidateMedicine_NameAtBoundary(t *testing.T) {
	validator := NewDataValidator()

	// Test with name exactly at boundary
	validName := strings.Repeat("a", 200)
	err := validator.ValidateMedicine(&entities.Medicine{Name: validName})
	if err != nil {
		t.Errorf("Expected no error for name at max length (200 chars), got: %v", err)
	}

	// Test with name just over boundary
	invalidName := validName + "a"
	err = validator.ValidateMedicine(&entities.Medicine{Name: invalidName})
	if err == nil {
		t.Error("Expected error for name exceeding max length (201 chars)")
	}
}

func TestValidateMedicine_CompositionAtBoundary(t *testing.T) {
	validator := NewDataValidator()

	validComposition := strings.Repeat("a", 500)
	err := validator.ValidateMedicine(&entities.Medicine{
		Name:        "Test",
		Composition: validComposition,
	})
	if err != nil {
		t.Errorf("Expected no error for composition at max length (500 chars), got: %v", err)
	}

	err = validator.ValidateMedicine(&entities.Medicine{
		Name:        "Test",
		Composition: validComposition + "a",
	})
	if err == nil {
		t.Error("Expected error for composition exceeding max length (501 chars)")
	}
}

func TestValidateMedicine_UnicodeNames(t *testing.T) {
	validator := NewDataValidator()

	// Dataset rows occasionally carry non-ASCII brand names, those are fine
	testCases := []struct {
		name         string
		medicineName string
	}{
		{"Accented name", "Benzoré 5% Gel"},
		{"Greek letters", "Alpha-D3 0.25mcg Capsule"},
		{"Registered mark", "Calpol® 650mg"},
		{"Micro sign", "Thyronorm 25µg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateMedicine(&entities.Medicine{Name: tc.medicineName})
			if err != nil {
				t.Errorf("Expected no error for name '%s', got: %v", tc.medicineName, err)
			}
		})
	}
}

func TestReportDataQuality_TripleDuplicate(t *testing.T) {
	logging.InitLogger("")
	validator := NewDataValidator()

	// Three rows with the same normalized name count as two duplicates,
	// the first occurrence is the canonical row
	medicines := []entities.Medicine{
		{Name: "Dolo 650", NameNormalized: "dolo 650"},
		{Name: "DOLO 650", NameNormalized: "dolo 650"},
		{Name: "dolo 650", NameNormalized: "dolo 650"},
	}

	report := validator.ReportDataQuality(medicines)

	if len(report.DuplicateNames) != 2 {
		t.Errorf("Expected 2 duplicates for a triple, got %d: %v", len(report.DuplicateNames), report.DuplicateNames)
	}
}

func TestReportDataQuality_BlankNamesNotDuplicates(t *testing.T) {
	logging.InitLogger("")
	validator := NewDataValidator()

	// Rows with blank names are counted as missing, never as duplicates
	// of each other
	medicines := []entities.Medicine{
		{Name: "", NameNormalized: ""},
		{Name: "", NameNormalized: ""},
		{Name: "", NameNormalized: ""},
	}

	report := validator.ReportDataQuality(medicines)

	if len(report.DuplicateNames) != 0 {
		t.Errorf("Expected no duplicates for blank names, got %v", report.DuplicateNames)
	}
	if report.RowsWithoutName != 3 {
		t.Errorf("Expected 3 rows without name, got %d", report.RowsWithoutName)
	}
}

func TestReportDataQuality_AllCellsBlank(t *testing.T) {
	logging.InitLogger("")
	validator := NewDataValidator()

	medicines := []entities.Medicine{
		{Name: "", Composition: "", Uses: "", SideEffects: ""},
	}

	report := validator.ReportDataQuality(medicines)

	if report.RowsWithoutName != 1 {
		t.Errorf("Expected 1 row without name, got %d", report.RowsWithoutName)
	}
	if report.RowsWithoutComposition != 1 {
		t.Errorf("Expected 1 row without composition, got %d", report.RowsWithoutComposition)
	}
	if report.RowsWithoutUses != 1 {
		t.Errorf("Expected 1 row without uses, got %d", report.RowsWithoutUses)
	}
	if report.RowsWithoutSideEffects != 1 {
		t.Errorf("Expected 1 row without side effects, got %d", report.RowsWithoutSideEffects)
	}
}

func TestReportDataQuality_NilSlice(t *testing.T) {
	logging.InitLogger("")
	validator := NewDataValidator()

	report := validator.ReportDataQuality(nil)

	if report == nil {
		t.Fatal("Expected a report for a nil slice")
	}
	if len(report.DuplicateNames) != 0 {
		t.Errorf("Expected no duplicates, got %v", report.DuplicateNames)
	}
	if report.RowsWithoutName != 0 {
		t.Errorf("Expected 0 rows without name, got %d", report.RowsWithoutName)
	}
}
