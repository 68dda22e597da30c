package dataset

import (
	"github.com/medlabel/labelscan-api/dataset/entities"
	"github.com/medlabel/labelscan-api/interfaces"
)

// Compile-time check to ensure MedicineParser implements Parser interface
var _ interfaces.Parser = (*MedicineParser)(nil)

// MedicineParser implements the Parser interface
type MedicineParser struct {
	path string
}

// NewMedicineParser creates a new MedicineParser reading from the given CSV path
func NewMedicineParser(path string) *MedicineParser {
	return &MedicineParser{path: path}
}

// ParseMedicines implements the Parser interface
func (p *MedicineParser) ParseMedicines() ([]entities.Medicine, error) {
	return ParseMedicines(p.path)
}
