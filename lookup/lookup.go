// Package lookup implements the two-tier reference search that enriches
// extracted label data with usage and side-effect information.
package lookup

import (
	"strings"

	"github.com/medlabel/labelscan-api/dataset/entities"
)

// MatchResult carries the fields copied from a matched dataset row.
// Values are passed through as-is, blank cells included.
type MatchResult struct {
	Uses        string `json:"uses"`
	SideEffects string `json:"side_effects"`
	// MatchedBy records which tier produced the match, "name" or
	// "composition". Internal, never serialized.
	MatchedBy string `json:"-"`
}

// FindMedicineDetails searches the dataset for a medicine, first by name,
// then by active salts. A nil result means no match, which is distinct from
// a match whose fields are blank.
//
// Tier 1 matches medicineName case-insensitively anywhere inside a row's
// name; the first row in dataset order wins and tier 2 is not consulted.
// Tier 2 runs only when tier 1 found nothing: each salt is truncated at its
// first "(" to drop dosage annotations like "(500mg)", trimmed, and matched
// against row compositions. The first salt that matches any row selects the
// first matching row.
func FindMedicineDetails(medicines []entities.Medicine, medicineName string, activeSalts []string) *MatchResult {
	if len(medicines) == 0 {
		return nil
	}

	if medicineName != "" {
		needle := strings.ToLower(medicineName)
		for _, med := range medicines {
			// Rows without a name are excluded from matching
			if med.NameNormalized == "" {
				continue
			}
			if strings.Contains(med.NameNormalized, needle) {
				return &MatchResult{Uses: med.Uses, SideEffects: med.SideEffects, MatchedBy: "name"}
			}
		}
	}

	for _, salt := range activeSalts {
		cleaned := cleanSalt(salt)
		if cleaned == "" {
			continue
		}

		needle := strings.ToLower(cleaned)
		for _, med := range medicines {
			if med.CompositionNormalized == "" {
				continue
			}
			if strings.Contains(med.CompositionNormalized, needle) {
				return &MatchResult{Uses: med.Uses, SideEffects: med.SideEffects, MatchedBy: "composition"}
			}
		}
	}

	return nil
}

// cleanSalt strips a dosage annotation from a salt string by truncating at
// the first "(" and trimming surrounding whitespace.
func cleanSalt(salt string) string {
	if idx := strings.Index(salt, "("); idx != -1 {
		salt = salt[:idx]
	}
	return strings.TrimSpace(salt)
}
