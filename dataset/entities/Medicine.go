package entities

// Medicine represents one row of the reference dataset.
// Uses and SideEffects may be blank when the source cell is empty.
type Medicine struct {
	Name                  string `json:"name"`
	Composition           string `json:"composition"`
	Uses                  string `json:"uses"`
	SideEffects           string `json:"side_effects"`
	Manufacturer          string `json:"manufacturer,omitempty"`
	ImageURL              string `json:"image_url,omitempty"`
	NameNormalized        string `json:"-"` // Pre-computed: ToLower(Name)
	CompositionNormalized string `json:"-"` // Pre-computed: ToLower(Composition)
}
