package validators

// Thresholds are the comparison tolerances used by cross-document
// validation. The defaults reproduce established review policy; they are
// tunable configuration, not invariants.
type Thresholds struct {
	// NamePass and NameWarn bound fuzzy name similarity:
	// >= NamePass is pass, >= NameWarn is warning, below is fail.
	NamePass float64
	NameWarn float64

	// QuantityTolerance is the relative tolerance for numeric quantities
	QuantityTolerance float64

	// DateToleranceDays is the absolute day delta allowed between dates
	DateToleranceDays int
}

// DefaultThresholds returns the standard review policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NamePass:          0.80,
		NameWarn:          0.60,
		QuantityTolerance: 0.05,
		DateToleranceDays: 120,
	}
}
