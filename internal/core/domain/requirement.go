package domain

// ValidationStrategy declares how evidence for a requirement is extracted
// and later validated. The set is closed: dispatch code switches over these
// four values and treats anything else as ErrUnknownStrategy.
type ValidationStrategy string

const (
	// StrategyPresence wants free-text proof that the topic is addressed;
	// no structured fields are produced.
	StrategyPresence ValidationStrategy = "presence"

	// StrategyTypedField wants the named field(s) as typed values from the
	// single best candidate document.
	StrategyTypedField ValidationStrategy = "typed_field"

	// StrategyCrossDocument runs the same field extraction against every
	// candidate document so values can be compared across them.
	StrategyCrossDocument ValidationStrategy = "cross_document"

	// StrategyManual wants snippets plus a synthesized question for a human
	// reviewer; structural and cross-document validation never visit it.
	StrategyManual ValidationStrategy = "manual"
)

// Valid reports whether the strategy is one of the four known values.
func (s ValidationStrategy) Valid() bool {
	switch s {
	case StrategyPresence, StrategyTypedField, StrategyCrossDocument, StrategyManual:
		return true
	}
	return false
}

// WantsTypedFields reports whether the strategy produces structured fields.
func (s ValidationStrategy) WantsTypedFields() bool {
	return s == StrategyTypedField || s == StrategyCrossDocument
}

// Requirement is one entry of the registry review checklist.
// Requirements are loaded once from a fixed checklist and never mutated.
type Requirement struct {
	ID             string             `json:"id" yaml:"id" validate:"required"`
	Category       string             `json:"category" yaml:"category" validate:"required"`
	Text           string             `json:"text" yaml:"text" validate:"required"`
	Strategy       ValidationStrategy `json:"validation_strategy" yaml:"validation_strategy" validate:"required"`
	ExpectedFields []string           `json:"expected_field_names,omitempty" yaml:"expected_field_names,omitempty"`
	Keywords       []string           `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Mandatory      bool               `json:"mandatory" yaml:"mandatory"`
}
