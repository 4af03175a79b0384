package domain

import (
	"fmt"
	"strings"
)

// FieldKind is the value type a canonical field carries.
type FieldKind string

const (
	KindDate   FieldKind = "date"
	KindNumber FieldKind = "number"
	KindText   FieldKind = "text"
)

// CompareClass selects the comparison semantics used by cross-document
// validation for a field.
type CompareClass string

const (
	// CompareName uses fuzzy string similarity (person/entity names)
	CompareName CompareClass = "name"
	// CompareQuantity uses relative numeric tolerance (areas, volumes)
	CompareQuantity CompareClass = "quantity"
	// CompareDate uses an absolute day-delta tolerance
	CompareDate CompareClass = "date"
	// CompareExact requires byte-equal values after trimming
	CompareExact CompareClass = "exact"
)

// FieldSpec describes one entry in the canonical field vocabulary.
type FieldSpec struct {
	Name  string
	Kind  FieldKind
	Class CompareClass
}

// The canonical field vocabulary. Extractors must not invent synonyms:
// cross-document comparison keys on exact field name, so an unknown name is
// rejected at the extractor boundary rather than coerced.
var canonicalFields = map[string]FieldSpec{
	"owner_name":              {Name: "owner_name", Kind: KindText, Class: CompareName},
	"proponent_name":          {Name: "proponent_name", Kind: KindText, Class: CompareName},
	"project_id":              {Name: "project_id", Kind: KindText, Class: CompareExact},
	"parcel_id":               {Name: "parcel_id", Kind: KindText, Class: CompareExact},
	"methodology_id":          {Name: "methodology_id", Kind: KindText, Class: CompareExact},
	"project_start_date":      {Name: "project_start_date", Kind: KindDate, Class: CompareDate},
	"crediting_period_start":  {Name: "crediting_period_start", Kind: KindDate, Class: CompareDate},
	"crediting_period_end":    {Name: "crediting_period_end", Kind: KindDate, Class: CompareDate},
	"baseline_date":           {Name: "baseline_date", Kind: KindDate, Class: CompareDate},
	"monitoring_date":         {Name: "monitoring_date", Kind: KindDate, Class: CompareDate},
	"tenure_start_date":       {Name: "tenure_start_date", Kind: KindDate, Class: CompareDate},
	"crediting_period_years":  {Name: "crediting_period_years", Kind: KindNumber, Class: CompareQuantity},
	"project_area_hectares":   {Name: "project_area_hectares", Kind: KindNumber, Class: CompareQuantity},
	"estimated_annual_tonnes": {Name: "estimated_annual_tonnes", Kind: KindNumber, Class: CompareQuantity},
	"buffer_percentage":       {Name: "buffer_percentage", Kind: KindNumber, Class: CompareQuantity},
}

// CanonicalField resolves a field name against the vocabulary.
// Returns ErrUnknownField for anything outside the closed set.
func CanonicalField(name string) (FieldSpec, error) {
	spec, ok := canonicalFields[strings.TrimSpace(strings.ToLower(name))]
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return spec, nil
}

// IsCanonicalField reports whether name is in the vocabulary.
func IsCanonicalField(name string) bool {
	_, err := CanonicalField(name)
	return err == nil
}

// CanonicalFieldNames returns the vocabulary in undefined order.
func CanonicalFieldNames() []string {
	names := make([]string, 0, len(canonicalFields))
	for name := range canonicalFields {
		names = append(names, name)
	}
	return names
}
