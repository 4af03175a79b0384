package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// ContentHash returns the cache hash of document content.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CacheKey builds the extraction cache key. The strategy is part of the key
// so re-running a requirement under a different strategy can never return
// stale structured data from a prior presence-only run.
func CacheKey(contentHash, requirementID string, strategy ValidationStrategy) string {
	return fmt.Sprintf("%s:%s:%s", contentHash, requirementID, strategy)
}

// SourceRef cites where a snippet came from.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	Section    string `json:"section,omitempty"`
}

// TypedValue is a named, semantically classified value extracted from a
// document. FieldName is always drawn from the canonical vocabulary.
type TypedValue struct {
	FieldName  string     `json:"field_name"`
	Kind       FieldKind  `json:"kind"`
	Date       *time.Time `json:"date,omitempty"`
	Number     *float64   `json:"number,omitempty"`
	Text       string     `json:"text,omitempty"`
	RawText    string     `json:"raw_text"`
	Confidence float64    `json:"confidence"`
}

// NewDateValue builds a date-kind TypedValue.
func NewDateValue(field string, date time.Time, raw string, confidence float64) TypedValue {
	d := date.UTC().Truncate(24 * time.Hour)
	return TypedValue{FieldName: field, Kind: KindDate, Date: &d, RawText: raw, Confidence: confidence}
}

// NewNumberValue builds a number-kind TypedValue.
func NewNumberValue(field string, n float64, raw string, confidence float64) TypedValue {
	return TypedValue{FieldName: field, Kind: KindNumber, Number: &n, RawText: raw, Confidence: confidence}
}

// NewTextValue builds a text-kind TypedValue.
func NewTextValue(field, text, raw string, confidence float64) TypedValue {
	return TypedValue{FieldName: field, Kind: KindText, Text: text, RawText: raw, Confidence: confidence}
}

// String renders the value for messages and reports.
func (v TypedValue) String() string {
	switch v.Kind {
	case KindDate:
		if v.Date != nil {
			return v.Date.Format("2006-01-02")
		}
	case KindNumber:
		if v.Number != nil {
			return fmt.Sprintf("%g", *v.Number)
		}
	case KindText:
		return v.Text
	}
	return v.RawText
}

// EvidenceSnippet is one piece of evidence for a requirement. A snippet
// without StructuredFields is presence-only evidence; one with them also
// carries machine-usable data. Snippets are never mutated after creation
// except to merge StructuredFields from later extraction passes.
type EvidenceSnippet struct {
	ID               string                `json:"id"`
	Text             string                `json:"text"`
	Confidence       float64               `json:"confidence"`
	Source           SourceRef             `json:"source"`
	StructuredFields map[string]TypedValue `json:"structured_fields"`
}

// FieldConflict records a field that was overwritten during a merge.
type FieldConflict struct {
	FieldName string
	Old       TypedValue
	New       TypedValue
}

// MergeFields merges typed values from a later extraction pass into the
// snippet, last-write-wins per field. Overwrites of an existing field are
// returned so the caller can log them.
func (s *EvidenceSnippet) MergeFields(values []TypedValue) []FieldConflict {
	if len(values) == 0 {
		return nil
	}
	if s.StructuredFields == nil {
		s.StructuredFields = make(map[string]TypedValue, len(values))
	}
	var conflicts []FieldConflict
	for _, v := range values {
		if old, ok := s.StructuredFields[v.FieldName]; ok && old.String() != v.String() {
			conflicts = append(conflicts, FieldConflict{FieldName: v.FieldName, Old: old, New: v})
		}
		s.StructuredFields[v.FieldName] = v
	}
	return conflicts
}

// EvidenceStatus is the per-requirement outcome of an extraction run.
type EvidenceStatus string

const (
	// EvidenceExtracted means at least one snippet or typed value was found
	EvidenceExtracted EvidenceStatus = "extracted"
	// EvidenceNotFound means candidates existed but the field was not found
	EvidenceNotFound EvidenceStatus = "not_found"
	// EvidenceUnmapped means no document scored above the relevance floor
	EvidenceUnmapped EvidenceStatus = "unmapped"
	// EvidenceError means the completion service failed after retries
	EvidenceError EvidenceStatus = "error"
)

// RequirementEvidence holds everything extracted for one requirement.
// One per requirement per run; a re-run replaces it wholesale.
type RequirementEvidence struct {
	RequirementID  string              `json:"requirement_id"`
	Strategy       ValidationStrategy  `json:"validation_strategy"`
	Status         EvidenceStatus      `json:"status"`
	Snippets       []EvidenceSnippet   `json:"snippets"`
	ReviewQuestion string              `json:"review_question,omitempty"`
	Relevance      []DocumentRelevance `json:"relevance,omitempty"`
	Error          string              `json:"error,omitempty"`
	ExtractedAt    time.Time           `json:"extracted_at"`
}

// TypedValues flattens all structured fields across snippets, in snippet
// order. Used by the validation layers, which never re-parse free text.
func (e *RequirementEvidence) TypedValues() []TypedValue {
	var out []TypedValue
	for _, s := range e.Snippets {
		for _, name := range sortedFieldNames(s.StructuredFields) {
			out = append(out, s.StructuredFields[name])
		}
	}
	return out
}

// ValuesByField groups typed values by field name, keyed per source document.
func (e *RequirementEvidence) ValuesByField() map[string][]DocumentValue {
	out := make(map[string][]DocumentValue)
	for _, s := range e.Snippets {
		for _, name := range sortedFieldNames(s.StructuredFields) {
			out[name] = append(out[name], DocumentValue{
				DocumentID: s.Source.DocumentID,
				Value:      s.StructuredFields[name],
			})
		}
	}
	return out
}

// DocumentValue pairs a typed value with the document it came from.
type DocumentValue struct {
	DocumentID string     `json:"document_id"`
	Value      TypedValue `json:"value"`
}

// sortedFieldNames keeps iteration over structured fields deterministic.
func sortedFieldNames(fields map[string]TypedValue) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
