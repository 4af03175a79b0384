package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// Verify interface compliance
var _ FieldExtractor = (*IdentityExtractor)(nil)

// IdentityExtractor pulls owner / proponent names out of tenure and design
// documents. Naive extraction is known to hand back generic phrases like
// "the project" as owner names, so every candidate passes a denylist and a
// minimum-specificity check before it becomes a typed value.
type IdentityExtractor struct {
	services *runtime.Services
	logger   *slog.Logger
}

// NewIdentityExtractor creates a new IdentityExtractor
func NewIdentityExtractor(services *runtime.Services, logger *slog.Logger) *IdentityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityExtractor{services: services, logger: logger}
}

func (e *IdentityExtractor) Name() string { return "identity" }

func (e *IdentityExtractor) Supports(spec domain.FieldSpec) bool {
	return spec.Kind == domain.KindText && spec.Class == domain.CompareName
}

func (e *IdentityExtractor) Priority() int { return 10 }

// placeholderDenylist rejects phrases that look like answers but name
// nobody. Matched case-insensitively against the whole candidate.
var placeholderDenylist = map[string]struct{}{
	"the project":                  {},
	"this project":                 {},
	"the document":                 {},
	"this document":                {},
	"as appended to this document": {},
	"the proponent":                {},
	"the project proponent":        {},
	"the owner":                    {},
	"the landowner":                {},
	"the undersigned":              {},
	"the applicant":                {},
	"see attached":                 {},
	"n/a":                          {},
	"not applicable":               {},
	"tbd":                          {},
	"to be determined":             {},
	"unknown":                      {},
}

// nameStopwords are words that do not count toward name specificity.
var nameStopwords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "a": {}, "an": {},
	"of": {}, "and": {}, "or": {}, "to": {}, "in": {}, "by": {},
	"project": {}, "document": {}, "owner": {}, "proponent": {},
	"landowner": {}, "applicant": {}, "party": {}, "parties": {},
}

// acceptableName applies the denylist plus the specificity heuristic:
// the candidate needs at least one capitalized multi-token phrase whose
// tokens are not all stopwords.
func acceptableName(value string) bool {
	normalized := strings.ToLower(strings.TrimSpace(strings.Trim(value, ".,;:")))
	if _, denied := placeholderDenylist[normalized]; denied {
		return false
	}

	tokens := strings.Fields(value)
	if len(tokens) < 2 {
		// single tokens ("John", "ACME") are too unspecific to compare
		return false
	}

	capitalized := 0
	nonStopword := 0
	for _, tok := range tokens {
		trimmed := strings.Trim(tok, ".,;:()")
		if trimmed == "" {
			continue
		}
		if unicode.IsUpper([]rune(trimmed)[0]) {
			capitalized++
		}
		if _, stop := nameStopwords[strings.ToLower(trimmed)]; !stop {
			nonStopword++
		}
	}
	return capitalized >= 2 && nonStopword >= 2
}

// Extract implements FieldExtractor.
func (e *IdentityExtractor) Extract(ctx context.Context, text string, fields []string) ([]domain.TypedValue, error) {
	instructions := fmt.Sprintf(
		"You extract the names of people and legal entities from carbon-credit project documents.\n"+
			"Requested identity fields: %s.\n"+
			"Only report actual proper names. Never report descriptions such as \"the project\" or \"the landowner\".\n%s",
		strings.Join(fields, ", "), responseContract)

	candidates, err := completeAndParse(ctx, e.services, instructions, text)
	if err != nil {
		return nil, err
	}

	var values []domain.TypedValue
	for _, c := range candidates {
		field, err := requireRequested(c, fields)
		if err != nil {
			return nil, err
		}
		if !acceptableName(c.Value) {
			e.logger.Debug("rejecting placeholder or unspecific name", "field", field, "value", c.Value)
			continue
		}
		values = append(values, domain.NewTextValue(field, strings.TrimSpace(c.Value), c.RawText, c.Confidence))
	}
	return values, nil
}
