package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// Verify interface compliance
var _ FieldExtractor = (*IdentifierExtractor)(nil)

// DefaultIdentifierPattern is the structural shape of registry identifiers:
// an alphanumeric prefix, a separator, then digits (e.g. C12-345, VCS/1234).
var DefaultIdentifierPattern = regexp.MustCompile(`^[A-Za-z]{1,5}[0-9]{0,4}[-/][0-9]{1,8}$`)

// bareYear matches a standalone 4-digit number.
var bareYear = regexp.MustCompile(`^\d{4}$`)

// IdentifierExtractor pulls registry / parcel / methodology identifiers.
// Its guard exists for one known failure mode: a bare 4-digit number that is
// really a calendar year must never be accepted as a project identifier.
type IdentifierExtractor struct {
	services *runtime.Services
	logger   *slog.Logger
	pattern  *regexp.Regexp
}

// NewIdentifierExtractor creates a new IdentifierExtractor.
// pattern overrides the structural identifier shape; nil uses the default.
func NewIdentifierExtractor(services *runtime.Services, pattern *regexp.Regexp, logger *slog.Logger) *IdentifierExtractor {
	if pattern == nil {
		pattern = DefaultIdentifierPattern
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentifierExtractor{services: services, pattern: pattern, logger: logger}
}

func (e *IdentifierExtractor) Name() string { return "identifier" }

func (e *IdentifierExtractor) Supports(spec domain.FieldSpec) bool {
	return spec.Kind == domain.KindText && spec.Class == domain.CompareExact
}

func (e *IdentifierExtractor) Priority() int { return 10 }

// acceptableIdentifier applies the year guard and the structural pattern.
func (e *IdentifierExtractor) acceptableIdentifier(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}

	if bareYear.MatchString(trimmed) {
		// Reject anything that reads as a plausible calendar year; a real
		// identifier that happens to be 4 digits still needs the structural
		// form to be distinguishable from a year.
		if y, err := strconv.Atoi(trimmed); err == nil && y >= 1900 && y <= 2100 {
			return false
		}
	}

	if e.pattern.MatchString(trimmed) {
		return true
	}

	// Identifiers without the separator form (e.g. methodology code VM0007)
	// are acceptable when they mix letters and digits.
	hasLetter := strings.IndexFunc(trimmed, func(r rune) bool { return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' }) >= 0
	hasDigit := strings.IndexFunc(trimmed, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
	return hasLetter && hasDigit
}

// Extract implements FieldExtractor.
func (e *IdentifierExtractor) Extract(ctx context.Context, text string, fields []string) ([]domain.TypedValue, error) {
	instructions := fmt.Sprintf(
		"You extract registry identifiers from carbon-credit project documents.\n"+
			"Requested identifier fields: %s.\n"+
			"Identifiers look like C12-345 or VM0007. A year such as 2021 is never an identifier.\n%s",
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
		if !e.acceptableIdentifier(c.Value) {
			e.logger.Debug("rejecting identifier candidate", "field", field, "value", c.Value)
			continue
		}
		values = append(values, domain.NewTextValue(field, strings.TrimSpace(c.Value), c.RawText, c.Confidence))
	}
	return values, nil
}
