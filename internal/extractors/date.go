package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// Verify interface compliance
var _ FieldExtractor = (*DateExtractor)(nil)

// DateExtractor pulls calendar dates out of document text, normalizes them
// to a single format, and classifies each date into its semantic kind from
// the surrounding context rather than extraction order.
type DateExtractor struct {
	services *runtime.Services
	logger   *slog.Logger
}

// NewDateExtractor creates a new DateExtractor
func NewDateExtractor(services *runtime.Services, logger *slog.Logger) *DateExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DateExtractor{services: services, logger: logger}
}

func (e *DateExtractor) Name() string { return "date" }

func (e *DateExtractor) Supports(spec domain.FieldSpec) bool {
	return spec.Kind == domain.KindDate
}

func (e *DateExtractor) Priority() int { return 10 }

// dateLayouts are the accepted input formats, tried in order. A bare year
// never parses: it is not a date, whatever the model claims.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
	"02.01.2006",
}

// normalizeDate parses a date string into a UTC civil date.
func normalizeDate(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(strings.Trim(value, ".,;"))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// dateContextCues maps canonical date fields to the context words that
// identify them. Classification scores cue hits in the candidate context;
// the model's own field label only breaks ties.
var dateContextCues = map[string][]string{
	"project_start_date":     {"project start", "start of the project", "commence", "commencement", "began", "inception"},
	"crediting_period_start": {"crediting period start", "crediting period begin", "first crediting", "crediting from"},
	"crediting_period_end":   {"crediting period end", "crediting period expir", "crediting until", "end of the crediting"},
	"baseline_date":          {"baseline", "reference scenario", "historical reference"},
	"monitoring_date":        {"monitoring", "verification visit", "site visit", "monitoring period"},
	"tenure_start_date":      {"tenure", "title granted", "lease", "deed", "ownership since"},
}

// classifyDate picks the requested field a dated statement belongs to.
// Returns empty when no requested field is supported by the context.
func classifyDate(c candidate, requested []string) string {
	context := strings.ToLower(c.Context + " " + c.RawText)

	bestField := ""
	bestScore := 0
	for _, field := range requested {
		score := 0
		for _, cue := range dateContextCues[field] {
			if strings.Contains(context, cue) {
				score += len(strings.Fields(cue)) // multi-word cues are stronger
			}
		}
		if score > bestScore {
			bestScore = score
			bestField = field
		}
	}
	if bestField != "" {
		return bestField
	}

	// No context signal: fall back to the model's label if it was requested.
	if name, err := requireRequested(c, requested); err == nil {
		return name
	}
	return ""
}

// Extract implements FieldExtractor.
func (e *DateExtractor) Extract(ctx context.Context, text string, fields []string) ([]domain.TypedValue, error) {
	instructions := fmt.Sprintf(
		"You extract dates from carbon-credit project documents.\n"+
			"Requested date fields: %s.\n"+
			"Report every dated statement relevant to a requested field, with the full sentence as context.\n%s",
		strings.Join(fields, ", "), responseContract)

	candidates, err := completeAndParse(ctx, e.services, instructions, text)
	if err != nil {
		return nil, err
	}

	var values []domain.TypedValue
	for _, c := range candidates {
		date, err := normalizeDate(c.Value)
		if err != nil {
			e.logger.Debug("dropping unparseable date candidate", "value", c.Value)
			continue
		}

		field := classifyDate(c, fields)
		if field == "" {
			// The candidate named a field outside the vocabulary: drift.
			if !domain.IsCanonicalField(c.FieldName) {
				return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, c.FieldName)
			}
			e.logger.Debug("dropping unclassifiable date", "value", c.Value, "context", c.Context)
			continue
		}

		confidence := c.Confidence
		if strings.TrimSpace(c.Context) == "" {
			// No context to classify on means classification leaned on the
			// model label alone.
			confidence *= 0.8
		}
		values = append(values, domain.NewDateValue(field, date, c.RawText, confidence))
	}
	return values, nil
}
