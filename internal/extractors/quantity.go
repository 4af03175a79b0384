package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// Verify interface compliance
var _ FieldExtractor = (*QuantityExtractor)(nil)

// QuantityExtractor pulls numeric quantities (areas, periods, percentages).
type QuantityExtractor struct {
	services *runtime.Services
	logger   *slog.Logger
}

// NewQuantityExtractor creates a new QuantityExtractor
func NewQuantityExtractor(services *runtime.Services, logger *slog.Logger) *QuantityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuantityExtractor{services: services, logger: logger}
}

func (e *QuantityExtractor) Name() string { return "quantity" }

func (e *QuantityExtractor) Supports(spec domain.FieldSpec) bool {
	return spec.Kind == domain.KindNumber
}

func (e *QuantityExtractor) Priority() int { return 10 }

// parseQuantity accepts "12,345.6", "12345.6 ha", "30 years".
func parseQuantity(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	// strip a trailing unit word
	if i := strings.IndexFunc(cleaned, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '.' || r == ',' || r == '-' || r == '+')
	}); i > 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("no number in %q", value)
	}
	return strconv.ParseFloat(cleaned, 64)
}

// Extract implements FieldExtractor.
func (e *QuantityExtractor) Extract(ctx context.Context, text string, fields []string) ([]domain.TypedValue, error) {
	instructions := fmt.Sprintf(
		"You extract numeric quantities from carbon-credit project documents.\n"+
			"Requested quantity fields: %s.\n"+
			"Report the number exactly as written, including its unit in raw_text.\n%s",
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
		n, err := parseQuantity(c.Value)
		if err != nil {
			e.logger.Debug("dropping unparseable quantity", "field", field, "value", c.Value)
			continue
		}
		values = append(values, domain.NewNumberValue(field, n, c.RawText, c.Confidence))
	}
	return values, nil
}
