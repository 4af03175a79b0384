package validators

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/google/uuid"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// CrossDocument compares typed values of the same field across documents.
// It only speaks when two or more documents supplied a value for a field;
// with fewer there is insufficient data, which is not the same thing as
// inconsistent data, and no check is emitted.
type CrossDocument struct {
	thresholds Thresholds
	similarity *metrics.JaroWinkler
	logger     *slog.Logger
}

// NewCrossDocument creates the cross-document validation layer.
func NewCrossDocument(thresholds Thresholds, logger *slog.Logger) *CrossDocument {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrossDocument{
		thresholds: thresholds,
		similarity: metrics.NewJaroWinkler(),
		logger:     logger,
	}
}

// Validate emits one check per comparable field of every cross_document
// requirement.
func (v *CrossDocument) Validate(evidence []*domain.RequirementEvidence) []domain.ValidationCheckResult {
	var checks []domain.ValidationCheckResult
	for _, ev := range evidence {
		if ev.Strategy != domain.StrategyCrossDocument {
			continue
		}

		byField := ev.ValuesByField()
		fields := make([]string, 0, len(byField))
		for field := range byField {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			values := distinctDocuments(byField[field])
			if len(values) < 2 {
				// insufficient data: no check
				continue
			}
			if check := v.compare(ev.RequirementID, field, values); check != nil {
				checks = append(checks, *check)
			}
		}
	}
	return checks
}

// distinctDocuments keeps the highest-confidence value per document.
func distinctDocuments(values []domain.DocumentValue) []domain.DocumentValue {
	best := make(map[string]domain.DocumentValue)
	var order []string
	for _, dv := range values {
		if existing, ok := best[dv.DocumentID]; !ok {
			best[dv.DocumentID] = dv
			order = append(order, dv.DocumentID)
		} else if dv.Value.Confidence > existing.Value.Confidence {
			best[dv.DocumentID] = dv
		}
	}
	out := make([]domain.DocumentValue, len(order))
	for i, id := range order {
		out[i] = best[id]
	}
	return out
}

func (v *CrossDocument) compare(reqID, field string, values []domain.DocumentValue) *domain.ValidationCheckResult {
	spec, err := domain.CanonicalField(field)
	if err != nil {
		v.logger.Error("non-canonical field reached cross-document validation", "field", field)
		return nil
	}

	docs := make([]string, len(values))
	rendered := make([]string, len(values))
	for i, dv := range values {
		docs[i] = dv.DocumentID
		rendered[i] = fmt.Sprintf("%s=%q", dv.DocumentID, dv.Value.String())
	}

	var status domain.CheckStatus
	var detail string

	switch spec.Class {
	case domain.CompareName:
		status, detail = v.compareNames(values)
	case domain.CompareQuantity:
		status, detail = v.compareQuantities(values)
	case domain.CompareDate:
		status, detail = v.compareDates(values)
	default:
		status, detail = v.compareExact(values)
	}

	return &domain.ValidationCheckResult{
		CheckID:          uuid.NewString(),
		Layer:            domain.LayerCrossDocument,
		RequirementID:    reqID,
		FieldName:        field,
		Status:           status,
		Message:          fmt.Sprintf("%s across %s: %s", field, strings.Join(rendered, ", "), detail),
		Documents:        docs,
		FlaggedForReview: status == domain.CheckFail,
	}
}

// compareNames scores the worst pairwise Jaro-Winkler similarity.
func (v *CrossDocument) compareNames(values []domain.DocumentValue) (domain.CheckStatus, string) {
	worst := 1.0
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			a := strings.ToLower(values[i].Value.Text)
			b := strings.ToLower(values[j].Value.Text)
			if sim := strutil.Similarity(a, b, v.similarity); sim < worst {
				worst = sim
			}
		}
	}

	detail := fmt.Sprintf("minimum similarity %.2f", worst)
	switch {
	case worst >= v.thresholds.NamePass:
		return domain.CheckPass, detail
	case worst >= v.thresholds.NameWarn:
		return domain.CheckWarning, detail
	default:
		return domain.CheckFail, detail
	}
}

// compareQuantities applies relative tolerance against the mean.
func (v *CrossDocument) compareQuantities(values []domain.DocumentValue) (domain.CheckStatus, string) {
	var nums []float64
	for _, dv := range values {
		if dv.Value.Number != nil {
			nums = append(nums, *dv.Value.Number)
		}
	}
	if len(nums) < 2 {
		return domain.CheckWarning, "quantities missing parsed numbers"
	}

	mean := 0.0
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	if mean == 0 {
		return domain.CheckWarning, "quantities average to zero"
	}

	maxDev := 0.0
	for _, n := range nums {
		if dev := math.Abs(n-mean) / math.Abs(mean); dev > maxDev {
			maxDev = dev
		}
	}

	detail := fmt.Sprintf("max relative deviation %.1f%%", maxDev*100)
	if maxDev <= v.thresholds.QuantityTolerance {
		return domain.CheckPass, detail
	}
	return domain.CheckFail, detail
}

// compareDates applies the absolute day-delta tolerance.
func (v *CrossDocument) compareDates(values []domain.DocumentValue) (domain.CheckStatus, string) {
	var dates []domain.DocumentValue
	for _, dv := range values {
		if dv.Value.Date != nil {
			dates = append(dates, dv)
		}
	}
	if len(dates) < 2 {
		return domain.CheckWarning, "dates missing parsed values"
	}

	maxDelta := 0
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			delta := int(math.Abs(dates[i].Value.Date.Sub(*dates[j].Value.Date).Hours() / 24))
			if delta > maxDelta {
				maxDelta = delta
			}
		}
	}

	detail := fmt.Sprintf("max delta %d days", maxDelta)
	if maxDelta <= v.thresholds.DateToleranceDays {
		return domain.CheckPass, detail
	}
	return domain.CheckFail, detail
}

// compareExact requires identical trimmed values.
func (v *CrossDocument) compareExact(values []domain.DocumentValue) (domain.CheckStatus, string) {
	first := strings.TrimSpace(values[0].Value.String())
	for _, dv := range values[1:] {
		if strings.TrimSpace(dv.Value.String()) != first {
			return domain.CheckFail, "values differ"
		}
	}
	return domain.CheckPass, "values identical"
}
