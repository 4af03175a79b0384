package validators

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// datePairs are (start, end) fields whose internal ordering is checked.
var datePairs = [][2]string{
	{"crediting_period_start", "crediting_period_end"},
	{"project_start_date", "crediting_period_end"},
}

// percentFields must sit inside [0, 100].
var percentFields = map[string]struct{}{
	"buffer_percentage": {},
}

// suspiciousValues re-checks the extractor denylist. Extraction should have
// filtered these already; a hit here means a guard was bypassed and the
// value needs human eyes.
var suspiciousValues = map[string]struct{}{
	"the project":   {},
	"this project":  {},
	"this document": {},
	"the document":  {},
	"n/a":           {},
	"tbd":           {},
	"unknown":       {},
}

// Structural runs rule-based checks over typed fields: presence, format,
// range and internal date ordering. It is a pure function over the evidence
// set with no document re-access, and skips presence/manual requirements
// entirely.
type Structural struct {
	logger *slog.Logger
}

// NewStructural creates the structural validation layer.
func NewStructural(logger *slog.Logger) *Structural {
	if logger == nil {
		logger = slog.Default()
	}
	return &Structural{logger: logger}
}

// Validate checks every requirement whose strategy produces typed fields.
func (v *Structural) Validate(checklist []domain.Requirement, evidence []*domain.RequirementEvidence) []domain.ValidationCheckResult {
	byID := make(map[string]domain.Requirement, len(checklist))
	for _, req := range checklist {
		byID[req.ID] = req
	}

	var checks []domain.ValidationCheckResult
	for _, ev := range evidence {
		if !ev.Strategy.WantsTypedFields() {
			continue
		}
		req, ok := byID[ev.RequirementID]
		if !ok {
			continue
		}
		checks = append(checks, v.validateRequirement(req, ev)...)
	}
	return checks
}

func (v *Structural) validateRequirement(req domain.Requirement, ev *domain.RequirementEvidence) []domain.ValidationCheckResult {
	var checks []domain.ValidationCheckResult
	byField := ev.ValuesByField()

	// Required fields present
	for _, field := range req.ExpectedFields {
		if len(byField[field]) > 0 {
			checks = append(checks, v.check(req.ID, field, domain.CheckPass,
				fmt.Sprintf("field %s present", field), false))
			continue
		}
		status := domain.CheckWarning
		if req.Mandatory {
			status = domain.CheckFail
		}
		checks = append(checks, v.check(req.ID, field, status,
			fmt.Sprintf("required field %s missing", field), false))
	}

	// Format and range per value
	for field, values := range byField {
		for _, dv := range values {
			checks = append(checks, v.validateValue(req.ID, field, dv)...)
		}
	}

	// Internal date ordering
	for _, pair := range datePairs {
		start := firstDate(byField[pair[0]])
		end := firstDate(byField[pair[1]])
		if start == nil || end == nil {
			continue
		}
		if end.Value.Date.Before(*start.Value.Date) {
			checks = append(checks, v.check(req.ID, pair[1], domain.CheckFail,
				fmt.Sprintf("%s (%s) is earlier than %s (%s)",
					pair[1], end.Value.Date.Format("2006-01-02"),
					pair[0], start.Value.Date.Format("2006-01-02")), true))
		} else {
			checks = append(checks, v.check(req.ID, pair[1], domain.CheckPass,
				fmt.Sprintf("%s is after %s", pair[1], pair[0]), false))
		}
	}

	return checks
}

func (v *Structural) validateValue(reqID, field string, dv domain.DocumentValue) []domain.ValidationCheckResult {
	var checks []domain.ValidationCheckResult
	value := dv.Value

	spec, err := domain.CanonicalField(field)
	if err != nil {
		checks = append(checks, v.check(reqID, field, domain.CheckFail,
			fmt.Sprintf("field %s is outside the canonical vocabulary", field), true))
		return checks
	}

	// Kind/format validity
	switch spec.Kind {
	case domain.KindDate:
		if value.Date == nil {
			checks = append(checks, v.check(reqID, field, domain.CheckFail,
				fmt.Sprintf("%s from %s has no parsed date (raw: %q)", field, dv.DocumentID, value.RawText), true))
		}
	case domain.KindNumber:
		if value.Number == nil {
			checks = append(checks, v.check(reqID, field, domain.CheckFail,
				fmt.Sprintf("%s from %s has no parsed number (raw: %q)", field, dv.DocumentID, value.RawText), true))
		} else if _, isPercent := percentFields[field]; isPercent && (*value.Number < 0 || *value.Number > 100) {
			checks = append(checks, v.check(reqID, field, domain.CheckFail,
				fmt.Sprintf("%s value %g outside [0,100]", field, *value.Number), false))
		}
	case domain.KindText:
		if strings.TrimSpace(value.Text) == "" {
			checks = append(checks, v.check(reqID, field, domain.CheckFail,
				fmt.Sprintf("%s from %s is empty", field, dv.DocumentID), false))
		}
	}

	// Defense in depth: placeholder re-check
	if _, bad := suspiciousValues[strings.ToLower(strings.TrimSpace(value.Text))]; bad {
		v.logger.Warn("placeholder value survived extraction",
			"requirement", reqID, "field", field, "value", value.Text)
		checks = append(checks, v.check(reqID, field, domain.CheckFail,
			fmt.Sprintf("%s holds placeholder value %q", field, value.Text), true))
	}

	return checks
}

func (v *Structural) check(reqID, field string, status domain.CheckStatus, msg string, flag bool) domain.ValidationCheckResult {
	return domain.ValidationCheckResult{
		CheckID:          uuid.NewString(),
		Layer:            domain.LayerStructural,
		RequirementID:    reqID,
		FieldName:        field,
		Status:           status,
		Message:          msg,
		FlaggedForReview: flag,
	}
}

func firstDate(values []domain.DocumentValue) *domain.DocumentValue {
	for i := range values {
		if values[i].Value.Date != nil {
			return &values[i]
		}
	}
	return nil
}
