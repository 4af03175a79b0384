package domain

import "time"

// ValidationLayer identifies which validation layer produced a check.
type ValidationLayer string

const (
	LayerStructural    ValidationLayer = "structural"
	LayerCrossDocument ValidationLayer = "cross_document"
	LayerSynthesis     ValidationLayer = "synthesis"
)

// CheckStatus is the outcome of a single validation check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckWarning CheckStatus = "warning"
	CheckFail    CheckStatus = "fail"
)

// ValidationCheckResult is one validation finding. The list of results is
// append-only; individual results are never mutated.
type ValidationCheckResult struct {
	CheckID          string          `json:"check_id"`
	Layer            ValidationLayer `json:"layer"`
	RequirementID    string          `json:"requirement_id,omitempty"`
	FieldName        string          `json:"field_name,omitempty"`
	Status           CheckStatus     `json:"status"`
	Message          string          `json:"message"`
	Documents        []string        `json:"documents,omitempty"`
	FlaggedForReview bool            `json:"flagged_for_review"`
}

// SynthesisResult is the advisory output of the coherence pass. Available is
// false when the completion service was down or timed out; the rest of the
// validation result stays usable in that case.
type SynthesisResult struct {
	Available        bool     `json:"available"`
	CoherenceScore   float64  `json:"coherence_score,omitempty"`
	ComplianceStatus string   `json:"compliance_status,omitempty"`
	Flags            []string `json:"flags,omitempty"`
}

// ValidationSummary counts checks by status across all layers.
type ValidationSummary struct {
	Pass     int `json:"pass"`
	Warning  int `json:"warning"`
	Fail     int `json:"fail"`
	Flagged  int `json:"flagged_for_review"`
	Total    int `json:"total"`
	Unmapped int `json:"unmapped_requirements"`
}

// ValidationResult aggregates everything a validation run produced.
// Written once per run and superseded entirely on re-run.
type ValidationResult struct {
	SessionID     string                  `json:"session_id"`
	Structural    []ValidationCheckResult `json:"structural"`
	CrossDocument []ValidationCheckResult `json:"cross_document"`
	Synthesis     SynthesisResult         `json:"synthesis"`
	Summary       ValidationSummary       `json:"summary"`
	CreatedAt     time.Time               `json:"created_at"`
}

// Recount rebuilds the summary from the accumulated checks.
func (r *ValidationResult) Recount(unmapped int) {
	summary := ValidationSummary{Unmapped: unmapped}
	for _, checks := range [][]ValidationCheckResult{r.Structural, r.CrossDocument} {
		for _, c := range checks {
			summary.Total++
			switch c.Status {
			case CheckPass:
				summary.Pass++
			case CheckWarning:
				summary.Warning++
			case CheckFail:
				summary.Fail++
			}
			if c.FlaggedForReview {
				summary.Flagged++
			}
		}
	}
	r.Summary = summary
}
