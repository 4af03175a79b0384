package validators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// SynthesizerConfig holds configuration for the coherence pass.
type SynthesizerConfig struct {
	Services *runtime.Services
	Logger   *slog.Logger

	// Timeout bounds the single completion call
	Timeout time.Duration

	// MaxSnippets bounds how much free text rides along in the prompt
	MaxSnippets int
}

// Synthesizer is the third validation layer: one holistic completion call
// per run, whatever the requirement count, judging overall coherence across
// all typed fields, a sample of snippets, and the earlier check results.
// Its output is advisory; when the completion service is missing or errors,
// it degrades to "unavailable" and never blocks the other layers.
type Synthesizer struct {
	services    *runtime.Services
	logger      *slog.Logger
	timeout     time.Duration
	maxSnippets int
}

// NewSynthesizer creates the coherence synthesis layer.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxSnippets <= 0 {
		cfg.MaxSnippets = 20
	}
	return &Synthesizer{
		services:    cfg.Services,
		logger:      cfg.Logger,
		timeout:     cfg.Timeout,
		maxSnippets: cfg.MaxSnippets,
	}
}

const synthesisInstructions = `You are the final coherence reviewer for a carbon-credit registry submission.
You receive the checklist requirements, every typed field extracted from the project documents,
a sample of evidence snippets, and the results of the structural and cross-document checks.
Judge whether the submission is internally coherent: matching names, aligned dates, consistent identifiers.
Respond with a JSON object of this exact shape:
{"coherence_score": 0.0, "compliance_status": "...", "flags": ["..."]}
- coherence_score is in [0,1].
- compliance_status is one of "compliant", "minor_issues", "major_issues".
- flags are short free-text items a human reviewer should look at. Empty when nothing stands out.`

type synthesisResponse struct {
	CoherenceScore   float64  `json:"coherence_score"`
	ComplianceStatus string   `json:"compliance_status"`
	Flags            []string `json:"flags"`
}

// Synthesize runs the single coherence pass. The returned result always has
// Available set truthfully; callers use it as-is without treating
// unavailability as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, checklist []domain.Requirement, evidence []*domain.RequirementEvidence, prior []domain.ValidationCheckResult) domain.SynthesisResult {
	completion := s.services.CompletionService()
	if completion == nil {
		s.logger.Warn("coherence synthesis skipped: no completion service")
		return domain.SynthesisResult{Available: false}
	}

	content := s.buildContent(checklist, evidence, prior)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := completion.Complete(ctx, synthesisInstructions, content)
	if err != nil {
		s.logger.Warn("coherence synthesis unavailable", "error", err)
		return domain.SynthesisResult{Available: false}
	}

	var resp synthesisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("coherence synthesis returned malformed JSON", "error", err)
		return domain.SynthesisResult{Available: false}
	}

	if resp.CoherenceScore < 0 {
		resp.CoherenceScore = 0
	}
	if resp.CoherenceScore > 1 {
		resp.CoherenceScore = 1
	}

	return domain.SynthesisResult{
		Available:        true,
		CoherenceScore:   resp.CoherenceScore,
		ComplianceStatus: resp.ComplianceStatus,
		Flags:            resp.Flags,
	}
}

// buildContent assembles the one prompt of the run: requirement texts,
// all typed fields, a bounded snippet sample, and prior check outcomes.
func (s *Synthesizer) buildContent(checklist []domain.Requirement, evidence []*domain.RequirementEvidence, prior []domain.ValidationCheckResult) string {
	var b strings.Builder

	b.WriteString("## Requirements\n")
	for _, req := range checklist {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", req.ID, req.Text, req.Strategy)
	}

	b.WriteString("\n## Typed fields\n")
	for _, ev := range evidence {
		for field, values := range ev.ValuesByField() {
			for _, dv := range values {
				fmt.Fprintf(&b, "- %s: %s = %s (doc %s, confidence %.2f)\n",
					ev.RequirementID, field, dv.Value.String(), dv.DocumentID, dv.Value.Confidence)
			}
		}
	}

	b.WriteString("\n## Snippet sample\n")
	count := 0
	for _, ev := range evidence {
		for _, snippet := range ev.Snippets {
			if count >= s.maxSnippets {
				break
			}
			if strings.TrimSpace(snippet.Text) == "" {
				continue
			}
			fmt.Fprintf(&b, "- [%s, doc %s p.%d] %s\n",
				ev.RequirementID, snippet.Source.DocumentID, snippet.Source.Page, truncate(snippet.Text, 300))
			count++
		}
	}

	b.WriteString("\n## Prior check results\n")
	for _, check := range prior {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", check.Layer, check.Status, check.FieldName, check.Message)
	}

	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
