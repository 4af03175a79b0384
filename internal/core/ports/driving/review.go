package driving

import (
	"context"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// MapperService scores document relevance per requirement ahead of
// extraction.
type MapperService interface {
	// MapRequirement ranks the documents for one requirement, best first.
	// An empty slice means the requirement is unmapped; that is an outcome,
	// not an error.
	MapRequirement(ctx context.Context, req domain.Requirement, docs []*domain.Document) []domain.DocumentRelevance
}

// ExtractionService routes requirements to the extraction behavior declared
// by their validation strategy and produces the evidence artifact.
type ExtractionService interface {
	// ExtractRequirement runs extraction for a single requirement against
	// its candidate documents. Dispatch is total over the four strategies;
	// an unknown strategy returns domain.ErrUnknownStrategy.
	ExtractRequirement(ctx context.Context, req domain.Requirement, docs []*domain.Document) (*domain.RequirementEvidence, error)

	// ExtractAll runs extraction for the whole checklist with bounded
	// concurrency across (requirement, document) pairs. Per-requirement
	// failures are recorded in the evidence, not raised.
	ExtractAll(ctx context.Context, checklist []domain.Requirement, docs []*domain.Document) ([]*domain.RequirementEvidence, error)
}

// ValidationService runs the three validation layers over extracted
// evidence and assembles the validation artifact.
type ValidationService interface {
	// Validate runs structural checks, cross-document comparison, and the
	// single coherence synthesis pass. Synthesizer unavailability degrades
	// the synthesis section, never the run.
	Validate(ctx context.Context, sessionID string, checklist []domain.Requirement, evidence []*domain.RequirementEvidence) (*domain.ValidationResult, error)
}

// ReviewService orchestrates a full review run for a session.
type ReviewService interface {
	// RunSession maps, extracts, validates, and persists both artifacts.
	RunSession(ctx context.Context, sessionID string) (*domain.ValidationResult, error)

	// ExtractSession runs mapping and extraction only, persisting evidence.
	ExtractSession(ctx context.Context, sessionID string) ([]*domain.RequirementEvidence, error)

	// ValidateSession validates previously persisted evidence.
	ValidateSession(ctx context.Context, sessionID string) (*domain.ValidationResult, error)
}
