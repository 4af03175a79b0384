package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driving"
	"github.com/carbonledger/verify-core/internal/runtime"
	"github.com/carbonledger/verify-core/internal/validators"
)

// Ensure validationService implements ValidationService
var _ driving.ValidationService = (*validationService)(nil)

// ValidationConfig holds configuration for the validation service.
type ValidationConfig struct {
	Services   *runtime.Services
	Thresholds validators.Thresholds

	// SynthesisTimeout bounds the single coherence completion call.
	SynthesisTimeout time.Duration

	Logger *slog.Logger
}

// validationService runs the three layers in order: structural rules over
// typed fields, cross-document comparison, then the advisory coherence pass.
// The first two layers are deterministic; synthesis may come back
// unavailable without failing the run.
type validationService struct {
	structural  *validators.Structural
	crossDoc    *validators.CrossDocument
	synthesizer *validators.Synthesizer
	logger      *slog.Logger
}

// NewValidationService creates a new ValidationService
func NewValidationService(cfg ValidationConfig) driving.ValidationService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Thresholds == (validators.Thresholds{}) {
		cfg.Thresholds = validators.DefaultThresholds()
	}
	return &validationService{
		structural: validators.NewStructural(cfg.Logger),
		crossDoc:   validators.NewCrossDocument(cfg.Thresholds, cfg.Logger),
		synthesizer: validators.NewSynthesizer(validators.SynthesizerConfig{
			Services: cfg.Services,
			Logger:   cfg.Logger,
			Timeout:  cfg.SynthesisTimeout,
		}),
		logger: cfg.Logger,
	}
}

// Validate runs all three layers and assembles the validation artifact.
func (s *validationService) Validate(ctx context.Context, sessionID string, checklist []domain.Requirement, evidence []*domain.RequirementEvidence) (*domain.ValidationResult, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidInput
	}

	result := &domain.ValidationResult{
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}

	result.Structural = s.structural.Validate(checklist, evidence)
	result.CrossDocument = s.crossDoc.Validate(evidence)

	prior := make([]domain.ValidationCheckResult, 0, len(result.Structural)+len(result.CrossDocument))
	prior = append(prior, result.Structural...)
	prior = append(prior, result.CrossDocument...)

	result.Synthesis = s.synthesizer.Synthesize(ctx, checklist, evidence, prior)

	unmapped := 0
	for _, ev := range evidence {
		if ev.Status == domain.EvidenceUnmapped {
			unmapped++
		}
	}
	result.Recount(unmapped)

	s.logger.Info("validation run complete",
		"session", sessionID,
		"checks", result.Summary.Total,
		"fail", result.Summary.Fail,
		"flagged", result.Summary.Flagged,
		"unmapped", unmapped,
		"synthesis_available", result.Synthesis.Available)

	return result, nil
}
