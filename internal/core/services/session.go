package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven"
	"github.com/carbonledger/verify-core/internal/core/ports/driving"
)

// Ensure reviewService implements ReviewService
var _ driving.ReviewService = (*reviewService)(nil)

// ReviewConfig holds configuration for the review orchestrator.
type ReviewConfig struct {
	Store      driven.SessionStore
	Extraction driving.ExtractionService
	Validation driving.ValidationService

	// Checklist is the requirement set every session is reviewed against.
	Checklist []domain.Requirement

	Logger *slog.Logger
}

// reviewService walks a session through its lifecycle: load documents,
// extract evidence, validate, persist both artifacts. Each stage writes its
// status first so an observer always sees where the session is.
type reviewService struct {
	store      driven.SessionStore
	extraction driving.ExtractionService
	validation driving.ValidationService
	checklist  []domain.Requirement
	logger     *slog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(cfg ReviewConfig) driving.ReviewService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &reviewService{
		store:      cfg.Store,
		extraction: cfg.Extraction,
		validation: cfg.Validation,
		checklist:  cfg.Checklist,
		logger:     cfg.Logger,
	}
}

// RunSession maps, extracts, validates, and persists both artifacts.
func (s *reviewService) RunSession(ctx context.Context, sessionID string) (*domain.ValidationResult, error) {
	evidence, err := s.ExtractSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, sessionID, evidence)
}

// ExtractSession runs mapping and extraction only, persisting evidence.
func (s *reviewService) ExtractSession(ctx context.Context, sessionID string) ([]*domain.RequirementEvidence, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if session.Status == domain.SessionStatusExtracting {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrExtractionInProgress)
	}

	docs, err := s.store.GetDocuments(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("loading documents for session %s: %w", sessionID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNoDocuments)
	}

	if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionStatusExtracting); err != nil {
		return nil, fmt.Errorf("marking session %s extracting: %w", sessionID, err)
	}

	evidence, err := s.extraction.ExtractAll(ctx, s.checklist, docs)
	if err != nil {
		s.fail(ctx, sessionID)
		return nil, fmt.Errorf("extracting session %s: %w", sessionID, err)
	}

	if err := s.store.SaveEvidence(ctx, sessionID, evidence); err != nil {
		s.fail(ctx, sessionID)
		return nil, fmt.Errorf("saving evidence for session %s: %w", sessionID, err)
	}

	s.logger.Info("session extracted",
		"session", sessionID, "requirements", len(s.checklist), "documents", len(docs))
	return evidence, nil
}

// ValidateSession validates previously persisted evidence.
func (s *reviewService) ValidateSession(ctx context.Context, sessionID string) (*domain.ValidationResult, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	evidence, err := s.store.GetEvidence(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading evidence for session %s: %w", sessionID, err)
	}

	return s.validate(ctx, sessionID, evidence)
}

func (s *reviewService) validate(ctx context.Context, sessionID string, evidence []*domain.RequirementEvidence) (*domain.ValidationResult, error) {
	if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionStatusValidating); err != nil {
		return nil, fmt.Errorf("marking session %s validating: %w", sessionID, err)
	}

	result, err := s.validation.Validate(ctx, sessionID, s.checklist, evidence)
	if err != nil {
		s.fail(ctx, sessionID)
		return nil, fmt.Errorf("validating session %s: %w", sessionID, err)
	}

	if err := s.store.SaveValidation(ctx, sessionID, result); err != nil {
		s.fail(ctx, sessionID)
		return nil, fmt.Errorf("saving validation for session %s: %w", sessionID, err)
	}

	if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionStatusComplete); err != nil {
		return nil, fmt.Errorf("marking session %s complete: %w", sessionID, err)
	}

	s.logger.Info("session validated",
		"session", sessionID, "checks", result.Summary.Total, "fail", result.Summary.Fail)
	return result, nil
}

// fail moves the session to failed on a best-effort basis; the original
// error is what the caller sees.
func (s *reviewService) fail(ctx context.Context, sessionID string) {
	if err := s.store.UpdateSessionStatus(ctx, sessionID, domain.SessionStatusFailed); err != nil {
		s.logger.Error("could not mark session failed", "session", sessionID, "error", err)
	}
}
