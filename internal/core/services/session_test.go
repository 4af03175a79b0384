package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven/mocks"
	"github.com/carbonledger/verify-core/internal/core/ports/driving"
)

// stubExtraction returns a fixed evidence set.
type stubExtraction struct {
	evidence []*domain.RequirementEvidence
	err      error
}

var _ driving.ExtractionService = (*stubExtraction)(nil)

func (s *stubExtraction) ExtractRequirement(ctx context.Context, req domain.Requirement, docs []*domain.Document) (*domain.RequirementEvidence, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evidence[0], nil
}

func (s *stubExtraction) ExtractAll(ctx context.Context, checklist []domain.Requirement, docs []*domain.Document) ([]*domain.RequirementEvidence, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evidence, nil
}

// stubValidation records what it was handed and returns a fixed result.
type stubValidation struct {
	result   *domain.ValidationResult
	err      error
	received []*domain.RequirementEvidence
}

var _ driving.ValidationService = (*stubValidation)(nil)

func (s *stubValidation) Validate(ctx context.Context, sessionID string, checklist []domain.Requirement, evidence []*domain.RequirementEvidence) (*domain.ValidationResult, error) {
	s.received = evidence
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func seedSession(t *testing.T, store *mocks.MockSessionStore, docs ...*domain.Document) *domain.Session {
	t.Helper()
	session := &domain.Session{ID: "session-1", ProjectName: "Denman Reforestation", Status: domain.SessionStatusNew}
	require.NoError(t, store.SaveSession(context.Background(), session))
	if len(docs) > 0 {
		require.NoError(t, store.SaveDocuments(context.Background(), session.ID, docs))
	}
	return session
}

func reviewFixture(store *mocks.MockSessionStore, extraction driving.ExtractionService, validation driving.ValidationService) driving.ReviewService {
	return NewReviewService(ReviewConfig{
		Store:      store,
		Extraction: extraction,
		Validation: validation,
		Checklist:  ownerChecklist(),
	})
}

func TestReview_RunSession(t *testing.T) {
	store := mocks.NewMockSessionStore()
	session := seedSession(t, store, &domain.Document{ID: "pdd", FullText: "owner: Nicholas Denman"})

	evidence := ownerEvidence()
	validation := &stubValidation{result: &domain.ValidationResult{SessionID: session.ID}}
	svc := reviewFixture(store, &stubExtraction{evidence: evidence}, validation)

	result, err := svc.RunSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, result.SessionID)

	saved, err := store.GetEvidence(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, saved, len(evidence))

	persisted, err := store.GetValidation(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, persisted.SessionID)

	assert.Equal(t, domain.SessionStatusComplete, session.Status)
	assert.Len(t, validation.received, len(evidence))
}

func TestReview_UnknownSession(t *testing.T) {
	svc := reviewFixture(mocks.NewMockSessionStore(), &stubExtraction{}, &stubValidation{})
	_, err := svc.RunSession(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestReview_NoDocuments(t *testing.T) {
	store := mocks.NewMockSessionStore()
	seedSession(t, store)

	svc := reviewFixture(store, &stubExtraction{}, &stubValidation{})
	_, err := svc.RunSession(context.Background(), "session-1")
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestReview_ExtractionAlreadyRunning(t *testing.T) {
	store := mocks.NewMockSessionStore()
	session := seedSession(t, store, &domain.Document{ID: "pdd", FullText: "owner: Nicholas Denman"})
	require.NoError(t, store.UpdateSessionStatus(context.Background(), session.ID, domain.SessionStatusExtracting))

	svc := reviewFixture(store, &stubExtraction{evidence: ownerEvidence()}, &stubValidation{})
	_, err := svc.ExtractSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrExtractionInProgress)

	// A finished session can be re-reviewed; the guard only covers active runs.
	require.NoError(t, store.UpdateSessionStatus(context.Background(), session.ID, domain.SessionStatusComplete))
	_, err = svc.ExtractSession(context.Background(), session.ID)
	require.NoError(t, err)
}

func TestReview_ExtractionFailureMarksSessionFailed(t *testing.T) {
	store := mocks.NewMockSessionStore()
	session := seedSession(t, store, &domain.Document{ID: "pdd", FullText: "text"})

	svc := reviewFixture(store, &stubExtraction{err: errors.New("completion exploded")}, &stubValidation{})
	_, err := svc.RunSession(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, domain.SessionStatusFailed, session.Status)
}

func TestReview_ValidateSessionUsesPersistedEvidence(t *testing.T) {
	store := mocks.NewMockSessionStore()
	session := seedSession(t, store)

	evidence := ownerEvidence()
	require.NoError(t, store.SaveEvidence(context.Background(), session.ID, evidence))

	validation := &stubValidation{result: &domain.ValidationResult{SessionID: session.ID}}
	svc := reviewFixture(store, &stubExtraction{err: errors.New("should not be called")}, validation)

	result, err := svc.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, result.SessionID)
	assert.Len(t, validation.received, len(evidence))
	assert.Equal(t, domain.SessionStatusComplete, session.Status)
}

func TestReview_ValidateSessionWithoutEvidence(t *testing.T) {
	store := mocks.NewMockSessionStore()
	seedSession(t, store)

	svc := reviewFixture(store, &stubExtraction{}, &stubValidation{})
	_, err := svc.ValidateSession(context.Background(), "session-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
