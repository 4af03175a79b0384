package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven/mocks"
	"github.com/carbonledger/verify-core/internal/runtime"
)

func ownerChecklist() []domain.Requirement {
	return []domain.Requirement{
		{
			ID: "req-owner-declared", Text: "Owner is declared",
			Strategy:       domain.StrategyTypedField,
			ExpectedFields: []string{"owner_name"},
			Mandatory:      true,
		},
		{
			ID: "req-owner-consistent", Text: "Owner is consistent across documents",
			Strategy:       domain.StrategyCrossDocument,
			ExpectedFields: []string{"owner_name"},
		},
	}
}

func ownerEvidence() []*domain.RequirementEvidence {
	name := func(doc, value string, conf float64) domain.EvidenceSnippet {
		return domain.EvidenceSnippet{
			Source: domain.SourceRef{DocumentID: doc},
			StructuredFields: map[string]domain.TypedValue{
				"owner_name": domain.NewTextValue("owner_name", value, "", conf),
			},
		}
	}
	return []*domain.RequirementEvidence{
		{
			RequirementID: "req-owner-declared",
			Strategy:      domain.StrategyTypedField,
			Status:        domain.EvidenceExtracted,
			Snippets:      []domain.EvidenceSnippet{name("pdd", "Nicholas Denman", 0.9)},
		},
		{
			RequirementID: "req-owner-consistent",
			Strategy:      domain.StrategyCrossDocument,
			Status:        domain.EvidenceExtracted,
			Snippets: []domain.EvidenceSnippet{
				name("pdd", "Nicholas Denman", 0.9),
				name("tenure", "Nick Denman", 0.85),
			},
		},
	}
}

func TestValidationService_AssemblesAllLayers(t *testing.T) {
	completion := mocks.NewMockCompletionService()
	completion.Default = json.RawMessage(`{"coherence_score":0.88,"compliance_status":"compliant","flags":[]}`)
	services := runtime.NewServices()
	services.SetCompletionService(completion)

	svc := NewValidationService(ValidationConfig{Services: services})

	result, err := svc.Validate(context.Background(), "session-1", ownerChecklist(), ownerEvidence())
	require.NoError(t, err)

	assert.Equal(t, "session-1", result.SessionID)
	assert.WithinDuration(t, time.Now().UTC(), result.CreatedAt, time.Minute)
	assert.NotEmpty(t, result.Structural)
	require.Len(t, result.CrossDocument, 1)
	assert.Equal(t, domain.CheckPass, result.CrossDocument[0].Status)

	require.True(t, result.Synthesis.Available)
	assert.InDelta(t, 0.88, result.Synthesis.CoherenceScore, 1e-9)

	assert.Equal(t, len(result.Structural)+len(result.CrossDocument), result.Summary.Total)
	assert.Zero(t, result.Summary.Unmapped)
}

func TestValidationService_CountsUnmapped(t *testing.T) {
	svc := NewValidationService(ValidationConfig{Services: runtime.NewServices()})

	evidence := append(ownerEvidence(), &domain.RequirementEvidence{
		RequirementID: "req-orphan",
		Strategy:      domain.StrategyPresence,
		Status:        domain.EvidenceUnmapped,
	})

	result, err := svc.Validate(context.Background(), "session-1", ownerChecklist(), evidence)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Unmapped)
	assert.False(t, result.Synthesis.Available)
}

func TestValidationService_RejectsEmptySession(t *testing.T) {
	svc := NewValidationService(ValidationConfig{Services: runtime.NewServices()})
	_, err := svc.Validate(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
