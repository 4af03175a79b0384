package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven/mocks"
)

func TestAcceptableName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"real person", "Nicholas Denman", true},
		{"shortened person", "Nick Denman", true},
		{"company", "ACME Forestry Ltd", true},
		{"placeholder the project", "the project", false},
		{"placeholder The Project", "The Project", false},
		{"placeholder this document", "This Document", false},
		{"placeholder appended", "as appended to this document", false},
		{"placeholder proponent", "the proponent", false},
		{"single token", "Denman", false},
		{"lowercase phrase", "some guy somewhere", false},
		{"stopword pair", "The Owner", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptableName(tt.value), "value %q", tt.value)
		})
	}
}

func TestIdentityExtractor_RejectsPlaceholders(t *testing.T) {
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [
		{"field_name": "owner_name", "value": "the project", "raw_text": "owned by the project", "confidence": 0.9},
		{"field_name": "owner_name", "value": "Nicholas Denman", "raw_text": "Nicholas Denman, registered owner", "confidence": 0.88}
	]}`)

	e := NewIdentityExtractor(newTestServices(mock), nil)
	values, err := e.Extract(context.Background(), "...", []string{"owner_name"})
	require.NoError(t, err)
	require.Len(t, values, 1, "only the real name survives")
	assert.Equal(t, "Nicholas Denman", values[0].Text)
}

func TestIdentityExtractor_UnknownFieldIsHardError(t *testing.T) {
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [
		{"field_name": "the_owner", "value": "Nicholas Denman", "raw_text": "...", "confidence": 0.9}
	]}`)

	e := NewIdentityExtractor(newTestServices(mock), nil)
	_, err := e.Extract(context.Background(), "...", []string{"owner_name"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownField), "got %v", err)
}

func TestIdentityExtractor_UnrequestedFieldIsHardError(t *testing.T) {
	// Canonical, but not what the caller asked for: still drift.
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [
		{"field_name": "proponent_name", "value": "Nicholas Denman", "raw_text": "...", "confidence": 0.9}
	]}`)

	e := NewIdentityExtractor(newTestServices(mock), nil)
	_, err := e.Extract(context.Background(), "...", []string{"owner_name"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownField), "got %v", err)
}
