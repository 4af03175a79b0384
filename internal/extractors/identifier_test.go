package extractors

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/ports/driven/mocks"
)

func TestIdentifierExtractor_AcceptableIdentifier(t *testing.T) {
	e := NewIdentifierExtractor(nil, nil, nil)

	tests := []struct {
		value string
		want  bool
	}{
		{"C12-345", true},
		{"VCS/1234", true},
		{"VM0007", true},
		{"AB12-9", true},
		{"2021", false}, // bare calendar year
		{"1998", false},
		{"2150", false}, // outside the year range but still digits-only
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, e.acceptableIdentifier(tt.value), "value %q", tt.value)
		})
	}
}

func TestIdentifierExtractor_CustomPattern(t *testing.T) {
	pattern := regexp.MustCompile(`^C\d{2}-\d+$`)
	e := NewIdentifierExtractor(nil, pattern, nil)

	assert.True(t, e.acceptableIdentifier("C12-345"))
	assert.False(t, e.acceptableIdentifier("2022"))
}

func TestIdentifierExtractor_YearNeverAccepted(t *testing.T) {
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [
		{"field_name": "project_id", "value": "2021", "raw_text": "registered in 2021", "confidence": 0.95},
		{"field_name": "project_id", "value": "C12-345", "raw_text": "Project ID: C12-345", "confidence": 0.9}
	]}`)

	e := NewIdentifierExtractor(newTestServices(mock), nil, nil)
	values, err := e.Extract(context.Background(), "...", []string{"project_id"})
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "C12-345", values[0].Text)
}
