package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven/mocks"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12345.6", 12345.6, false},
		{"12,345.6", 12345.6, false},
		{"1250 ha", 1250, false},
		{"30 years", 30, false},
		{"15%", 15, false},
		{"hectares", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseQuantity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantityExtractor_Extract(t *testing.T) {
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [
		{"field_name": "project_area_hectares", "value": "1,250 ha", "raw_text": "total project area of 1,250 ha", "confidence": 0.87},
		{"field_name": "project_area_hectares", "value": "about this big", "raw_text": "...", "confidence": 0.5}
	]}`)

	e := NewQuantityExtractor(newTestServices(mock), nil)
	values, err := e.Extract(context.Background(), "...", []string{"project_area_hectares"})
	require.NoError(t, err)
	require.Len(t, values, 1, "unparseable quantity is dropped")
	require.NotNil(t, values[0].Number)
	assert.Equal(t, 1250.0, *values[0].Number)
	assert.Equal(t, domain.KindNumber, values[0].Kind)
}
