package extractors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/ports/driven/mocks"
	"github.com/carbonledger/verify-core/internal/runtime"
)

func newTestServices(mock *mocks.MockCompletionService) *runtime.Services {
	services := runtime.NewServices()
	services.SetCompletionService(mock)
	return services
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2022-01-15", "2022-01-15", false},
		{"01/15/2022", "2022-01-15", false},
		{"January 15, 2022", "2022-01-15", false},
		{"15 January 2022", "2022-01-15", false},
		{"15 Jan 2022", "2022-01-15", false},
		{"2022/01/15", "2022-01-15", false},
		{"15.01.2022", "2022-01-15", false},
		{"2022", "", true},
		{"sometime in spring", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestDateExtractor_ScenarioProjectStart(t *testing.T) {
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [{
		"field_name": "project_start_date",
		"value": "01/15/2022",
		"raw_text": "Project Start Date: 01/15/2022",
		"context": "Project Start Date: 01/15/2022. The project commenced on this date.",
		"confidence": 0.92
	}]}`)

	e := NewDateExtractor(newTestServices(mock), nil)
	values, err := e.Extract(context.Background(), "Project Start Date: 01/15/2022", []string{"project_start_date"})
	require.NoError(t, err)
	require.Len(t, values, 1)

	v := values[0]
	assert.Equal(t, "project_start_date", v.FieldName)
	require.NotNil(t, v.Date)
	assert.Equal(t, time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), *v.Date)
	assert.Greater(t, v.Confidence, 0.8)
}

func TestDateExtractor_ClassifiesByContextNotOrder(t *testing.T) {
	// The model labels the date as start but the context says baseline;
	// context wins.
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [{
		"field_name": "project_start_date",
		"value": "2019-06-30",
		"raw_text": "the baseline scenario was assessed on 2019-06-30",
		"context": "For the baseline scenario assessment carried out on 2019-06-30.",
		"confidence": 0.85
	}]}`)

	e := NewDateExtractor(newTestServices(mock), nil)
	values, err := e.Extract(context.Background(), "...", []string{"project_start_date", "baseline_date"})
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "baseline_date", values[0].FieldName)
}

func TestDateExtractor_DropsBareYear(t *testing.T) {
	mock := mocks.NewMockCompletionService()
	mock.Default = []byte(`{"fields": [{
		"field_name": "project_start_date",
		"value": "2022",
		"raw_text": "starting in 2022",
		"context": "The project commenced in 2022.",
		"confidence": 0.9
	}]}`)

	e := NewDateExtractor(newTestServices(mock), nil)
	values, err := e.Extract(context.Background(), "...", []string{"project_start_date"})
	require.NoError(t, err)
	assert.Empty(t, values, "a bare year is not a date")
}

func TestDateExtractor_ServiceUnavailable(t *testing.T) {
	e := NewDateExtractor(runtime.NewServices(), nil)
	_, err := e.Extract(context.Background(), "text", []string{"project_start_date"})
	require.Error(t, err)
}
