package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

func TestRegistry_ForField(t *testing.T) {
	r := NewDefaultRegistry(runtime.NewServices(), nil)

	tests := []struct {
		field string
		want  string
	}{
		{"project_start_date", "date"},
		{"owner_name", "identity"},
		{"project_id", "identifier"},
		{"project_area_hectares", "quantity"},
	}
	for _, tt := range tests {
		spec, err := domain.CanonicalField(tt.field)
		require.NoError(t, err)
		e := r.ForField(spec)
		require.NotNil(t, e, "no extractor for %s", tt.field)
		assert.Equal(t, tt.want, e.Name())
	}
}

func TestRegistry_Partition(t *testing.T) {
	r := NewDefaultRegistry(runtime.NewServices(), nil)

	groups, err := r.Partition([]string{"crediting_period_start", "crediting_period_end", "owner_name"})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	for e, fields := range groups {
		switch e.Name() {
		case "date":
			assert.Equal(t, []string{"crediting_period_end", "crediting_period_start"}, fields)
		case "identity":
			assert.Equal(t, []string{"owner_name"}, fields)
		default:
			t.Errorf("unexpected extractor %s", e.Name())
		}
	}
}

func TestRegistry_Partition_RejectsUnknownField(t *testing.T) {
	r := NewDefaultRegistry(runtime.NewServices(), nil)

	_, err := r.Partition([]string{"owner_name", "made_up_field"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}
