package checklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

func TestDefault_LoadsCleanly(t *testing.T) {
	reqs, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, reqs)

	byID := make(map[string]domain.Requirement, len(reqs))
	for _, req := range reqs {
		byID[req.ID] = req
	}

	owner, ok := byID["ownership-consistent"]
	require.True(t, ok)
	assert.Equal(t, domain.StrategyCrossDocument, owner.Strategy)
	assert.Equal(t, []string{"owner_name"}, owner.ExpectedFields)
	assert.True(t, owner.Mandatory)

	additionality, ok := byID["additionality-justification"]
	require.True(t, ok)
	assert.Equal(t, domain.StrategyManual, additionality.Strategy)
	assert.Empty(t, additionality.ExpectedFields)
}

func TestParse_RejectsUnknownStrategy(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
requirements:
  - id: r1
    category: ownership
    text: something
    validation_strategy: vibes
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestParse_RejectsDuplicateIDs(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
requirements:
  - id: r1
    category: ownership
    text: first
    validation_strategy: presence
  - id: r1
    category: ownership
    text: second
    validation_strategy: presence
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParse_TypedStrategyNeedsFields(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
requirements:
  - id: r1
    category: ownership
    text: owner must be named
    validation_strategy: typed_field
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one expected field")
}

func TestParse_RejectsNonCanonicalField(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
requirements:
  - id: r1
    category: ownership
    text: owner must be named
    validation_strategy: typed_field
    expected_field_names: [owner_full_legal_name]
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestParse_RejectsFieldsOnPresence(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
requirements:
  - id: r1
    category: baseline
    text: baseline described
    validation_strategy: presence
    expected_field_names: [baseline_date]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not take expected fields")
}

func TestParse_RejectsMissingRequiredKeys(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
requirements:
  - id: r1
    validation_strategy: presence
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("requirements: ["))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: minimal
requirements:
  - id: r1
    category: monitoring
    text: monitoring plan present
    validation_strategy: presence
`), 0o644))

	reqs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "r1", reqs[0].ID)

	_, err = LoadFile(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}
