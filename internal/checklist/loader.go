// Package checklist loads and validates review checklists. A checklist is a
// YAML file listing the requirements a registry review session is scored
// against. The built-in registry checklist is embedded so the pipeline runs
// without any file on disk.
package checklist

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

//go:embed default_checklist.yaml
var defaultChecklist []byte

// checklistFile is the YAML document shape.
type checklistFile struct {
	Name         string               `yaml:"name" validate:"required"`
	Version      string               `yaml:"version"`
	Requirements []domain.Requirement `yaml:"requirements" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Default returns the embedded registry checklist.
func Default() ([]domain.Requirement, error) {
	return Parse(defaultChecklist)
}

// LoadFile reads and validates a checklist from a YAML file.
func LoadFile(path string) ([]domain.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist %s: %w", path, err)
	}

	reqs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("checklist %s: %w", path, err)
	}
	return reqs, nil
}

// Parse decodes and validates checklist YAML. Requirements come back in file
// order. Any structural problem fails the whole checklist; a review must
// never run against a partially valid one.
func Parse(data []byte) ([]domain.Requirement, error) {
	var file checklistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: malformed checklist yaml: %v", domain.ErrInvalidInput, err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	seen := make(map[string]bool, len(file.Requirements))
	for i, req := range file.Requirements {
		if seen[req.ID] {
			return nil, fmt.Errorf("%w: duplicate requirement id %q", domain.ErrInvalidInput, req.ID)
		}
		seen[req.ID] = true

		if err := checkRequirement(req); err != nil {
			return nil, fmt.Errorf("requirement %d (%s): %w", i, req.ID, err)
		}
	}

	return file.Requirements, nil
}

// checkRequirement enforces the invariants the struct tags cannot express.
func checkRequirement(req domain.Requirement) error {
	if !req.Strategy.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, req.Strategy)
	}

	if req.Strategy.WantsTypedFields() {
		if len(req.ExpectedFields) == 0 {
			return fmt.Errorf("%w: strategy %s requires at least one expected field",
				domain.ErrInvalidInput, req.Strategy)
		}
		for _, name := range req.ExpectedFields {
			if _, err := domain.CanonicalField(name); err != nil {
				return err
			}
		}
		return nil
	}

	// Presence and manual requirements produce no structured fields, so a
	// field list on one is a checklist authoring mistake.
	if len(req.ExpectedFields) > 0 {
		return fmt.Errorf("%w: strategy %s does not take expected fields",
			domain.ErrInvalidInput, req.Strategy)
	}
	return nil
}
