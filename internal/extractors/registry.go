package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// FieldExtractor is the shared contract of the specialized extraction
// routines: given chunk text and the canonical field names wanted from it,
// return zero or more typed values with provenance-ready raw text and a
// confidence reflecting extraction certainty.
//
// All field extraction goes through this contract. There is deliberately no
// secondary regex path with looser semantics; the guards (placeholder
// denylist, year-vs-identifier pattern) live inside the extractors.
type FieldExtractor interface {
	// Name identifies the extractor in logs
	Name() string

	// Supports reports whether the extractor handles the given field
	Supports(spec domain.FieldSpec) bool

	// Priority breaks ties when multiple extractors support a field.
	// Higher wins.
	Priority() int

	// Extract pulls the requested fields out of a text chunk.
	// Field names outside the canonical vocabulary are a hard error.
	Extract(ctx context.Context, text string, fields []string) ([]domain.TypedValue, error)
}

// Registry selects field extractors by field spec, highest priority first.
type Registry struct {
	mu         sync.RWMutex
	extractors []FieldExtractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]FieldExtractor, 0),
	}
}

// NewDefaultRegistry creates a registry with the standard extractors wired
// to the given runtime services.
func NewDefaultRegistry(services *runtime.Services, logger *slog.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewDateExtractor(services, logger))
	r.Register(NewIdentityExtractor(services, logger))
	r.Register(NewIdentifierExtractor(services, nil, logger))
	r.Register(NewQuantityExtractor(services, logger))
	return r
}

// Register registers an extractor.
func (r *Registry) Register(e FieldExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, e)
}

// ForField retrieves the best-matching extractor for a field.
// Returns nil if none supports it.
func (r *Registry) ForField(spec domain.FieldSpec) FieldExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best FieldExtractor
	for _, e := range r.extractors {
		if !e.Supports(spec) {
			continue
		}
		if best == nil || e.Priority() > best.Priority() {
			best = e
		}
	}
	return best
}

// Partition groups the requested field names by the extractor responsible
// for them, validating every name against the canonical vocabulary first.
// The grouping keeps one completion call per extractor per chunk instead of
// one per field.
func (r *Registry) Partition(fields []string) (map[FieldExtractor][]string, error) {
	byExtractor := make(map[FieldExtractor][]string)
	for _, name := range fields {
		spec, err := domain.CanonicalField(name)
		if err != nil {
			return nil, err
		}
		e := r.ForField(spec)
		if e == nil {
			return nil, fmt.Errorf("no extractor registered for field %q (%s)", spec.Name, spec.Kind)
		}
		byExtractor[e] = append(byExtractor[e], spec.Name)
	}
	for _, group := range byExtractor {
		sort.Strings(group)
	}
	return byExtractor, nil
}
