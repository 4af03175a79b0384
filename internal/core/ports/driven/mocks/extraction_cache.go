package mocks

import (
	"context"
	"sync"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// MockExtractionCache is an in-memory ExtractionCache for testing
type MockExtractionCache struct {
	mu      sync.RWMutex
	entries map[string][]domain.EvidenceSnippet

	// Hits and Misses count lookups for cache behavior assertions
	Hits   int
	Misses int
}

// NewMockExtractionCache creates a new MockExtractionCache
func NewMockExtractionCache() *MockExtractionCache {
	return &MockExtractionCache{
		entries: make(map[string][]domain.EvidenceSnippet),
	}
}

func (m *MockExtractionCache) Get(ctx context.Context, key string) ([]domain.EvidenceSnippet, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snippets, ok := m.entries[key]
	if !ok {
		m.Misses++
		return nil, false, nil
	}
	m.Hits++
	out := make([]domain.EvidenceSnippet, len(snippets))
	copy(out, snippets)
	return out, true, nil
}

func (m *MockExtractionCache) Set(ctx context.Context, key string, snippets []domain.EvidenceSnippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]domain.EvidenceSnippet, len(snippets))
	copy(stored, snippets)
	m.entries[key] = stored
	return nil
}

// Len returns the number of cached keys.
func (m *MockExtractionCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MockExtractionCache) Ping(ctx context.Context) error { return nil }

func (m *MockExtractionCache) Close() error { return nil }
