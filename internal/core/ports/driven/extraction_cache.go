package driven

import (
	"context"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// ExtractionCache memoizes per-document extraction results. Keys are built
// with domain.CacheKey (content hash + requirement + strategy); values are
// immutable once written, so concurrent last-writer-wins set is safe.
//
// The cache is injected, never a package singleton: tests substitute an
// isolated instance and concurrent sessions cannot cross-contaminate.
type ExtractionCache interface {
	// Get returns the cached snippets for a key, or ok=false on a miss.
	Get(ctx context.Context, key string) (snippets []domain.EvidenceSnippet, ok bool, err error)

	// Set stores snippets under a key. Overwriting an existing key is allowed.
	Set(ctx context.Context, key string, snippets []domain.EvidenceSnippet) error

	// Ping checks if the cache backend is healthy
	Ping(ctx context.Context) error

	// Close releases resources
	Close() error
}
