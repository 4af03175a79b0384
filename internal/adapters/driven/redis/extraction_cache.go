package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractionCache = (*ExtractionCache)(nil)

const extractionPrefix = "extraction:"

// DefaultExtractionTTL keeps cached extractions for a week. The key carries
// the document content hash, so stale entries only cost memory, never
// correctness.
const DefaultExtractionTTL = 7 * 24 * time.Hour

// ExtractionCache implements driven.ExtractionCache using Redis.
// Entries expire via Redis TTL; a cold cache just re-extracts.
type ExtractionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExtractionCache creates a new Redis-backed ExtractionCache
func NewExtractionCache(client *redis.Client, ttl time.Duration) *ExtractionCache {
	if ttl <= 0 {
		ttl = DefaultExtractionTTL
	}
	return &ExtractionCache{client: client, ttl: ttl}
}

// Get retrieves cached snippets for a key. Missing entries are not an error.
func (c *ExtractionCache) Get(ctx context.Context, key string) ([]domain.EvidenceSnippet, bool, error) {
	data, err := c.client.Get(ctx, extractionPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached extraction: %w", err)
	}

	var snippets []domain.EvidenceSnippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached extraction: %w", err)
	}
	return snippets, true, nil
}

// Set stores snippets for a key with the configured TTL.
func (c *ExtractionCache) Set(ctx context.Context, key string, snippets []domain.EvidenceSnippet) error {
	data, err := json.Marshal(snippets)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction: %w", err)
	}

	if err := c.client.Set(ctx, extractionPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache extraction: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *ExtractionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *ExtractionCache) Close() error {
	return c.client.Close()
}
