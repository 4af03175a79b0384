package driven

import (
	"context"
	"encoding/json"
)

// CompletionService is the hosted language model behind extraction and
// coherence synthesis. The core treats it as an opaque function from
// (instructions, content) to structured JSON; prompt templates live with
// the callers, transport and retries with the adapter.
type CompletionService interface {
	// Complete sends system instructions plus content and returns the raw
	// JSON object produced by the model. Errors are retried by the adapter
	// with bounded backoff before being surfaced.
	Complete(ctx context.Context, instructions string, content string) (json.RawMessage, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the completion service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the service
	Close() error
}
