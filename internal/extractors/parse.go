package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// candidate is one field occurrence as reported by the completion service.
// Candidates are raw model output; nothing here is trusted until the owning
// extractor has normalized the value and run its guards.
type candidate struct {
	FieldName  string  `json:"field_name"`
	Value      string  `json:"value"`
	RawText    string  `json:"raw_text"`
	Context    string  `json:"context"`
	Confidence float64 `json:"confidence"`
}

type candidateResponse struct {
	Fields []candidate `json:"fields"`
}

// completeAndParse sends one extraction request and decodes the candidate
// list. The instructions always pin the response shape so the decode side
// stays schema-checked.
func completeAndParse(ctx context.Context, services *runtime.Services, instructions, text string) ([]candidate, error) {
	completion := services.CompletionService()
	if completion == nil {
		return nil, domain.ErrServiceUnavailable
	}

	raw, err := completion.Complete(ctx, instructions, text)
	if err != nil {
		return nil, err
	}

	var resp candidateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}

	out := resp.Fields[:0]
	for _, c := range resp.Fields {
		c.Value = strings.TrimSpace(c.Value)
		if c.Value == "" {
			continue
		}
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		out = append(out, c)
	}
	return out, nil
}

// requireRequested rejects candidates whose field name the caller did not
// ask for and that cannot be resolved in the canonical vocabulary. A name
// outside the vocabulary means prompt or extractor drift and fails fast.
func requireRequested(c candidate, requested []string) (string, error) {
	spec, err := domain.CanonicalField(c.FieldName)
	if err != nil {
		return "", err
	}
	for _, want := range requested {
		if spec.Name == want {
			return spec.Name, nil
		}
	}
	return "", fmt.Errorf("%w: extractor returned %q but %v was requested", domain.ErrUnknownField, spec.Name, requested)
}

// responseContract is appended to every extraction prompt.
const responseContract = `Respond with a JSON object of this exact shape:
{"fields": [{"field_name": "...", "value": "...", "raw_text": "...", "context": "...", "confidence": 0.0}]}
- field_name must be one of the requested names, never a synonym.
- value is the extracted value as written, trimmed.
- raw_text is the exact source sentence or phrase the value came from.
- context is the surrounding sentence used to judge what the value refers to.
- confidence is your certainty in [0,1] that the value answers the request.
Return {"fields": []} when nothing in the text answers the request.`
