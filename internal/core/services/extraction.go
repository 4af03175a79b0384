package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven"
	"github.com/carbonledger/verify-core/internal/core/ports/driving"
	"github.com/carbonledger/verify-core/internal/extractors"
	"github.com/carbonledger/verify-core/internal/runtime"
)

// Ensure extractionService implements ExtractionService
var _ driving.ExtractionService = (*extractionService)(nil)

// ExtractionConfig holds configuration for the type-aware extractor.
type ExtractionConfig struct {
	Mapper   driving.MapperService
	Registry *extractors.Registry
	Cache    driven.ExtractionCache
	Services *runtime.Services
	Logger   *slog.Logger

	// Concurrency bounds simultaneous (requirement, document) extractions
	Concurrency int

	// ChunkSize and ChunkOverlap control per-document chunking (runes)
	ChunkSize    int
	ChunkOverlap int

	// MaxAttempts bounds completion-service retries per call
	MaxAttempts int

	// RetryBase is the first backoff delay
	RetryBase time.Duration
}

// extractionService routes each requirement to the extraction behavior its
// validation strategy declares. Dispatch is a total function over the four
// strategies: an unknown value is an explicit error, never a silent
// fallthrough to presence-only behavior.
type extractionService struct {
	mapper      driving.MapperService
	registry    *extractors.Registry
	cache       driven.ExtractionCache
	services    *runtime.Services
	logger      *slog.Logger
	concurrency int
	chunkSize   int
	overlap     int
	maxAttempts int
	retryBase   time.Duration
}

// NewExtractionService creates a new ExtractionService
func NewExtractionService(cfg ExtractionConfig) driving.ExtractionService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 6000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 400
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	return &extractionService{
		mapper:      cfg.Mapper,
		registry:    cfg.Registry,
		cache:       cfg.Cache,
		services:    cfg.Services,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		chunkSize:   cfg.ChunkSize,
		overlap:     cfg.ChunkOverlap,
		maxAttempts: cfg.MaxAttempts,
		retryBase:   cfg.RetryBase,
	}
}

// ExtractAll maps every requirement and runs extraction with bounded
// concurrency. Per-requirement failures land in the evidence as status
// "error"; the run itself only fails on context cancellation.
func (s *extractionService) ExtractAll(ctx context.Context, checklist []domain.Requirement, docs []*domain.Document) ([]*domain.RequirementEvidence, error) {
	results := make([]*domain.RequirementEvidence, len(checklist))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, req := range checklist {
		wg.Add(1)
		go func(i int, req domain.Requirement) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			relevance := s.mapper.MapRequirement(ctx, req, docs)
			candidates := candidateDocs(relevance, docs)

			ev, err := s.extract(ctx, req, candidates)
			if err != nil {
				s.logger.Error("extraction failed", "requirement", req.ID, "error", err)
				ev = &domain.RequirementEvidence{
					RequirementID: req.ID,
					Strategy:      req.Strategy,
					Status:        domain.EvidenceError,
					Error:         err.Error(),
					ExtractedAt:   time.Now().UTC(),
				}
			}
			ev.Relevance = relevance
			results[i] = ev
		}(i, req)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ExtractRequirement runs extraction for one requirement against already
// selected candidate documents.
func (s *extractionService) ExtractRequirement(ctx context.Context, req domain.Requirement, docs []*domain.Document) (*domain.RequirementEvidence, error) {
	return s.extract(ctx, req, docs)
}

// extract is the strategy dispatch.
func (s *extractionService) extract(ctx context.Context, req domain.Requirement, candidates []*domain.Document) (*domain.RequirementEvidence, error) {
	ev := &domain.RequirementEvidence{
		RequirementID: req.ID,
		Strategy:      req.Strategy,
		ExtractedAt:   time.Now().UTC(),
	}

	if len(candidates) == 0 {
		ev.Status = domain.EvidenceUnmapped
		return ev, nil
	}

	switch req.Strategy {
	case domain.StrategyPresence:
		return s.extractPresence(ctx, req, candidates, ev)
	case domain.StrategyTypedField:
		// single best candidate document only
		return s.extractTyped(ctx, req, candidates[:1], ev)
	case domain.StrategyCrossDocument:
		// the same field extraction, independently against every candidate
		return s.extractTyped(ctx, req, candidates, ev)
	case domain.StrategyManual:
		return s.extractManual(ctx, req, candidates, ev)
	default:
		return nil, fmt.Errorf("%w: %q (requirement %s)", domain.ErrUnknownStrategy, req.Strategy, req.ID)
	}
}

// extractTyped runs field extraction per candidate document, cached per
// (content hash, requirement, strategy).
func (s *extractionService) extractTyped(ctx context.Context, req domain.Requirement, candidates []*domain.Document, ev *domain.RequirementEvidence) (*domain.RequirementEvidence, error) {
	for _, doc := range candidates {
		snippets, err := s.cachedDocExtraction(ctx, req, doc, func() ([]domain.EvidenceSnippet, error) {
			return s.typedSnippetsForDoc(ctx, req, doc)
		})
		if err != nil {
			return nil, err
		}
		ev.Snippets = append(ev.Snippets, snippets...)
	}

	if !hasStructuredFields(ev.Snippets) {
		// Extraction miss, not an error: zero-confidence evidence.
		ev.Status = domain.EvidenceNotFound
		ev.Snippets = append(ev.Snippets, domain.EvidenceSnippet{
			ID:               uuid.NewString(),
			Text:             fmt.Sprintf("no value found for %s", strings.Join(req.ExpectedFields, ", ")),
			Confidence:       0,
			Source:           domain.SourceRef{DocumentID: candidates[0].ID, Page: 1},
			StructuredFields: nil,
		})
		return ev, nil
	}

	ev.Status = domain.EvidenceExtracted
	return ev, nil
}

// typedSnippetsForDoc chunks one document, extracts the expected fields per
// chunk concurrently, reassembles by chunk index, and deduplicates.
func (s *extractionService) typedSnippetsForDoc(ctx context.Context, req domain.Requirement, doc *domain.Document) ([]domain.EvidenceSnippet, error) {
	groups, err := s.registry.Partition(req.ExpectedFields)
	if err != nil {
		return nil, err
	}

	chunks := chunkText(doc.FullText, s.chunkSize, s.overlap)

	type chunkResult struct {
		values []domain.TypedValue
		err    error
	}
	results := make([]chunkResult, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)
	for i, ch := range chunks {
		wg.Add(1)
		go func(i int, ch textChunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var all []domain.TypedValue
			for extractor, fields := range groups {
				values, err := s.completeWithRetry(ctx, func(ctx context.Context) ([]domain.TypedValue, error) {
					return extractor.Extract(ctx, ch.text, fields)
				})
				if err != nil {
					results[i] = chunkResult{err: err}
					return
				}
				all = append(all, values...)
			}
			results[i] = chunkResult{values: all}
		}(i, ch)
	}
	wg.Wait()

	// Reassemble by deterministic chunk index, never completion order.
	var ordered []domain.TypedValue
	chunkOf := make(map[int]int)
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		for _, v := range r.values {
			chunkOf[len(ordered)] = i
			ordered = append(ordered, v)
		}
	}

	deduped, chunkIdx := dedupeValues(ordered, chunkOf)

	var snippets []domain.EvidenceSnippet
	for i, v := range deduped {
		ch := chunks[chunkIdx[i]]
		snippet := domain.EvidenceSnippet{
			ID:         uuid.NewString(),
			Text:       v.RawText,
			Confidence: v.Confidence,
			Source:     domain.SourceRef{DocumentID: doc.ID, Page: doc.PageFor(ch.start)},
		}
		if conflicts := snippet.MergeFields([]domain.TypedValue{v}); len(conflicts) > 0 {
			for _, c := range conflicts {
				s.logger.Warn("field conflict during merge",
					"field", c.FieldName, "old", c.Old.String(), "new", c.New.String())
			}
		}
		snippets = append(snippets, snippet)
	}
	return snippets, nil
}

// snippetResponse is the completion shape for presence and manual prompts.
type snippetResponse struct {
	Snippets []struct {
		Text       string  `json:"text"`
		Section    string  `json:"section"`
		Confidence float64 `json:"confidence"`
	} `json:"snippets"`
	ReviewQuestion string `json:"review_question"`
}

const snippetContract = `Respond with a JSON object of this exact shape:
{"snippets": [{"text": "...", "section": "...", "confidence": 0.0}]}
- text is a verbatim passage from the document that addresses the requirement.
- section is the heading or clause it appears under, empty if unknown.
- confidence is your certainty in [0,1] that the passage addresses the requirement.
Return {"snippets": []} when the document does not address the requirement.`

// extractPresence produces free-text snippets proving the requirement is
// addressed. No structured fields, ever.
func (s *extractionService) extractPresence(ctx context.Context, req domain.Requirement, candidates []*domain.Document, ev *domain.RequirementEvidence) (*domain.RequirementEvidence, error) {
	for _, doc := range candidates {
		snippets, err := s.cachedDocExtraction(ctx, req, doc, func() ([]domain.EvidenceSnippet, error) {
			return s.presenceSnippetsForDoc(ctx, req, doc)
		})
		if err != nil {
			return nil, err
		}
		ev.Snippets = append(ev.Snippets, snippets...)
	}

	if len(ev.Snippets) == 0 {
		ev.Status = domain.EvidenceNotFound
		return ev, nil
	}
	ev.Status = domain.EvidenceExtracted
	return ev, nil
}

func (s *extractionService) presenceSnippetsForDoc(ctx context.Context, req domain.Requirement, doc *domain.Document) ([]domain.EvidenceSnippet, error) {
	instructions := fmt.Sprintf(
		"You find evidence in carbon-credit project documents.\nRequirement: %s\n%s",
		req.Text, snippetContract)

	resp, err := s.completeSnippets(ctx, instructions, doc.FullText)
	if err != nil {
		return nil, err
	}

	var snippets []domain.EvidenceSnippet
	for _, raw := range resp.Snippets {
		if strings.TrimSpace(raw.Text) == "" {
			continue
		}
		page := 1
		if off := strings.Index(doc.FullText, raw.Text); off >= 0 {
			page = doc.PageFor(off)
		}
		snippets = append(snippets, domain.EvidenceSnippet{
			ID:         uuid.NewString(),
			Text:       raw.Text,
			Confidence: clamp01(raw.Confidence),
			Source:     domain.SourceRef{DocumentID: doc.ID, Page: page, Section: raw.Section},
		})
	}
	return snippets, nil
}

// extractManual produces snippets plus a synthesized question for the human
// reviewer. Never produces structured fields, and the validators never
// visit it.
func (s *extractionService) extractManual(ctx context.Context, req domain.Requirement, candidates []*domain.Document, ev *domain.RequirementEvidence) (*domain.RequirementEvidence, error) {
	instructions := fmt.Sprintf(
		"You prepare a compliance requirement for human review.\nRequirement: %s\n"+
			"Also set review_question to one specific question the reviewer should answer about this evidence.\n%s",
		req.Text, snippetContract)

	for _, doc := range candidates {
		resp, err := s.completeSnippets(ctx, instructions, doc.FullText)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Snippets {
			if strings.TrimSpace(raw.Text) == "" {
				continue
			}
			page := 1
			if off := strings.Index(doc.FullText, raw.Text); off >= 0 {
				page = doc.PageFor(off)
			}
			ev.Snippets = append(ev.Snippets, domain.EvidenceSnippet{
				ID:         uuid.NewString(),
				Text:       raw.Text,
				Confidence: clamp01(raw.Confidence),
				Source:     domain.SourceRef{DocumentID: doc.ID, Page: page, Section: raw.Section},
			})
		}
		if ev.ReviewQuestion == "" && strings.TrimSpace(resp.ReviewQuestion) != "" {
			ev.ReviewQuestion = strings.TrimSpace(resp.ReviewQuestion)
		}
	}

	if ev.ReviewQuestion == "" {
		// The reviewer still needs a question when the model did not offer one.
		ev.ReviewQuestion = fmt.Sprintf("Does the provided evidence satisfy: %s", req.Text)
	}
	if len(ev.Snippets) == 0 {
		ev.Status = domain.EvidenceNotFound
		return ev, nil
	}
	ev.Status = domain.EvidenceExtracted
	return ev, nil
}

func (s *extractionService) completeSnippets(ctx context.Context, instructions, content string) (*snippetResponse, error) {
	completion := s.services.CompletionService()
	if completion == nil {
		return nil, domain.ErrServiceUnavailable
	}

	var resp snippetResponse
	err := s.retry(ctx, func(ctx context.Context) error {
		raw, err := completion.Complete(ctx, instructions, content)
		if err != nil {
			return err
		}
		resp = snippetResponse{}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fmt.Errorf("malformed snippet response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// cachedDocExtraction memoizes one document's extraction for a requirement.
// The strategy is part of the key, so the same requirement re-run under a
// different strategy never sees stale structured data.
func (s *extractionService) cachedDocExtraction(ctx context.Context, req domain.Requirement, doc *domain.Document, fn func() ([]domain.EvidenceSnippet, error)) ([]domain.EvidenceSnippet, error) {
	key := domain.CacheKey(domain.ContentHash(doc.FullText), req.ID, req.Strategy)

	if s.cache != nil {
		if snippets, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			s.logger.Debug("extraction cache hit", "requirement", req.ID, "document", doc.ID)
			return snippets, nil
		}
	}

	snippets, err := fn()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snippets); err != nil {
			s.logger.Warn("extraction cache write failed", "error", err)
		}
	}
	return snippets, nil
}

// completeWithRetry wraps a typed-value extraction in the retry policy.
func (s *extractionService) completeWithRetry(ctx context.Context, fn func(context.Context) ([]domain.TypedValue, error)) ([]domain.TypedValue, error) {
	var values []domain.TypedValue
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		values, err = fn(ctx)
		return err
	})
	return values, err
}

// retry runs fn with exponential backoff up to maxAttempts. Vocabulary
// drift and a missing service are not retryable; a flaky completion call is.
func (s *extractionService) retry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	delay := s.retryBase
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, domain.ErrUnknownField) ||
			errors.Is(lastErr, domain.ErrServiceUnavailable) ||
			errors.Is(lastErr, context.Canceled) ||
			errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if attempt == s.maxAttempts {
			break
		}
		s.logger.Warn("completion call failed, retrying",
			"attempt", attempt, "delay", delay, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("completion failed after %d attempts: %w", s.maxAttempts, lastErr)
}

// textChunk is one slice of a document with its start offset.
type textChunk struct {
	index int
	start int
	text  string
}

// chunkText splits text into overlapping chunks of roughly size runes.
func chunkText(text string, size, overlap int) []textChunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []textChunk{{index: 0, start: 0, text: text}}
	}

	var chunks []textChunk
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, textChunk{
			index: len(chunks),
			start: len(string(runes[:start])),
			text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// dedupeValues keeps one value per (field, rendered value), preferring the
// higher confidence, preserving first-seen order.
func dedupeValues(values []domain.TypedValue, chunkOf map[int]int) ([]domain.TypedValue, []int) {
	type slot struct {
		pos   int
		value domain.TypedValue
		chunk int
	}
	seen := make(map[string]*slot)
	var order []string

	for i, v := range values {
		key := v.FieldName + "\x00" + v.String()
		if existing, ok := seen[key]; ok {
			if v.Confidence > existing.value.Confidence {
				existing.value = v
				existing.chunk = chunkOf[i]
			}
			continue
		}
		seen[key] = &slot{pos: len(order), value: v, chunk: chunkOf[i]}
		order = append(order, key)
	}

	out := make([]domain.TypedValue, len(order))
	chunks := make([]int, len(order))
	for _, key := range order {
		sl := seen[key]
		out[sl.pos] = sl.value
		chunks[sl.pos] = sl.chunk
	}
	return out, chunks
}

// candidateDocs resolves relevance rankings back to documents, in rank order.
func candidateDocs(relevance []domain.DocumentRelevance, docs []*domain.Document) []*domain.Document {
	byID := make(map[string]*domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	var out []*domain.Document
	for _, rel := range relevance {
		if d, ok := byID[rel.DocumentID]; ok {
			out = append(out, d)
		}
	}
	return out
}

func hasStructuredFields(snippets []domain.EvidenceSnippet) bool {
	for _, s := range snippets {
		if len(s.StructuredFields) > 0 {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
