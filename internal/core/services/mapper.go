package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driving"
)

// Ensure mapperService implements MapperService
var _ driving.MapperService = (*mapperService)(nil)

// MapperConfig holds configuration for the requirement mapper.
type MapperConfig struct {
	// TopN is how many candidate documents extraction receives per
	// requirement. Low relevance does not gate extraction; it is recorded
	// for audit.
	TopN int

	// Floor is the minimum relevance score. When no document clears it the
	// requirement is unmapped, which is an outcome rather than an error.
	Floor float64

	Logger *slog.Logger
}

// mapperService scores document relevance per requirement with term
// matching over the requirement text, category, and checklist keywords.
type mapperService struct {
	topN   int
	floor  float64
	logger *slog.Logger
}

// NewMapperService creates a new MapperService
func NewMapperService(cfg MapperConfig) driving.MapperService {
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.Floor <= 0 {
		cfg.Floor = 0.15
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &mapperService{topN: cfg.TopN, floor: cfg.Floor, logger: cfg.Logger}
}

// mapperStopwords are excluded from requirement term sets.
var mapperStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {}, "to": {},
	"in": {}, "is": {}, "are": {}, "be": {}, "for": {}, "with": {}, "that": {},
	"must": {}, "shall": {}, "document": {}, "documents": {}, "project": {},
	"provide": {}, "provided": {}, "include": {}, "included": {},
}

// terms builds the scoring term set for a requirement. Checklist keywords
// weigh double: they were chosen by a human for exactly this purpose.
func terms(req domain.Requirement) map[string]float64 {
	weights := make(map[string]float64)
	add := func(raw string, weight float64) {
		for _, word := range strings.Fields(strings.ToLower(raw)) {
			word = strings.Trim(word, ".,;:()'\"")
			if len(word) < 3 {
				continue
			}
			if _, stop := mapperStopwords[word]; stop {
				continue
			}
			if weights[word] < weight {
				weights[word] = weight
			}
		}
	}
	add(req.Text, 1)
	add(strings.ReplaceAll(req.Category, "_", " "), 1.5)
	for _, kw := range req.Keywords {
		add(kw, 2)
	}
	return weights
}

// MapRequirement ranks the documents for one requirement, best first.
func (s *mapperService) MapRequirement(ctx context.Context, req domain.Requirement, docs []*domain.Document) []domain.DocumentRelevance {
	weights := terms(req)
	if len(weights) == 0 {
		return nil
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	type scored struct {
		rel domain.DocumentRelevance
		doc *domain.Document
	}
	var results []scored

	for _, doc := range docs {
		text := strings.ToLower(doc.FullText + " " + doc.DisplayName)

		var hit float64
		var matched []string
		for word, weight := range weights {
			if strings.Contains(text, word) {
				hit += weight
				matched = append(matched, word)
			}
		}
		if hit == 0 {
			continue
		}
		sort.Strings(matched)

		score := hit / total
		if score < s.floor {
			s.logger.Debug("document below relevance floor",
				"requirement", req.ID, "document", doc.ID, "score", score)
			continue
		}
		results = append(results, scored{
			rel: domain.DocumentRelevance{
				DocumentID: doc.ID,
				Score:      score,
				Reasoning:  fmt.Sprintf("matched terms: %s", strings.Join(matched, ", ")),
			},
			doc: doc,
		})
	}

	// Rank by score, ties broken by document recency then stable id order.
	sort.Slice(results, func(i, j int) bool {
		if results[i].rel.Score != results[j].rel.Score {
			return results[i].rel.Score > results[j].rel.Score
		}
		if !results[i].doc.UpdatedAt.Equal(results[j].doc.UpdatedAt) {
			return results[i].doc.UpdatedAt.After(results[j].doc.UpdatedAt)
		}
		return results[i].doc.ID < results[j].doc.ID
	})

	if len(results) > s.topN {
		results = results[:s.topN]
	}

	out := make([]domain.DocumentRelevance, len(results))
	for i, r := range results {
		out[i] = r.rel
	}
	return out
}
