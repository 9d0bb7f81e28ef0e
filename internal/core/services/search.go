package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// Ensure HybridSearchService implements the interface.
var _ driving.SearchService = (*HybridSearchService)(nil)

const (
	// pathMatchBoost applies when a query term appears in the document id.
	pathMatchBoost = 1.2

	// densityBoost applies when query terms occur more than densityThreshold times.
	densityBoost     = 1.15
	densityThreshold = 5

	// authorityThreshold is the combined link count above which authority applies.
	authorityThreshold = 5
	authoritySaturate  = 10.0
)

// backendResult is one backend's contribution to fusion.
type backendResult struct {
	kind   domain.MatchType
	weight float64
	hits   []domain.SearchResult
	err    error
	used   bool
}

// fusedHit accumulates a document across backends.
type fusedHit struct {
	result domain.SearchResult
	score  float64
}

// HybridSearchService fans out to keyword, semantic and graph backends
// concurrently, fuses their scores by routing weights, then reranks and
// boosts the fused list.
type HybridSearchService struct {
	router   driving.QueryRouter
	keyword  driven.KeywordSearch
	semantic driven.SemanticSearch
	graph    driven.GraphSearch
	settings domain.SearchSettings
	now      func() time.Time
}

// NewHybridSearchService creates a new hybrid search service.
// Any backend may be nil; a nil backend contributes no hits.
func NewHybridSearchService(
	router driving.QueryRouter,
	keyword driven.KeywordSearch,
	semantic driven.SemanticSearch,
	graph driven.GraphSearch,
	settings domain.SearchSettings,
) *HybridSearchService {
	if router == nil {
		router = NewQueryRouter()
	}
	return &HybridSearchService{
		router:   router,
		keyword:  keyword,
		semantic: semantic,
		graph:    graph,
		settings: settings,
		now:      time.Now,
	}
}

// SetClock overrides the time source used by the freshness boost.
func (s *HybridSearchService) SetClock(now func() time.Time) {
	s.now = now
}

// Search routes the query, fans out to the retrieval backends and fuses the hits.
func (s *HybridSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Hybrid Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.SearchResponse{Results: []domain.SearchResult{}}, nil
	}

	decision := s.decide(query, opts)
	logger.Info("Strategy: %s weights=%+v (%s)", decision.Strategy, decision.Weights, decision.Rationale)

	results, err := s.HybridSearch(ctx, query, decision.Weights, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &domain.SearchResponse{Decision: decision, Results: results}, nil
}

func (s *HybridSearchService) decide(query string, opts domain.SearchOptions) domain.RouterDecision {
	switch {
	case opts.Weights != nil:
		return domain.RouterDecision{
			Classification: s.router.Classify(query),
			Strategy:       domain.StrategyCustom,
			Weights:        *opts.Weights,
			Rationale:      "caller-supplied weights",
		}
	case opts.Type.IsValid():
		return s.router.RouteType(opts.Type)
	default:
		return s.router.Route(query)
	}
}

// HybridSearch fuses backend hits under the given weights and returns at
// most limit results ordered by descending final score.
func (s *HybridSearchService) HybridSearch(
	ctx context.Context, query string, weights domain.Weights, limit int,
) ([]domain.SearchResult, error) {
	if s.keyword == nil && s.semantic == nil && s.graph == nil {
		return nil, domain.ErrNoBackends
	}
	if limit <= 0 {
		limit = s.settings.ResultCap
	}
	if limit <= 0 {
		limit = domain.DefaultSettings().Search.ResultCap
	}

	ctx = s.pin(ctx)
	backends := s.fanOut(ctx, query, weights)
	if err := allFailed(backends); err != nil {
		logger.Warn("Hybrid search: every backend failed")
		return nil, err
	}

	fused := fuse(backends)
	logger.Debug("Fused %d distinct documents", len(fused))

	terms := queryTerms(query)
	now := s.now()
	results := make([]domain.SearchResult, 0, len(fused))
	for _, f := range fused {
		score := rerank(f.score, f.result, terms)
		score = s.boost(score, f.result, now)
		r := f.result
		r.Score = score
		if r.Content != "" && r.Excerpt == "" {
			r.Excerpt = ExtractContext(r.Content, query, s.settings.ExcerptChars)
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		if results[i].Excerpt != "" {
			results[i].Highlighted = Highlight(results[i].Excerpt, query, s.settings.HighlightMarker)
		}
	}
	logger.Info("Final results: %d", len(results))
	return results, nil
}

// pin lets backends sharing an index read one snapshot for the whole query.
// A pin failure is logged; the backends then report their own errors.
func (s *HybridSearchService) pin(ctx context.Context) context.Context {
	for _, b := range []any{s.keyword, s.semantic, s.graph} {
		p, ok := b.(driven.SnapshotPinner)
		if !ok {
			continue
		}
		pinned, err := p.Pin(ctx)
		if err != nil {
			logger.Warn("Hybrid search: pin index snapshot: %v", err)
			continue
		}
		ctx = pinned
	}
	return ctx
}

// fanOut runs every present backend concurrently and waits for all.
// Each goroutine writes only its own slot, so no locking is needed.
func (s *HybridSearchService) fanOut(ctx context.Context, query string, w domain.Weights) []backendResult {
	backends := []backendResult{
		{kind: domain.MatchTypeKeyword, weight: w.Keyword},
		{kind: domain.MatchTypeSemantic, weight: w.Semantic},
		{kind: domain.MatchTypeGraph, weight: w.Graph},
	}
	calls := []func() ([]domain.SearchResult, error){
		nil, nil, nil,
	}
	if s.keyword != nil {
		calls[0] = func() ([]domain.SearchResult, error) { return s.keyword.KeywordSearch(ctx, query) }
	}
	if s.semantic != nil {
		calls[1] = func() ([]domain.SearchResult, error) { return s.semantic.SemanticSearch(ctx, query) }
	}
	if s.graph != nil {
		calls[2] = func() ([]domain.SearchResult, error) { return s.graph.GraphSearch(ctx, query) }
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		if call == nil {
			logger.Debug("%s backend not configured, contributing no hits", backends[i].kind)
			continue
		}
		backends[i].used = true
		wg.Add(1)
		go func(i int, call func() ([]domain.SearchResult, error)) {
			defer wg.Done()
			backends[i].hits, backends[i].err = call()
		}(i, call)
	}
	wg.Wait()

	for i := range backends {
		b := &backends[i]
		if !b.used {
			continue
		}
		if b.err != nil {
			logger.Warn("%s backend failed: %v (contributing no hits)", b.kind, b.err)
			b.hits = nil
			continue
		}
		logger.Debug("%s backend: %d hits", b.kind, len(b.hits))
	}
	return backends
}

// allFailed returns ErrBackendFailed when every used backend errored.
func allFailed(backends []backendResult) error {
	var errs []error
	used := 0
	for _, b := range backends {
		if !b.used {
			continue
		}
		used++
		if b.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.kind, b.err))
		}
	}
	if used > 0 && len(errs) == used {
		return fmt.Errorf("%w: %w", domain.ErrBackendFailed, errors.Join(errs...))
	}
	return nil
}

// fuse accumulates score × weight per document. A document returned by
// more than one backend becomes a hybrid match.
func fuse(backends []backendResult) []fusedHit {
	byID := make(map[string]*fusedHit)
	var order []string

	for _, b := range backends {
		best := make(map[string]domain.SearchResult, len(b.hits))
		var ids []string
		for _, hit := range b.hits {
			if hit.DocumentID == "" {
				continue
			}
			prev, seen := best[hit.DocumentID]
			if !seen {
				ids = append(ids, hit.DocumentID)
			}
			if !seen || finite(hit.Score) > finite(prev.Score) {
				best[hit.DocumentID] = hit
			}
		}

		for _, id := range ids {
			hit := best[id]
			contribution := finite(hit.Score) * b.weight
			f, ok := byID[id]
			if !ok {
				hit.MatchType = b.kind
				byID[id] = &fusedHit{result: hit, score: contribution}
				order = append(order, id)
				continue
			}
			f.score += contribution
			if f.result.MatchType != b.kind {
				f.result.MatchType = domain.MatchTypeHybrid
			}
			mergeMetadata(&f.result, hit)
		}
	}

	fused := make([]fusedHit, 0, len(order))
	for _, id := range order {
		f := byID[id]
		if f.score < 0 {
			f.score = 0
		}
		fused = append(fused, *f)
	}
	return fused
}

// mergeMetadata fills fields the first backend left empty.
func mergeMetadata(dst *domain.SearchResult, src domain.SearchResult) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(src.Content) > len(dst.Content) {
		dst.Content = src.Content
	}
	if dst.ModifiedAt.IsZero() {
		dst.ModifiedAt = src.ModifiedAt
	}
	if src.LinkCount > dst.LinkCount {
		dst.LinkCount = src.LinkCount
	}
	if src.BacklinkCount > dst.BacklinkCount {
		dst.BacklinkCount = src.BacklinkCount
	}
}

// finite maps NaN, ±Inf and negative scores to 0.
func finite(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}

// rerank applies the independent path-match and term-density boosts.
func rerank(score float64, r domain.SearchResult, terms []string) float64 {
	if len(terms) == 0 {
		return score
	}
	id := strings.ToLower(r.DocumentID)
	content := strings.ToLower(r.Content)

	inPath := false
	occurrences := 0
	for _, t := range terms {
		if strings.Contains(id, t) {
			inPath = true
		}
		occurrences += strings.Count(content, t)
	}
	if inPath {
		score *= pathMatchBoost
	}
	if occurrences > densityThreshold {
		score *= densityBoost
	}
	return score
}

// boost applies the freshness and authority boosts.
func (s *HybridSearchService) boost(score float64, r domain.SearchResult, now time.Time) float64 {
	window := s.settings.FreshnessWindow()
	if !r.ModifiedAt.IsZero() && window > 0 {
		age := now.Sub(r.ModifiedAt)
		if age < 0 {
			age = 0
		}
		if age < window {
			score *= 1 + s.settings.FreshnessBoost*(1-float64(age)/float64(window))
		}
	}

	links := r.LinkCount + r.BacklinkCount
	if links > authorityThreshold {
		score *= 1 + s.settings.AuthorityBoost*math.Min(float64(links)/authoritySaturate, 1)
	}
	return score
}
