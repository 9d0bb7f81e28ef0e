package services

import (
	"context"
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

// Ensure ContextEngine implements the interface.
var _ driving.ContextService = (*ContextEngine)(nil)

const (
	// recencyDecayDays is the e-folding time of the recency score.
	recencyDecayDays = 30.0

	semanticWeight = 0.5
	recencyWeight  = 0.3
	linkWeight     = 0.2
)

// snapshot is one immutable build of the corpus index, link graph and
// derived views. Requests read a snapshot without locking.
type snapshot struct {
	docs    []domain.Document
	byID    map[string]int
	index   *CorpusIndex
	graph   *LinkGraph
	builtAt time.Time

	clusterOnce sync.Once
	clusters    []domain.Cluster
	clusterOf   map[string]string
}

func (s *snapshot) document(id string) (domain.Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Document{}, false
	}
	return s.docs[i], true
}

// ContextEngine scores document relevance and assembles context bundles.
// It owns the index caches explicitly: they are built lazily on first use and
// dropped by Invalidate. Corpus changes are NOT tracked; callers that mutate
// the corpus must call Invalidate or risk a stale index.
type ContextEngine struct {
	corpus  driven.CorpusProvider
	context domain.ContextSettings
	search  domain.SearchSettings
	now     func() time.Time
	mu      sync.Mutex
	snap    *snapshot
}

// NewContextEngine creates a context engine over a corpus provider.
func NewContextEngine(corpus driven.CorpusProvider, settings domain.Settings) *ContextEngine {
	return &ContextEngine{
		corpus:  corpus,
		context: settings.Context,
		search:  settings.Search,
		now:     time.Now,
	}
}

// SetClock overrides the time source used for recency and activity.
func (e *ContextEngine) SetClock(now func() time.Time) {
	e.now = now
}

// Invalidate drops every cached index. The next call rebuilds.
func (e *ContextEngine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap != nil {
		logger.Debug("Context engine: invalidating index built at %s", e.snap.builtAt.Format(time.RFC3339))
	}
	e.snap = nil
}

// snapshotKey carries a pinned snapshot of one engine in a context.
type snapshotKey struct{ engine *ContextEngine }

// Pin returns a context that carries the current snapshot. Every read made
// with it uses that snapshot, even after Invalidate.
func (e *ContextEngine) Pin(ctx context.Context) (context.Context, error) {
	if _, ok := ctx.Value(snapshotKey{e}).(*snapshot); ok {
		return ctx, nil
	}
	snap, err := e.snapshot(ctx)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, snapshotKey{e}, snap), nil
}

// snapshot returns the snapshot pinned in ctx, or the current one,
// building it if absent.
func (e *ContextEngine) snapshot(ctx context.Context) (*snapshot, error) {
	if snap, ok := ctx.Value(snapshotKey{e}).(*snapshot); ok {
		return snap, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap != nil {
		return e.snap, nil
	}

	logger.Section("Index Build")
	defer logger.Timed("index build")()

	docs, err := e.corpus.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		logger.Warn("Context engine: corpus is empty")
	}

	snap := &snapshot{
		docs:    docs,
		byID:    make(map[string]int, len(docs)),
		index:   BuildCorpusIndex(docs),
		graph:   BuildLinkGraph(docs),
		builtAt: e.now(),
	}
	for i, d := range docs {
		snap.byID[d.ID] = i
	}
	logger.Debug("Indexed %d documents, %d terms, %d link edges",
		len(docs), snap.index.Terms(), snap.graph.Edges())

	e.snap = snap
	return snap, nil
}

// clustersOf computes clusters for a snapshot once.
func (e *ContextEngine) clustersOf(snap *snapshot) []domain.Cluster {
	snap.clusterOnce.Do(func() {
		snap.clusters = BuildClusters(snap.index, clusterOptionsFrom(e.context))
		snap.clusterOf = make(map[string]string)
		for _, c := range snap.clusters {
			for _, m := range c.Members {
				snap.clusterOf[m] = c.ID
			}
		}
		logger.Debug("Built %d clusters", len(snap.clusters))
	})
	return snap.clusters
}

// Stats returns statistics of the (possibly rebuilt) index.
func (e *ContextEngine) Stats(ctx context.Context) (domain.IndexStats, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return domain.IndexStats{}, err
	}
	return domain.IndexStats{
		Documents: len(snap.docs),
		Terms:     snap.index.Terms(),
		Edges:     snap.graph.Edges(),
		Clusters:  len(e.clustersOf(snap)),
		BuiltAt:   snap.builtAt,
	}, nil
}

// Clusters returns the semantic clusters of the corpus.
func (e *ContextEngine) Clusters(ctx context.Context) ([]domain.Cluster, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.clustersOf(snap), nil
}

// ClusterFor returns the cluster a document belongs to, if any.
func (e *ContextEngine) ClusterFor(ctx context.Context, docID string) (domain.Cluster, bool, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return domain.Cluster{}, false, err
	}
	for _, c := range e.clustersOf(snap) {
		if c.Contains(docID) {
			return c, true, nil
		}
	}
	return domain.Cluster{}, false, nil
}

// Score computes the relevance of docID to query, relative to an optional anchor.
func (e *ContextEngine) Score(ctx context.Context, query, anchorID, docID string) (domain.RelevanceScore, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return domain.RelevanceScore{}, err
	}
	doc, ok := snap.document(docID)
	if !ok {
		return domain.RelevanceScore{}, fmt.Errorf("score %s: %w", docID, domain.ErrNotFound)
	}
	distance := -1
	if anchorID != "" {
		distance = snap.graph.Distance(anchorID, doc.ID)
	}
	return e.score(snap, snap.index.QueryVector(query), doc, distance), nil
}

// score combines semantic, recency and link proximity. distance is the link
// distance from the anchor, -1 when there is no anchor or no path.
func (e *ContextEngine) score(snap *snapshot, queryVec domain.TermVector, doc domain.Document, distance int) domain.RelevanceScore {
	semantic := domain.CosineSimilarity(queryVec, snap.index.Vector(doc.ID)) * 100

	ageDays := doc.Age(e.now()).Hours() / 24
	recency := 100 * math.Exp(-ageDays/recencyDecayDays)

	link := LinkScore(distance)

	return domain.RelevanceScore{
		DocumentID: doc.ID,
		Semantic:   semantic,
		Recency:    recency,
		Link:       link,
		Total:      semanticWeight*semantic + recencyWeight*recency + linkWeight*link,
	}
}

// Related returns up to n documents ranked by relevance to query around anchorID.
// The anchor itself is excluded. n <= 0 returns every candidate.
func (e *ContextEngine) Related(ctx context.Context, query, anchorID string, n int) ([]domain.RelevanceScore, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.related(snap, query, anchorID, n), nil
}

func (e *ContextEngine) related(snap *snapshot, query, anchorID string, n int) []domain.RelevanceScore {
	queryVec := snap.index.QueryVector(query)
	var distances map[string]int
	if anchorID != "" {
		distances = snap.graph.Distances(anchorID)
	}
	scores := make([]domain.RelevanceScore, 0, len(snap.docs))
	for _, doc := range snap.docs {
		if doc.ID == anchorID {
			continue
		}
		distance, ok := distances[doc.ID]
		if !ok {
			distance = -1
		}
		scores = append(scores, e.score(snap, queryVec, doc, distance))
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].DocumentID < scores[j].DocumentID
	})
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores
}

// AssembleContext renders the anchor in full, then appends query-centred
// excerpts of the most relevant documents until the next one would exceed
// the token budget.
func (e *ContextEngine) AssembleContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextBundle, error) {
	if strings.TrimSpace(req.AnchorID) == "" {
		return nil, fmt.Errorf("assemble context: %w: anchor is required", domain.ErrInvalidInput)
	}
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	anchor, ok := snap.document(req.AnchorID)
	if !ok {
		return nil, fmt.Errorf("assemble context: anchor %s: %w", req.AnchorID, domain.ErrNotFound)
	}

	budget := req.TokenBudget
	if budget <= 0 {
		budget = e.context.TokenBudget
	}
	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = anchor.DisplayTitle()
	}

	logger.Section("Context Assembly")
	logger.Debug("Anchor: %s, budget: %d tokens", anchor.ID, budget)

	e.clustersOf(snap)
	bundle := &domain.ContextBundle{
		AnchorID:    anchor.ID,
		TokenBudget: budget,
	}
	seenClusters := make(map[string]bool)
	addCluster := func(docID string) string {
		id := snap.clusterOf[docID]
		if id != "" && !seenClusters[id] {
			seenClusters[id] = true
			bundle.Clusters = append(bundle.Clusters, id)
		}
		return id
	}

	var text strings.Builder
	head := "# " + anchor.DisplayTitle() + "\n\n" + anchor.Content
	text.WriteString(head)
	used := estimateTokens(head)
	bundle.Items = append(bundle.Items, domain.ContextItem{
		DocumentID: anchor.ID,
		Title:      anchor.DisplayTitle(),
		Score:      100,
		Tokens:     used,
		ClusterID:  addCluster(anchor.ID),
	})

	for _, candidate := range e.related(snap, query, anchor.ID, e.context.MaxRelated) {
		doc, _ := snap.document(candidate.DocumentID)
		excerpt := ExtractContext(doc.Content, query, e.search.ExcerptChars)
		section := fmt.Sprintf("\n\n---\n\n## %s (relevance %.1f)\n\n%s", doc.DisplayTitle(), candidate.Total, excerpt)
		tokens := estimateTokens(section)
		if used+tokens > budget {
			logger.Debug("Budget reached before %s (%d + %d > %d)", doc.ID, used, tokens, budget)
			bundle.Truncated = true
			break
		}
		text.WriteString(section)
		used += tokens
		bundle.Items = append(bundle.Items, domain.ContextItem{
			DocumentID: doc.ID,
			Title:      doc.DisplayTitle(),
			Score:      candidate.Total,
			Tokens:     tokens,
			ClusterID:  addCluster(doc.ID),
		})
	}

	bundle.Text = text.String()
	bundle.TokensUsed = used
	logger.Info("Context bundle: %d items, %d/%d tokens, %d clusters",
		len(bundle.Items), used, budget, len(bundle.Clusters))
	return bundle, nil
}

// ProjectBoundaries detects tag- and folder-derived project groups.
func (e *ContextEngine) ProjectBoundaries(ctx context.Context) ([]domain.ProjectBoundary, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	window := time.Duration(e.context.ActiveWindowDays) * 24 * time.Hour
	return DetectProjectBoundaries(snap.docs, e.now(), window, e.context.ProjectTagPrefixes), nil
}
