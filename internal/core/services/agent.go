package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
)

// Ensure RetrievalAgent implements the interface.
var _ driven.Agent = (*RetrievalAgent)(nil)

const (
	// abstainConfidence is reported when nothing was retrieved.
	abstainConfidence = 0.1

	// agentExcerptChars is the excerpt size quoted per cited note.
	agentExcerptChars = 160
)

// RetrievalAgent answers by listing hybrid search hits as cited notes.
// It produces no prose of its own and exists to benchmark retrieval.
type RetrievalAgent struct {
	search driving.SearchService
	limit  int
}

// NewRetrievalAgent creates a retrieval-only agent over a search service.
func NewRetrievalAgent(search driving.SearchService, limit int) *RetrievalAgent {
	return &RetrievalAgent{search: search, limit: limit}
}

// Answer searches for the query and cites every hit.
func (a *RetrievalAgent) Answer(ctx context.Context, query string) (domain.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.AgentResponse{}, err
	}
	resp, err := a.search.Search(ctx, query, domain.SearchOptions{Limit: a.limit})
	if err != nil {
		return domain.AgentResponse{}, fmt.Errorf("retrieval agent: %w", err)
	}

	if len(resp.Results) == 0 {
		return domain.AgentResponse{
			Text:               "No notes in the vault answer this question.\n\nNext step: capture a note on this topic.",
			RetrievedDocuments: []string{},
			Confidence:         abstainConfidence,
		}, nil
	}

	var b strings.Builder
	ids := make([]string, len(resp.Results))
	fmt.Fprintf(&b, "Relevant notes (%s strategy):\n\n", resp.Decision.Strategy)
	for i, r := range resp.Results {
		ids[i] = r.DocumentID
		excerpt := ExtractContext(r.Content, query, agentExcerptChars)
		excerpt = strings.Join(strings.Fields(excerpt), " ")
		fmt.Fprintf(&b, "- [[%s]] (%.2f) %s\n", r.DocumentID, r.Score, excerpt)
	}
	fmt.Fprintf(&b, "\nNext step: open [[%s]] and confirm it answers the question.", ids[0])

	return domain.AgentResponse{
		Text:               b.String(),
		RetrievedDocuments: ids,
		Confidence:         0.3 + 0.6*math.Min(resp.Results[0].Score, 1),
	}, nil
}
