package domain

import "time"

// MatchType records which backend(s) produced a search hit.
type MatchType string

// Match types.
const (
	MatchTypeKeyword  MatchType = "keyword"
	MatchTypeSemantic MatchType = "semantic"
	MatchTypeGraph    MatchType = "graph"
	MatchTypeHybrid   MatchType = "hybrid"
)

// IsValid returns true if the match type is recognised.
func (m MatchType) IsValid() bool {
	switch m {
	case MatchTypeKeyword, MatchTypeSemantic, MatchTypeGraph, MatchTypeHybrid:
		return true
	default:
		return false
	}
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// DocumentID is the matched document.
	DocumentID string `json:"document_id"`

	// Title is the document title, if known.
	Title string `json:"title,omitempty"`

	// Content is the content (or excerpt) the hit refers to.
	Content string `json:"content,omitempty"`

	// Score is the relevance score. Non-negative after fusion.
	Score float64 `json:"score"`

	// MatchType is the backend that produced the hit, or hybrid.
	MatchType MatchType `json:"match_type"`

	// ModifiedAt is the document modification time, zero if unknown.
	ModifiedAt time.Time `json:"modified_at,omitempty"`

	// LinkCount is the number of outbound links.
	LinkCount int `json:"link_count,omitempty"`

	// BacklinkCount is the number of inbound links.
	BacklinkCount int `json:"backlink_count,omitempty"`

	// Excerpt is the query-centred context excerpt.
	Excerpt string `json:"excerpt,omitempty"`

	// Highlighted is Excerpt with query terms wrapped in the highlight marker.
	Highlighted string `json:"highlighted,omitempty"`
}

// SearchOptions configures one hybrid search call.
type SearchOptions struct {
	// Limit is the result cap. Zero uses the configured default.
	Limit int

	// Weights overrides routing. Nil means the router decides.
	Weights *Weights

	// Type bypasses classification when set.
	Type QueryType
}

// SearchResponse is the outcome of a routed hybrid search.
type SearchResponse struct {
	// Decision is the routing decision used for fusion.
	Decision RouterDecision `json:"decision"`

	// Results are ordered by descending score.
	Results []SearchResult `json:"results"`
}
