package domain

import "time"

// RelevanceScore is the breakdown of a document's relevance to a query.
type RelevanceScore struct {
	// DocumentID is the scored document.
	DocumentID string `json:"document_id"`

	// Semantic is cosine(query, document) × 100.
	Semantic float64 `json:"semantic"`

	// Recency is 100 × exp(−age_days / 30).
	Recency float64 `json:"recency"`

	// Link is the link-proximity step score relative to the anchor.
	Link float64 `json:"link"`

	// Total is 0.5×Semantic + 0.3×Recency + 0.2×Link.
	Total float64 `json:"total"`
}

// ContextRequest asks for a token-bounded context bundle.
type ContextRequest struct {
	// AnchorID is the document the bundle is built around.
	AnchorID string

	// Query steers relevance of related documents.
	Query string

	// TokenBudget bounds the bundle. Zero uses the configured default.
	TokenBudget int
}

// ContextItem is one document that contributed to a bundle.
type ContextItem struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	Tokens     int     `json:"tokens"`
	ClusterID  string  `json:"cluster_id,omitempty"`
}

// ContextBundle is assembled context text plus provenance.
type ContextBundle struct {
	// Text is the rendered context.
	Text string `json:"text"`

	// AnchorID is the anchor document.
	AnchorID string `json:"anchor_id"`

	// Items are the contributing documents, anchor first.
	Items []ContextItem `json:"items"`

	// Clusters are the ids of clusters that contributed, in first-seen order.
	Clusters []string `json:"clusters"`

	// TokensUsed is the estimated token count of Text.
	TokensUsed int `json:"tokens_used"`

	// TokenBudget is the budget the bundle was assembled under.
	TokenBudget int `json:"token_budget"`

	// Truncated is true when a candidate was dropped for lack of budget.
	Truncated bool `json:"truncated"`
}

// IndexStats describes the currently cached index.
type IndexStats struct {
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Edges     int       `json:"edges"`
	Clusters  int       `json:"clusters"`
	BuiltAt   time.Time `json:"built_at"`
}
