package domain

import (
	"fmt"
	"math"
)

// QueryType is the intent class a query is routed by.
type QueryType string

// Query types.
const (
	// QueryTypeTechnical covers how-to and implementation questions.
	QueryTypeTechnical QueryType = "technical"

	// QueryTypeProject covers status and progress of ongoing work.
	QueryTypeProject QueryType = "project"

	// QueryTypeResearch covers exploratory and comparative questions.
	QueryTypeResearch QueryType = "research"

	// QueryTypeMaintenance covers vault upkeep: stale, broken or duplicate notes.
	QueryTypeMaintenance QueryType = "maintenance"
)

// QueryTypes lists every query type in tie-break order.
func QueryTypes() []QueryType {
	return []QueryType{QueryTypeTechnical, QueryTypeProject, QueryTypeResearch, QueryTypeMaintenance}
}

// IsValid returns true if the query type is recognised.
func (t QueryType) IsValid() bool {
	switch t {
	case QueryTypeTechnical, QueryTypeProject, QueryTypeResearch, QueryTypeMaintenance:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t QueryType) String() string {
	return string(t)
}

// ParseQueryType parses a query type, returning ErrInvalidInput for unknown values.
func ParseQueryType(s string) (QueryType, error) {
	t := QueryType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown query type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// QueryClassification is the router's classification of a query.
type QueryClassification struct {
	// Type is the winning query type.
	Type QueryType `json:"type"`

	// Confidence is the share of matched signals that belong to Type, in [0,1].
	Confidence float64 `json:"confidence"`

	// Signals are up to five matched signal phrases.
	Signals []string `json:"signals"`
}

// Weights is the retrieval weight triple used for score fusion.
type Weights struct {
	Keyword  float64 `json:"keyword"`
	Semantic float64 `json:"semantic"`
	Graph    float64 `json:"graph"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Keyword + w.Semantic + w.Graph
}

// Validate checks the weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	if w.Keyword < 0 || w.Semantic < 0 || w.Graph < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidInput)
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %.3f, want 1.0", ErrInvalidInput, w.Sum())
	}
	return nil
}

// StrategyID names a retrieval strategy.
type StrategyID string

// Retrieval strategies.
const (
	StrategySemanticFirst  StrategyID = "semantic_first"
	StrategyProjectContext StrategyID = "project_context"
	StrategyGraphDiscovery StrategyID = "graph_discovery"
	StrategyKeywordExact   StrategyID = "keyword_exact"

	// StrategyCustom marks caller-supplied weights.
	StrategyCustom StrategyID = "custom"
)

// RouterDecision is the strategy chosen for a query.
type RouterDecision struct {
	// Classification is the classification the decision was derived from.
	Classification QueryClassification `json:"classification"`

	// Strategy is the strategy id.
	Strategy StrategyID `json:"strategy"`

	// Weights is the fusion weight triple, summing to 1.0.
	Weights Weights `json:"weights"`

	// Rationale is a one-line explanation.
	Rationale string `json:"rationale"`
}
