package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or keywords to search the vault for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Type  string `json:"type,omitempty" jsonschema:"force a query type: technical, project, research or maintenance"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Strategy string               `json:"strategy"`
	Type     string               `json:"type"`
	Weights  domain.Weights       `json:"weights"`
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	MatchType   string  `json:"match_type"`
	Excerpt     string  `json:"excerpt,omitempty"`
	Highlighted string  `json:"highlighted,omitempty"`
}

// ClassifyInput is the input schema for the classify_query tool.
type ClassifyInput struct {
	Query string `json:"query" jsonschema:"the query to classify"`
}

// ClassifyOutput is the output schema for the classify_query tool.
type ClassifyOutput struct {
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	Signals    []string       `json:"signals"`
	Strategy   string         `json:"strategy"`
	Weights    domain.Weights `json:"weights"`
	Rationale  string         `json:"rationale"`
}

// ContextInput is the input schema for the assemble_context tool.
type ContextInput struct {
	AnchorID    string `json:"anchor_id" jsonschema:"id (vault-relative path) of the note to build context around"`
	Query       string `json:"query,omitempty" jsonschema:"optional query used to rank related notes"`
	TokenBudget int    `json:"token_budget,omitempty" jsonschema:"maximum estimated tokens in the bundle (default from settings)"`
}

// ContextOutput is the output schema for the assemble_context tool.
type ContextOutput struct {
	Text       string               `json:"text"`
	Items      []domain.ContextItem `json:"items"`
	Clusters   []string             `json:"clusters"`
	TokensUsed int                  `json:"tokens_used"`
	Truncated  bool                 `json:"truncated"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the notes vault with routed hybrid retrieval",
	}, s.handleSearch)

	if s.ports.Router != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "classify_query",
			Description: "Classify a query and show the retrieval strategy it would use",
		}, s.handleClassify)
	}

	if s.ports.Context != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "assemble_context",
			Description: "Assemble a token-bounded context bundle around a note",
		}, s.handleAssembleContext)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{Limit: limit}
	if input.Type != "" {
		qt, err := domain.ParseQueryType(input.Type)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		opts.Type = qt
	}

	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search: %w", err)
	}

	output := SearchOutput{
		Strategy: string(resp.Decision.Strategy),
		Type:     string(resp.Decision.Classification.Type),
		Weights:  resp.Decision.Weights,
		Results:  make([]SearchResultOutput, len(resp.Results)),
		Count:    len(resp.Results),
	}

	for i := range resp.Results {
		r := resp.Results[i]
		output.Results[i] = SearchResultOutput{
			DocumentID:  r.DocumentID,
			Title:       r.Title,
			Score:       r.Score,
			MatchType:   string(r.MatchType),
			Excerpt:     r.Excerpt,
			Highlighted: r.Highlighted,
		}
	}

	return nil, output, nil
}

func (s *Server) handleClassify(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	d := s.ports.Router.Route(input.Query)
	return nil, ClassifyOutput{
		Type:       string(d.Classification.Type),
		Confidence: d.Classification.Confidence,
		Signals:    d.Classification.Signals,
		Strategy:   string(d.Strategy),
		Weights:    d.Weights,
		Rationale:  d.Rationale,
	}, nil
}

func (s *Server) handleAssembleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	bundle, err := s.ports.Context.AssembleContext(ctx, domain.ContextRequest{
		AnchorID:    input.AnchorID,
		Query:       input.Query,
		TokenBudget: input.TokenBudget,
	})
	if err != nil {
		return nil, ContextOutput{}, err
	}

	return nil, ContextOutput{
		Text:       bundle.Text,
		Items:      bundle.Items,
		Clusters:   bundle.Clusters,
		TokensUsed: bundle.TokensUsed,
		Truncated:  bundle.Truncated,
	}, nil
}
