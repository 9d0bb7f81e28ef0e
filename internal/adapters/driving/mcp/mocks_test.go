package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response *domain.SearchResponse
	err      error
	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.gotQuery = query
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{}, nil
	}
	return m.response, nil
}

// mockRouter is a mock implementation of driving.QueryRouter.
type mockRouter struct {
	decision domain.RouterDecision
}

func (m *mockRouter) Classify(_ string) domain.QueryClassification {
	return m.decision.Classification
}

func (m *mockRouter) Route(_ string) domain.RouterDecision {
	return m.decision
}

func (m *mockRouter) RouteType(_ domain.QueryType) domain.RouterDecision {
	return m.decision
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	bundle   *domain.ContextBundle
	clusters []domain.Cluster
	projects []domain.ProjectBoundary
	stats    domain.IndexStats
	err      error
	gotReq   domain.ContextRequest
}

func (m *mockContextService) Invalidate() {}

func (m *mockContextService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockContextService) Clusters(_ context.Context) ([]domain.Cluster, error) {
	return m.clusters, m.err
}

func (m *mockContextService) Score(_ context.Context, _, _, docID string) (domain.RelevanceScore, error) {
	return domain.RelevanceScore{DocumentID: docID}, m.err
}

func (m *mockContextService) Related(_ context.Context, _, _ string, _ int) ([]domain.RelevanceScore, error) {
	return nil, m.err
}

func (m *mockContextService) AssembleContext(_ context.Context, req domain.ContextRequest) (*domain.ContextBundle, error) {
	m.gotReq = req
	return m.bundle, m.err
}

func (m *mockContextService) ProjectBoundaries(_ context.Context) ([]domain.ProjectBoundary, error) {
	return m.projects, m.err
}
