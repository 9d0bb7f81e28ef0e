package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for sercha-notes resources.
const uriScheme = "sercha-notes://"

// registerResources registers the vault overview resources.
// They all read from the context service, so nothing is registered without it.
func (s *Server) registerResources() {
	if s.ports.Context == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "clusters",
		Name:        "clusters",
		Description: "Semantic clusters of the vault with themes and keywords",
		MIMEType:    "application/json",
	}, s.handleClustersResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "projects",
		Name:        "projects",
		Description: "Tag- and folder-derived project groups",
		MIMEType:    "application/json",
	}, s.handleProjectsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Corpus index statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)
}

func (s *Server) handleClustersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	clusters, err := s.ports.Context.Clusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clusters: %w", err)
	}

	type clusterInfo struct {
		ID       string   `json:"id"`
		Theme    string   `json:"theme"`
		Keywords []string `json:"keywords"`
		Members  []string `json:"members"`
	}

	infos := make([]clusterInfo, len(clusters))
	for i, c := range clusters {
		infos[i] = clusterInfo{
			ID:       c.ID,
			Theme:    c.Theme,
			Keywords: c.Keywords,
			Members:  c.Members,
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleProjectsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	projects, err := s.ports.Context.ProjectBoundaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	type projectInfo struct {
		Name           string    `json:"name"`
		Kind           string    `json:"kind"`
		Members        []string  `json:"members"`
		EarliestAt     time.Time `json:"earliest_at"`
		LastModifiedAt time.Time `json:"last_modified_at"`
		Active         bool      `json:"active"`
	}

	infos := make([]projectInfo, len(projects))
	for i, p := range projects {
		infos[i] = projectInfo{
			Name:           p.Name,
			Kind:           string(p.Kind),
			Members:        p.Members,
			EarliestAt:     p.EarliestAt,
			LastModifiedAt: p.LastModifiedAt,
			Active:         p.Active,
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Context.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
