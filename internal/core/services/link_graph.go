package services

import (
	"path"
	"strings"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// maxLinkHops is the BFS distance beyond which link proximity is flat.
const maxLinkHops = 3

// LinkGraph is the undirected adjacency of documents built from their links.
type LinkGraph struct {
	neighbours map[string]map[string]bool
	outbound   map[string]int
	inbound    map[string]int
	edges      int
}

// BuildLinkGraph resolves every document's link targets and builds the graph.
// Unresolved targets and self links are ignored.
func BuildLinkGraph(docs []domain.Document) *LinkGraph {
	g := &LinkGraph{
		neighbours: make(map[string]map[string]bool, len(docs)),
		outbound:   make(map[string]int, len(docs)),
		inbound:    make(map[string]int, len(docs)),
	}
	resolve := newLinkResolver(docs)

	for _, doc := range docs {
		if g.neighbours[doc.ID] == nil {
			g.neighbours[doc.ID] = make(map[string]bool)
		}
		targets := make(map[string]bool)
		for _, link := range doc.Links {
			target, ok := resolve(link)
			if !ok || target == doc.ID || targets[target] {
				continue
			}
			targets[target] = true
			g.outbound[doc.ID]++
			g.inbound[target]++
			g.connect(doc.ID, target)
		}
	}
	return g
}

func (g *LinkGraph) connect(a, b string) {
	if g.neighbours[a] == nil {
		g.neighbours[a] = make(map[string]bool)
	}
	if g.neighbours[b] == nil {
		g.neighbours[b] = make(map[string]bool)
	}
	if !g.neighbours[a][b] {
		g.edges++
	}
	g.neighbours[a][b] = true
	g.neighbours[b][a] = true
}

// newLinkResolver resolves link targets by exact id, id without extension,
// then case-insensitive base name.
func newLinkResolver(docs []domain.Document) func(string) (string, bool) {
	exact := make(map[string]string, len(docs))
	stem := make(map[string]string, len(docs))
	base := make(map[string]string, len(docs))
	for _, doc := range docs {
		exact[doc.ID] = doc.ID
		noExt := strings.TrimSuffix(doc.ID, path.Ext(doc.ID))
		if _, dup := stem[noExt]; !dup {
			stem[noExt] = doc.ID
		}
		b := strings.ToLower(path.Base(noExt))
		if _, dup := base[b]; !dup {
			base[b] = doc.ID
		}
	}
	return func(link string) (string, bool) {
		link = strings.TrimSpace(link)
		if link == "" {
			return "", false
		}
		if id, ok := exact[link]; ok {
			return id, true
		}
		noExt := strings.TrimSuffix(link, path.Ext(link))
		if id, ok := stem[noExt]; ok {
			return id, true
		}
		id, ok := base[strings.ToLower(path.Base(noExt))]
		return id, ok
	}
}

// Neighbours returns the documents directly linked to id, in either direction.
func (g *LinkGraph) Neighbours(id string) []string {
	out := make([]string, 0, len(g.neighbours[id]))
	for n := range g.neighbours[id] {
		out = append(out, n)
	}
	return out
}

// LinkCount returns the resolved outbound link count of id.
func (g *LinkGraph) LinkCount(id string) int {
	return g.outbound[id]
}

// BacklinkCount returns the resolved inbound link count of id.
func (g *LinkGraph) BacklinkCount(id string) int {
	return g.inbound[id]
}

// Edges returns the number of undirected edges.
func (g *LinkGraph) Edges() int {
	return g.edges
}

// Distance returns the BFS shortest-path length between two documents.
// It returns -1 when no path exists.
func (g *LinkGraph) Distance(from, to string) int {
	if from == to {
		return 0
	}
	if _, ok := g.neighbours[from]; !ok {
		return -1
	}
	visited := map[string]bool{from: true}
	frontier := []string{from}
	for depth := 1; len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for n := range g.neighbours[node] {
				if visited[n] {
					continue
				}
				if n == to {
					return depth
				}
				visited[n] = true
				next = append(next, n)
			}
		}
		frontier = next
	}
	return -1
}

// Within returns every document reachable from id within hops, with its distance.
// A negative hops is unbounded. id itself is not included.
func (g *LinkGraph) Within(id string, hops int) map[string]int {
	dist := map[string]int{}
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for depth := 1; (hops < 0 || depth <= hops) && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for n := range g.neighbours[node] {
				if visited[n] {
					continue
				}
				visited[n] = true
				dist[n] = depth
				next = append(next, n)
			}
		}
		frontier = next
	}
	return dist
}

// Distances runs one BFS from id and returns the distance of every reachable document.
func (g *LinkGraph) Distances(id string) map[string]int {
	return g.Within(id, -1)
}

// LinkScore maps a BFS distance to the link-proximity step score.
func LinkScore(distance int) float64 {
	switch {
	case distance < 0:
		return 0
	case distance <= 1:
		return 100
	case distance == 2:
		return 60
	case distance == maxLinkHops:
		return 30
	default:
		return 10
	}
}
