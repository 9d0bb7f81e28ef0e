package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// clusterKeywords is the number of centroid terms kept per cluster.
const clusterKeywords = 5

// ClusterOptions bounds the greedy cluster pass.
type ClusterOptions struct {
	Threshold float64
	MinSize   int
	MaxSize   int
	MaxCount  int
}

// clusterOptionsFrom maps context settings to cluster options.
func clusterOptionsFrom(s domain.ContextSettings) ClusterOptions {
	return ClusterOptions{
		Threshold: s.ClusterThreshold,
		MinSize:   s.MinClusterSize,
		MaxSize:   s.MaxClusterSize,
		MaxCount:  s.MaxClusters,
	}
}

// BuildClusters groups documents in one greedy pass over corpus order.
// An unclustered document seeds a cluster; each later unclustered document
// more similar than the threshold to the seed joins until the size cap.
// Clusters below the minimum size are discarded.
func BuildClusters(idx *CorpusIndex, opts ClusterOptions) []domain.Cluster {
	order := idx.Documents()
	clustered := make(map[string]bool, len(order))
	var clusters []domain.Cluster

	for i, seed := range order {
		if len(clusters) >= opts.MaxCount {
			break
		}
		if clustered[seed] {
			continue
		}
		seedVec := idx.Vector(seed)
		if len(seedVec) == 0 {
			continue
		}

		members := []string{seed}
		for _, candidate := range order[i+1:] {
			if len(members) >= opts.MaxSize {
				break
			}
			if clustered[candidate] {
				continue
			}
			if domain.CosineSimilarity(seedVec, idx.Vector(candidate)) > opts.Threshold {
				members = append(members, candidate)
			}
		}

		if len(members) < opts.MinSize {
			continue
		}
		for _, m := range members {
			clustered[m] = true
		}
		clusters = append(clusters, newCluster(len(clusters)+1, members, idx))
	}
	return clusters
}

func newCluster(n int, members []string, idx *CorpusIndex) domain.Cluster {
	vectors := make([]domain.TermVector, len(members))
	for i, m := range members {
		vectors[i] = idx.Vector(m)
	}
	centroid := domain.Mean(vectors)

	top := centroid.Top(clusterKeywords)
	keywords := make([]string, len(top))
	for i, tw := range top {
		keywords[i] = tw.Term
	}

	return domain.Cluster{
		ID:       fmt.Sprintf("cluster-%d", n),
		Members:  members,
		Centroid: centroid,
		Theme:    inferTheme(keywords),
		Keywords: keywords,
	}
}

// inferTheme capitalises the top keyword.
func inferTheme(keywords []string) string {
	if len(keywords) == 0 {
		return "Miscellaneous"
	}
	first := keywords[0]
	r, size := utf8.DecodeRuneInString(first)
	return string(unicode.ToUpper(r)) + strings.ToLower(first[size:])
}
