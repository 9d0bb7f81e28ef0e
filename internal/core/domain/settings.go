package domain

import (
	"fmt"
	"time"
)

// SearchSettings holds hybrid search configuration.
type SearchSettings struct {
	// ResultCap is the default maximum number of results.
	ResultCap int

	// FreshnessBoost is the freshness boost factor.
	FreshnessBoost float64

	// AuthorityBoost is the authority boost factor.
	AuthorityBoost float64

	// FreshnessWindowDays is the window within which documents count as fresh.
	FreshnessWindowDays int

	// ExcerptChars is the excerpt size in characters.
	ExcerptChars int

	// HighlightMarker wraps matched terms for display.
	HighlightMarker string
}

// FreshnessWindow returns the freshness window as a duration.
func (s SearchSettings) FreshnessWindow() time.Duration {
	return time.Duration(s.FreshnessWindowDays) * 24 * time.Hour
}

// ContextSettings holds Context Engine configuration.
type ContextSettings struct {
	// ClusterThreshold is the cosine similarity a document needs to join a seed.
	ClusterThreshold float64

	// MinClusterSize discards smaller clusters.
	MinClusterSize int

	// MaxClusterSize caps members per cluster.
	MaxClusterSize int

	// MaxClusters caps the number of clusters.
	MaxClusters int

	// TokenBudget is the default context bundle budget.
	TokenBudget int

	// MaxRelated caps the candidates considered for a bundle.
	MaxRelated int

	// ActiveWindowDays marks a project active when touched within this window.
	ActiveWindowDays int

	// ProjectTagPrefixes are extra tag prefixes treated as project tags.
	ProjectTagPrefixes []string
}

// BenchSettings holds Benchmark Runner configuration.
type BenchSettings struct {
	// Concurrency bounds parallel agent calls.
	Concurrency int

	// QueryTimeout is the per-query ceiling.
	QueryTimeout time.Duration

	// RequestsPerSecond paces agent calls. Zero disables pacing.
	RequestsPerSecond float64

	// TopK is the K used for Precision@K and nDCG@K.
	TopK int
}

// GateSettings holds the quality gate thresholds.
type GateSettings struct {
	PrecisionAtK float64
	MRR          float64
	NDCGAtK      float64
	NextStepRate float64
	MaxECE       float64
	MaxBrier     float64
}

// VaultSettings locates the markdown vault.
type VaultSettings struct {
	// Path is the vault root. Empty means the working directory.
	Path string
}

// Settings holds all retrieval-core settings.
type Settings struct {
	Vault   VaultSettings
	Search  SearchSettings
	Context ContextSettings
	Bench   BenchSettings
	Gates   GateSettings
}

// DefaultSettings returns settings with the documented defaults.
// The cluster threshold, size caps and boost factors are untuned defaults.
func DefaultSettings() Settings {
	return Settings{
		Search: SearchSettings{
			ResultCap:           10,
			FreshnessBoost:      0.1,
			AuthorityBoost:      0.15,
			FreshnessWindowDays: 30,
			ExcerptChars:        300,
			HighlightMarker:     "**",
		},
		Context: ContextSettings{
			ClusterThreshold: 0.3,
			MinClusterSize:   2,
			MaxClusterSize:   15,
			MaxClusters:      20,
			TokenBudget:      2000,
			MaxRelated:       10,
			ActiveWindowDays: 7,
		},
		Bench: BenchSettings{
			Concurrency:  4,
			QueryTimeout: 30 * time.Second,
			TopK:         5,
		},
		Gates: GateSettings{
			PrecisionAtK: 0.6,
			MRR:          0.5,
			NDCGAtK:      0.6,
			NextStepRate: 0.9,
			MaxECE:       0.15,
			MaxBrier:     0.25,
		},
	}
}

// Validate checks settings for values the core cannot work with.
func (s Settings) Validate() error {
	switch {
	case s.Search.ResultCap <= 0:
		return fmt.Errorf("%w: search result cap must be positive", ErrInvalidInput)
	case s.Search.FreshnessBoost < 0 || s.Search.AuthorityBoost < 0:
		return fmt.Errorf("%w: boost factors must be non-negative", ErrInvalidInput)
	case s.Context.ClusterThreshold < 0 || s.Context.ClusterThreshold > 1:
		return fmt.Errorf("%w: cluster threshold must be within [0,1]", ErrInvalidInput)
	case s.Context.MinClusterSize < 1 || s.Context.MaxClusterSize < s.Context.MinClusterSize:
		return fmt.Errorf("%w: cluster size bounds are inconsistent", ErrInvalidInput)
	case s.Bench.Concurrency <= 0:
		return fmt.Errorf("%w: bench concurrency must be positive", ErrInvalidInput)
	case s.Bench.TopK <= 0:
		return fmt.Errorf("%w: bench top_k must be positive", ErrInvalidInput)
	}
	return nil
}
