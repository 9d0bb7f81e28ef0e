package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 10, s.Search.ResultCap)
	assert.Equal(t, 0.1, s.Search.FreshnessBoost)
	assert.Equal(t, 0.15, s.Search.AuthorityBoost)
	assert.Equal(t, 30*24*time.Hour, s.Search.FreshnessWindow())
	assert.Equal(t, 0.3, s.Context.ClusterThreshold)
	assert.Equal(t, 2, s.Context.MinClusterSize)
	assert.Equal(t, 15, s.Context.MaxClusterSize)
	assert.Equal(t, 20, s.Context.MaxClusters)
	assert.Equal(t, 7, s.Context.ActiveWindowDays)
	assert.Equal(t, 30*time.Second, s.Bench.QueryTimeout)
	require.NoError(t, s.Validate())
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero result cap", func(s *Settings) { s.Search.ResultCap = 0 }},
		{"negative boost", func(s *Settings) { s.Search.AuthorityBoost = -1 }},
		{"threshold above one", func(s *Settings) { s.Context.ClusterThreshold = 1.5 }},
		{"max below min", func(s *Settings) { s.Context.MaxClusterSize = 1 }},
		{"zero concurrency", func(s *Settings) { s.Bench.Concurrency = 0 }},
		{"zero top k", func(s *Settings) { s.Bench.TopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}
