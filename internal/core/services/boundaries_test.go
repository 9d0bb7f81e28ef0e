package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectName(t *testing.T) {
	tests := []struct {
		tag    string
		extra  []string
		want   string
		wantOK bool
	}{
		{"project/Mobile-App", nil, "mobile-app", true},
		{"#proj/atlas", nil, "atlas", true},
		{"project_x", nil, "x", true},
		{"project", nil, "", false},
		{"project/", nil, "", false},
		{"gardening", nil, "", false},
		{"client:acme", []string{"client:"}, "acme", true},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			name, ok := projectName(tt.tag, tt.extra)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestDetectProjectBoundaries(t *testing.T) {
	boundaries := DetectProjectBoundaries(testCorpus(), testNow, 7*24*time.Hour, nil)

	require.Len(t, boundaries, 2)

	tag := boundaries[0]
	assert.Equal(t, "auth-revamp", tag.Name)
	assert.Equal(t, "tag", string(tag.Kind))
	assert.Equal(t, []string{"auth/oauth-flow.md", "auth/session-handling.md"}, tag.Members)
	assert.Equal(t, daysAgo(60), tag.EarliestAt)
	assert.Equal(t, daysAgo(2), tag.LastModifiedAt)
	assert.True(t, tag.Active)

	folder := boundaries[1]
	assert.Equal(t, "garden", folder.Name)
	assert.Equal(t, "folder", string(folder.Kind))
	assert.Len(t, folder.Members, 3)
	assert.Equal(t, daysAgo(200), folder.EarliestAt)
	assert.Equal(t, daysAgo(50), folder.LastModifiedAt)
	assert.False(t, folder.Active)
}

func TestDetectProjectBoundaries_SingleTaggedDocIgnored(t *testing.T) {
	docs := testCorpus()[:1]
	assert.Empty(t, DetectProjectBoundaries(docs, testNow, time.Hour, nil))
}
