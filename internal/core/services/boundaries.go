package services

import (
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

const (
	minTagGroupSize    = 2
	minFolderGroupSize = 3
)

// projectTagPrefixes mark a tag as project-flavoured.
var projectTagPrefixes = []string{"project/", "project-", "project_", "proj/"}

// projectName returns the project a tag names, if it is a project tag.
func projectName(tag string, extra []string) (string, bool) {
	t := strings.ToLower(strings.TrimPrefix(tag, "#"))
	prefixes := append(append([]string{}, projectTagPrefixes...), extra...)
	for _, p := range prefixes {
		p = strings.ToLower(p)
		if p != "" && strings.HasPrefix(t, p) && len(t) > len(p) {
			return t[len(p):], true
		}
	}
	return "", false
}

// DetectProjectBoundaries groups documents into projects.
// Tag groups need two members and win on overlap; folder groups need
// three members not already claimed by a tag group.
func DetectProjectBoundaries(
	docs []domain.Document, now time.Time, activeWindow time.Duration, extraPrefixes []string,
) []domain.ProjectBoundary {
	byTag := make(map[string][]domain.Document)
	var tagOrder []string
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tag := range doc.Tags {
			name, ok := projectName(tag, extraPrefixes)
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			if _, exists := byTag[name]; !exists {
				tagOrder = append(tagOrder, name)
			}
			byTag[name] = append(byTag[name], doc)
		}
	}

	var boundaries []domain.ProjectBoundary
	claimed := make(map[string]bool)
	for _, name := range tagOrder {
		members := byTag[name]
		if len(members) < minTagGroupSize {
			continue
		}
		for _, m := range members {
			claimed[m.ID] = true
		}
		boundaries = append(boundaries, newBoundary(name, domain.BoundaryKindTag, members, now, activeWindow))
	}

	byFolder := make(map[string][]domain.Document)
	var folderOrder []string
	for _, doc := range docs {
		if doc.Folder == "" || claimed[doc.ID] {
			continue
		}
		if _, exists := byFolder[doc.Folder]; !exists {
			folderOrder = append(folderOrder, doc.Folder)
		}
		byFolder[doc.Folder] = append(byFolder[doc.Folder], doc)
	}
	for _, folder := range folderOrder {
		members := byFolder[folder]
		if len(members) < minFolderGroupSize {
			continue
		}
		boundaries = append(boundaries, newBoundary(folder, domain.BoundaryKindFolder, members, now, activeWindow))
	}

	sort.SliceStable(boundaries, func(i, j int) bool {
		return boundaries[i].LastModifiedAt.After(boundaries[j].LastModifiedAt)
	})
	return boundaries
}

func newBoundary(
	name string, kind domain.BoundaryKind, members []domain.Document, now time.Time, activeWindow time.Duration,
) domain.ProjectBoundary {
	b := domain.ProjectBoundary{
		Name:    name,
		Kind:    kind,
		Members: make([]string, len(members)),
	}
	for i, m := range members {
		b.Members[i] = m.ID
		if b.EarliestAt.IsZero() || (!m.CreatedAt.IsZero() && m.CreatedAt.Before(b.EarliestAt)) {
			b.EarliestAt = m.CreatedAt
		}
		if m.ModifiedAt.After(b.LastModifiedAt) {
			b.LastModifiedAt = m.ModifiedAt
		}
	}
	b.Active = !b.LastModifiedAt.IsZero() && now.Sub(b.LastModifiedAt) <= activeWindow
	return b
}
