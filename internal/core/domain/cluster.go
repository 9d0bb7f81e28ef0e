package domain

import "time"

// Cluster is a group of related documents discovered by the cluster builder.
type Cluster struct {
	// ID is the stable identifier within one build (e.g. "cluster-3").
	ID string

	// Members are the member document IDs, seed first.
	Members []string

	// Centroid is the mean of the member vectors.
	Centroid TermVector

	// Theme is the inferred theme label.
	Theme string

	// Keywords are the top centroid terms.
	Keywords []string
}

// Size returns the number of members.
func (c Cluster) Size() int {
	return len(c.Members)
}

// Contains reports whether docID is a member.
func (c Cluster) Contains(docID string) bool {
	for _, m := range c.Members {
		if m == docID {
			return true
		}
	}
	return false
}

// BoundaryKind describes how a project boundary was derived.
type BoundaryKind string

// Boundary kinds.
const (
	// BoundaryKindTag groups documents sharing a project-flavoured tag.
	BoundaryKindTag BoundaryKind = "tag"

	// BoundaryKindFolder groups documents sharing a folder.
	BoundaryKindFolder BoundaryKind = "folder"
)

// ProjectBoundary is a tag- or folder-derived grouping of documents.
type ProjectBoundary struct {
	// Name is the project name (tag remainder or folder path).
	Name string

	// Kind is how the group was derived.
	Kind BoundaryKind

	// Members are the member document IDs.
	Members []string

	// EarliestAt is the earliest member creation time.
	EarliestAt time.Time

	// LastModifiedAt is the most recent member modification time.
	LastModifiedAt time.Time

	// Active is true when a member was modified within the active window.
	Active bool
}
