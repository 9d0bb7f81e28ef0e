package domain

import (
	"path"
	"strings"
	"time"
)

// Document represents one indexed note.
// A Document is an immutable snapshot for the lifetime of an index build.
type Document struct {
	// ID is the unique identifier, usually the vault-relative path.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the raw note text (markdown).
	Content string

	// Links are the outbound link targets as written in the note.
	Links []string

	// Tags are the note tags without the leading '#'.
	Tags []string

	// Folder is the vault-relative folder. Empty means the vault root.
	Folder string

	// CreatedAt is when the note was created.
	CreatedAt time.Time

	// ModifiedAt is when the note was last modified.
	ModifiedAt time.Time
}

// DisplayTitle returns the title, falling back to the file name without extension.
func (d Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	base := path.Base(d.ID)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Age returns how long ago the document was modified relative to now.
// Future modification times yield zero.
func (d Document) Age(now time.Time) time.Duration {
	age := now.Sub(d.ModifiedAt)
	if age < 0 {
		return 0
	}
	return age
}

// HasTag reports whether the document carries the tag (case-insensitive).
func (d Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
