package vault

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// Ensure Vault implements the interface.
var _ driven.CorpusProvider = (*Vault)(nil)

// maxNoteBytes caps how much of a single note is read.
const maxNoteBytes = 4 << 20

var (
	wikiLinkRe     = regexp.MustCompile(`!?\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|[^\]]*)?\]\]`)
	markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
	inlineTagRe    = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)
	headingRe      = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)
	fencedCodeRe   = regexp.MustCompile("(?s)```.*?```")
)

// Vault reads markdown notes from a directory tree.
type Vault struct {
	root string
}

// New creates a vault rooted at dir.
func New(dir string) *Vault {
	return &Vault{root: dir}
}

// Root returns the vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Documents walks the vault and returns every note sorted by ID.
// Unreadable notes are skipped with a warning; a missing root is an error.
func (v *Vault) Documents(ctx context.Context) ([]domain.Document, error) {
	info, err := os.Stat(v.root)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault %s: %w", v.root, domain.ErrInvalidInput)
	}

	logger.Section("Vault Load")
	start := time.Now()

	var docs []domain.Document
	skipped := 0
	err = filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isNote(d.Name()) {
			return nil
		}

		doc, err := v.load(p, d)
		if err != nil {
			logger.Warn("skipping %s: %v", p, err)
			skipped++
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault %s: %w", v.root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	logger.Info("Loaded %d notes from %s in %s (%d skipped)", len(docs), v.root, time.Since(start), skipped)
	return docs, nil
}

// load reads and parses one note.
func (v *Vault) load(p string, d fs.DirEntry) (domain.Document, error) {
	info, err := d.Info()
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat note: %w", err)
	}
	if info.Size() > maxNoteBytes {
		return domain.Document{}, fmt.Errorf("note is %d bytes, limit is %d", info.Size(), maxNoteBytes)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read note: %w", err)
	}

	rel, err := filepath.Rel(v.root, p)
	if err != nil {
		return domain.Document{}, fmt.Errorf("resolve note path: %w", err)
	}
	return ParseNote(filepath.ToSlash(rel), string(data), info.ModTime()), nil
}

// ParseNote builds a document from raw note text.
// modTime is used for any date the front matter does not supply.
func ParseNote(id, text string, modTime time.Time) domain.Document {
	doc := domain.Document{
		ID:         id,
		Content:    text,
		Folder:     folderOf(id),
		CreatedAt:  modTime,
		ModifiedAt: modTime,
	}

	if meta, body, ok := splitFrontMatter(text); ok {
		fm, err := parseFrontMatter(meta)
		if err != nil {
			logger.Warn("%s: %v", id, err)
		} else {
			doc.Content = body
			applyFrontMatter(&doc, fm)
		}
	}

	if doc.Title == "" {
		doc.Title = firstHeading(doc.Content)
	}
	doc.Links = extractLinks(id, doc.Content)
	doc.Tags = mergeTags(doc.Tags, inlineTags(doc.Content))
	return doc
}

func applyFrontMatter(doc *domain.Document, fm frontMatter) {
	doc.Title = strings.TrimSpace(fm.Title)
	for _, tag := range fm.Tags {
		doc.Tags = append(doc.Tags, strings.TrimPrefix(tag, "#"))
	}
	if !fm.Created.IsZero() {
		doc.CreatedAt = fm.Created.Time
	}
	switch {
	case !fm.Modified.IsZero():
		doc.ModifiedAt = fm.Modified.Time
	case !fm.Updated.IsZero():
		doc.ModifiedAt = fm.Updated.Time
	}
}

func isNote(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md") && !strings.HasPrefix(name, ".")
}

func folderOf(id string) string {
	dir := path.Dir(id)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func firstHeading(content string) string {
	m := headingRe.FindStringSubmatch(fencedCodeRe.ReplaceAllString(content, ""))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractLinks returns wikilink targets and relative markdown link targets
// in order of appearance, without duplicates. Markdown targets are decoded
// and resolved against the folder of noteID, so they come back as vault ids.
func extractLinks(noteID, content string) []string {
	content = fencedCodeRe.ReplaceAllString(content, "")
	type match struct {
		pos    int
		target string
	}
	var found []match
	for _, m := range wikiLinkRe.FindAllStringSubmatchIndex(content, -1) {
		found = append(found, match{m[0], strings.TrimSpace(content[m[2]:m[3]])})
	}
	for _, m := range markdownLinkRe.FindAllStringSubmatchIndex(content, -1) {
		target := content[m[2]:m[3]]
		if isExternal(target) {
			continue
		}
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = target[:i]
		}
		found = append(found, match{m[0], resolveMarkdownTarget(noteID, target)})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	seen := make(map[string]bool, len(found))
	links := make([]string, 0, len(found))
	for _, f := range found {
		if f.target == "" || seen[f.target] {
			continue
		}
		seen[f.target] = true
		links = append(links, f.target)
	}
	return links
}

// resolveMarkdownTarget maps a relative markdown link to a vault id.
// A leading slash is relative to the vault root.
func resolveMarkdownTarget(noteID, target string) string {
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	if target == "" {
		return ""
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(noteID), target)
}

func isExternal(target string) bool {
	lower := strings.ToLower(target)
	return strings.Contains(lower, "://") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "#")
}

func inlineTags(content string) []string {
	content = fencedCodeRe.ReplaceAllString(content, "")
	var tags []string
	for _, m := range inlineTagRe.FindAllStringSubmatch(content, -1) {
		tags = append(tags, strings.TrimRight(m[1], "/"))
	}
	return tags
}

// mergeTags appends extra to tags, skipping case-insensitive duplicates.
func mergeTags(tags, extra []string) []string {
	seen := make(map[string]bool, len(tags)+len(extra))
	out := make([]string, 0, len(tags)+len(extra))
	for _, t := range append(tags, extra...) {
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
