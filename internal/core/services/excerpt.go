package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	defaultExcerptChars = 300
	defaultMarker       = "**"
	ellipsis            = "..."
)

// ExtractContext returns a size-rune excerpt of content centred on the
// window with the most query-term occurrences. Truncated ends are marked
// with an ellipsis. Without any match the excerpt starts at the beginning.
func ExtractContext(content, query string, size int) string {
	if size <= 0 {
		size = defaultExcerptChars
	}
	runes := []rune(content)
	if len(runes) <= size {
		return strings.TrimSpace(content)
	}

	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	type match struct{ start, end int }
	var matches []match
	for _, term := range queryTerms(query) {
		t := []rune(term)
		for i := 0; i+len(t) <= len(lower); i++ {
			if runesEqual(lower[i:i+len(t)], t) {
				matches = append(matches, match{i, i + len(t)})
			}
		}
	}

	start := 0
	if len(matches) > 0 {
		sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

		bestLeft, bestRight, bestCount := 0, 0, 0
		for i, m := range matches {
			count, right := 0, m.end
			for _, other := range matches[i:] {
				if other.end > m.start+size {
					break
				}
				count++
				right = other.end
			}
			if count > bestCount {
				bestLeft, bestRight, bestCount = m.start, right, count
			}
		}
		start = (bestLeft+bestRight)/2 - size/2
	}
	if start < 0 {
		start = 0
	}
	if start > len(runes)-size {
		start = len(runes) - size
	}
	end := start + size

	excerpt := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		excerpt = ellipsis + excerpt
	}
	if end < len(runes) {
		excerpt += ellipsis
	}
	return excerpt
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Highlight wraps every query-term occurrence in text with marker.
// An empty marker uses "**".
func Highlight(text, query, marker string) string {
	if marker == "" {
		marker = defaultMarker
	}
	terms := queryTerms(query)
	if len(terms) == 0 {
		return text
	}
	sort.Slice(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re := regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return marker + m + marker
	})
}
