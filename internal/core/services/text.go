package services

import (
	"regexp"
	"strings"
	"unicode"
)

// minTermLength is the shortest term kept by the index tokenizer.
const minTermLength = 4

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`[^`\n]+`")
	wikiLink   = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|([^\]]+))?\]\]`)
	mdLink     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
)

// stopWords are dropped by the index tokenizer. Terms shorter than
// minTermLength never reach this table.
var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "also": true,
	"been": true, "before": true, "being": true, "below": true, "between": true,
	"both": true, "could": true, "does": true, "doing": true, "down": true,
	"each": true, "from": true, "further": true, "have": true, "having": true,
	"here": true, "into": true, "just": true, "more": true, "most": true,
	"much": true, "must": true, "only": true, "other": true, "over": true,
	"same": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "until": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true,
	"with": true, "would": true, "your": true, "yours": true, "because": true,
	"like": true, "make": true, "many": true, "need": true, "want": true,
}

// stripMarkup removes code and rewrites links to their visible text.
func stripMarkup(text string) string {
	text = fencedCode.ReplaceAllString(text, " ")
	text = inlineCode.ReplaceAllString(text, " ")
	text = wikiLink.ReplaceAllStringFunc(text, func(m string) string {
		sub := wikiLink.FindStringSubmatch(m)
		if sub[2] != "" {
			return sub[2]
		}
		return sub[1]
	})
	text = mdLink.ReplaceAllString(text, "$1")
	return text
}

// tokenize turns note text into index terms: markup stripped, lowercased,
// non-alphanumerics removed, stop words and short terms dropped.
func tokenize(text string) []string {
	words := splitWords(strings.ToLower(stripMarkup(text)))
	terms := words[:0]
	for _, w := range words {
		if len([]rune(w)) < minTermLength || stopWords[w] {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// splitWords splits on anything that is not a letter or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// queryTerms returns the lowercase words of a query used for rerank,
// excerpt and highlight matching. Words shorter than three runes are dropped.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range splitWords(strings.ToLower(query)) {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// estimateTokens approximates model tokens as one per four characters.
func estimateTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
