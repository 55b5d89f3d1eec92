package services

import (
	"regexp"
	"strings"
	"unicode"
)

var defaultBannedTerms = []string{
	"asshole", "bastard", "bitch", "crap", "damn", "dickhead", "fuck",
	"idiot", "moron", "retard", "scam", "shit", "slut", "spam", "stupid", "whore",
}

// ContentFilter flags text containing banned words. Matching is per word, so
// "class" never matches "ass".
type ContentFilter struct {
	terms map[string]bool
}

// NewContentFilter builds a filter from terms, falling back to the built-in list when empty.
func NewContentFilter(terms []string) *ContentFilter {
	if len(terms) == 0 {
		terms = defaultBannedTerms
	}
	f := &ContentFilter{terms: make(map[string]bool, len(terms))}
	for _, t := range terms {
		if t = normalizeWord(t); t != "" {
			f.terms[t] = true
		}
	}
	return f
}

// Scan returns the banned terms found in text, deduplicated in first-seen order.
func (f *ContentFilter) Scan(text string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		w := normalizeWord(word)
		if w == "" || seen[w] || !f.terms[w] {
			continue
		}
		seen[w] = true
		found = append(found, w)
	}
	return found
}

func normalizeWord(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, word)
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// extractMentions returns the lowercased usernames mentioned in text, each once.
func extractMentions(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
