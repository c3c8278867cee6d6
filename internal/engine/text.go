// Package engine implements the memory lifecycle services: the short-term
// tier with importance-derived expiry, the long-term tier with strength
// decay and reinforcement, and the consolidation bridge between them.
package engine

import (
	"sort"
	"strings"
)

// stopwords are excluded from keyword extraction. Tokens of length <= 3 are
// filtered before this list applies, so only longer function words appear.
var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "against": true,
	"also": true, "because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "could": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "from": true,
	"further": true, "have": true, "having": true, "here": true, "into": true,
	"itself": true, "just": true, "more": true, "most": true, "only": true,
	"other": true, "over": true, "same": true, "should": true, "some": true,
	"such": true, "than": true, "that": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "under": true, "until": true, "very": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "would": true, "your": true,
}

// Tokenize lowercases text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// tokenSet builds the set of distinct tokens in text.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		set[tok] = true
	}
	return set
}

// LexicalSimilarity returns the Jaccard set-overlap coefficient of the token
// sets of a and b: |A ∩ B| / |A ∪ B|. Two empty strings are not similar.
func LexicalSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// ExtractKeywords returns up to topN keywords from text, ranked by descending
// frequency. Tokens of length <= 3 and stopwords are discarded; frequency
// ties keep first-seen order.
func ExtractKeywords(text string, topN int) []string {
	if topN <= 0 {
		topN = 10
	}

	counts := make(map[string]int)
	var order []string
	for _, tok := range Tokenize(text) {
		if len(tok) <= 3 || stopwords[tok] {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// Stable sort over first-seen order: equal counts keep their original
	// relative position.
	keywords := make([]string, len(order))
	copy(keywords, order)
	sort.SliceStable(keywords, func(i, j int) bool {
		return counts[keywords[i]] > counts[keywords[j]]
	})

	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}
