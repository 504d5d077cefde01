// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import "strings"

// stopWords are dropped during keyword extraction. The set leans toward
// question phrasing because queries are questions.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "and": true, "or": true,
	"but": true, "not": true, "this": true, "that": true, "these": true,
	"those": true, "it": true, "its": true, "they": true, "them": true,
	"their": true, "we": true, "our": true, "you": true, "your": true,
	"he": true, "she": true, "his": true, "her": true, "what": true,
	"which": true, "who": true, "how": true, "when": true, "where": true,
	"why": true, "about": true, "into": true, "each": true, "such": true,
	"as": true, "also": true, "more": true, "than": true, "very": true,
	"most": true,
}

// punctCutset is trimmed from both ends of every candidate word.
const punctCutset = ".,;:!?()[]{}\"'"

// maxKeywords caps the stored keyword set per record.
const maxKeywords = 30

// findingsKeywordChars limits how much of the findings feeds extraction.
const findingsKeywordChars = 500

// ExtractKeywords derives the recall keywords for a record from its query
// and the head of its findings. Order follows first appearance.
func ExtractKeywords(query, findings string) []string {
	if len(findings) > findingsKeywordChars {
		findings = findings[:findingsKeywordChars]
	}
	text := strings.ToLower(query + " " + findings)

	seen := make(map[string]bool)
	var keywords []string
	for _, raw := range strings.Fields(text) {
		w := strings.Trim(raw, punctCutset)
		if len(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
