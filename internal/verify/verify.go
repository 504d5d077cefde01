// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify checks tool outputs before agents consume them. Every
// check is a pure function returning a Check record; callers decide how to
// react to failures. The binary Signal mirrors the reward a tool-feedback
// training loop would consume, which keeps the checks honest: a check that
// cannot be scored 0 or 1 does not belong here.
// Implements: prd009-verification (R1, R2, R3);
//
//	docs/ARCHITECTURE § Tool Verification.
package verify

import (
	"fmt"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/extract"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Check is the outcome of verifying one tool invocation.
type Check struct {
	Tool   string   `json:"tool"`
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
	Signal float64  `json:"signal"`
}

func newCheck(tool string, issues []string) Check {
	c := Check{Tool: tool, Valid: len(issues) == 0, Issues: issues}
	if c.Valid {
		c.Signal = 1.0
	}
	return c
}

// Search verifies that a paper search produced usable evidence. A single
// result counts as a failure so the caller refines the query rather than
// building a report on one source.
func Search(papers []types.EvidenceItem) Check {
	const tool = "arxiv_search"

	if len(papers) == 0 {
		return newCheck(tool, []string{"No papers returned from search"})
	}

	var issues []string
	if len(papers) < 2 {
		issues = append(issues, fmt.Sprintf("Very few results: only %d paper(s)", len(papers)))
	}
	for _, p := range papers {
		if p.Snippet == "" {
			id := p.ID
			if id == "" {
				id = "unknown"
			}
			issues = append(issues, "Missing abstract for: "+id)
		}
		if p.Title == "" {
			issues = append(issues, "Missing title for paper")
		}
	}
	return newCheck(tool, issues)
}

// Extraction verifies that document parsing produced usable text.
func Extraction(res extract.Result) Check {
	const tool = "pdf_parse"

	var issues []string
	if len(res.Text) < 100 {
		issues = append(issues, fmt.Sprintf("Too little text extracted: %d chars", len(res.Text)))
	}
	if len(res.Sections) == 0 {
		issues = append(issues, "No sections detected in PDF")
	}
	return newCheck(tool, issues)
}

// Rewrite verifies that a query rewrite is usable as a search query.
// Error markers catch the failure mode where a model degradation message
// leaks into the query itself.
func Rewrite(original, rewritten string) Check {
	const tool = "query_rewrite"

	var issues []string
	if len(strings.TrimSpace(rewritten)) < 3 {
		issues = append(issues, "Rewritten query is empty or too short")
	}
	if strings.EqualFold(rewritten, original) {
		issues = append(issues, "Rewrite is identical to original (no improvement)")
	}
	if len(rewritten) > 200 {
		issues = append(issues, "Rewritten query is too long")
	}
	if strings.Contains(rewritten, "[") || strings.Contains(strings.ToLower(rewritten), "error") {
		issues = append(issues, "Rewrite contains error markers")
	}
	return newCheck(tool, issues)
}
