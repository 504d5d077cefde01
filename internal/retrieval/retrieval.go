// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval implements the evidence retrieval tools behind the
// iterative searcher: academic papers from the arXiv API and
// supplementary web hits from the DuckDuckGo Instant Answer API. Both
// share one Tool interface; an empty result set means "no results" and
// is distinct from an error.
// Implements: prd003-retrieval (R2, R5); docs/ARCHITECTURE § Tool Adapters.
package retrieval

import (
	"context"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Tool is the uniform retrieval surface the searcher depends on.
// Per prd003-retrieval R2.3.
type Tool interface {
	// Name returns the tool identifier (e.g. "arxiv", "duckduckgo").
	Name() string

	// Search returns up to max evidence items for the query. An empty
	// slice with a nil error means the query matched nothing.
	Search(ctx context.Context, query string, max int) ([]types.EvidenceItem, error)
}

// collapseWhitespace folds runs of whitespace (including newlines the
// arXiv API embeds in titles) into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
