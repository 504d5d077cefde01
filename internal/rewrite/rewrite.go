// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rewrite turns questions into arXiv-friendly search queries.
// A small tuned model would normally sit here; this implementation
// simulates one with low-temperature prompts against the main gateway.
// Every method degrades to its input on failure: a query that survived
// planning is always a better search than an error message.
// Implements: prd003-retrieval (R4);
//
//	docs/ARCHITECTURE § Query Rewriting.
package rewrite

import (
	"context"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/internal/verify"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Rewriter optimizes search queries for the retrieval tools.
type Rewriter struct {
	gw llm.Gateway
}

// New returns a Rewriter backed by gw.
func New(gw llm.Gateway) *Rewriter {
	return &Rewriter{gw: gw}
}

// ForSearch rewrites a question into an optimized paper search query.
// The hint tells the model why a rewrite is needed, typically that a
// previous query came back empty.
func (r *Rewriter) ForSearch(ctx context.Context, query, hint string) string {
	prompt, err := renderPrompt(searchTmpl, promptData{Query: query, Context: hint})
	if err != nil {
		return query
	}
	out, err := r.gw.Generate(ctx, llm.Request{Prompt: prompt, Temperature: searchTemperature})
	if err != nil {
		return query
	}
	return r.accept(query, out)
}

// RefineAfterResults writes a follow-up query aimed at papers the ones
// already found do not cover. At most five titles inform the model.
func (r *Rewriter) RefineAfterResults(ctx context.Context, originalQuery string, found []types.EvidenceItem, gap string) string {
	titles := found
	if len(titles) > 5 {
		titles = titles[:5]
	}
	lines := make([]string, 0, len(titles))
	for _, p := range titles {
		lines = append(lines, "- "+p.Title)
	}

	prompt, err := renderPrompt(refineTmpl, promptData{
		Query:       originalQuery,
		FoundTitles: strings.Join(lines, "\n"),
		Gap:         gap,
	})
	if err != nil {
		return originalQuery
	}
	out, err := r.gw.Generate(ctx, llm.Request{Prompt: prompt, Temperature: refineTemperature})
	if err != nil {
		return originalQuery
	}
	return r.accept(originalQuery, out)
}

// ExpandSubQuestion derives a focused search query from a sub-question
// that arrived without one.
func (r *Rewriter) ExpandSubQuestion(ctx context.Context, subQuestion, mainQuery string) string {
	prompt, err := renderPrompt(expandTmpl, promptData{Query: subQuestion, MainQuery: mainQuery})
	if err != nil {
		return subQuestion
	}
	out, err := r.gw.Generate(ctx, llm.Request{Prompt: prompt, Temperature: expandTemperature})
	if err != nil {
		return subQuestion
	}
	return r.accept(subQuestion, out)
}

// accept cleans a model rewrite and falls back to the original query
// when verification rejects it.
func (r *Rewriter) accept(original, rewritten string) string {
	cleaned := cleanQuery(rewritten)
	if check := verify.Rewrite(original, cleaned); !check.Valid {
		return original
	}
	return cleaned
}

// cleanQuery strips whitespace and the quotes models wrap queries in.
func cleanQuery(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, `'`)
	return s
}
