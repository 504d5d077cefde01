// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/internal/retrieval"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// baselineResults is the single search's result cap.
const baselineResults = 5

// baselineSnippetChars bounds each abstract in the summary prompt.
const baselineSnippetChars = 200

const baselinePromptTemplate = `Summarize the following papers for this query: {{.Query}}

Papers:
{{.Papers}}

Write a brief research summary.`

var baselineTmpl = template.Must(template.New("baseline").Parse(baselinePromptTemplate))

// Baseline is the no-adaptation comparison path: one search, one
// summary. No planning, iteration, critique, or memory.
type Baseline struct {
	gw     llm.Gateway
	papers retrieval.Tool
	obs    Observer
}

// NewBaseline returns the comparison agent. A nil observer is allowed.
func NewBaseline(gw llm.Gateway, papers retrieval.Tool, obs Observer) *Baseline {
	return &Baseline{gw: gw, papers: papers, obs: obs}
}

// Research runs the single-shot baseline. Search failure degrades to
// the no-papers prompt; only an empty query or a failed summary call is
// an error.
func (b *Baseline) Research(ctx context.Context, query string) (*types.BaselineResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	notifyObserver(b.obs, "Baseline Search", types.ParadigmNone, "Searching...", nil)

	papers, err := b.papers.Search(ctx, query, baselineResults)
	if err != nil {
		papers = nil
	}
	notifyObserver(b.obs, "Baseline Search", types.ParadigmNone,
		fmt.Sprintf("Found %d papers", len(papers)), nil)

	paperText := "No papers found."
	if len(papers) > 0 {
		lines := make([]string, len(papers))
		for i, p := range papers {
			lines[i] = fmt.Sprintf("- %s: %s", p.Title, clip(p.Snippet, baselineSnippetChars))
		}
		paperText = strings.Join(lines, "\n")
	}

	var prompt strings.Builder
	err = baselineTmpl.Execute(&prompt, struct {
		Query  string
		Papers string
	}{Query: query, Papers: paperText})
	if err != nil {
		return nil, err
	}

	report, err := b.gw.Generate(ctx, llm.Request{Prompt: prompt.String()})
	if err != nil {
		return nil, fmt.Errorf("baseline summary: %w", err)
	}
	notifyObserver(b.obs, "Baseline Summary", types.ParadigmNone, "Complete", nil)

	return &types.BaselineResult{
		Report:        report,
		Quality:       types.QualityReport{},
		EvidenceFound: len(papers),
		Duration:      time.Since(start),
		Paradigms:     types.ParadigmNone,
	}, nil
}
