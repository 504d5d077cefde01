// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the research run: context extraction,
// memory recall, planning, iterative search, bounded critique rounds
// with gap re-search, and one synthesis pass. Every phase transition
// lands in the step log and goes to the observer; neither feeds back
// into control flow. Only entry validation is fatal; component
// failures degrade into empty context, empty evidence, or fallback
// output and the run carries on.
// Implements: prd001-pipeline (R1-R6);
//
//	docs/ARCHITECTURE § Orchestrator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhilashpatra04/Deepresercher/internal/critique"
	"github.com/abhilashpatra04/Deepresercher/internal/extract"
	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/internal/memory"
	"github.com/abhilashpatra04/Deepresercher/internal/plan"
	"github.com/abhilashpatra04/Deepresercher/internal/retrieval"
	"github.com/abhilashpatra04/Deepresercher/internal/rewrite"
	"github.com/abhilashpatra04/Deepresercher/internal/score"
	"github.com/abhilashpatra04/Deepresercher/internal/search"
	"github.com/abhilashpatra04/Deepresercher/internal/synthesis"
	"github.com/abhilashpatra04/Deepresercher/internal/verify"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// ErrEmptyQuery is returned when a run is requested without a query.
// It is the pipeline's only fatal input error.
var ErrEmptyQuery = errors.New("research query is empty")

// Step names as they appear in the log and observer notifications.
const (
	stepInput     = "Input Processing"
	stepRecall    = "Memory Recall"
	stepPlanning  = "Research Planning"
	stepSearch    = "Iterative Search"
	stepCritique  = "Self-Critique"
	stepGapSearch = "Gap Re-Search"
	stepSynthesis = "Synthesis + Memory"
)

// maxUserContextChars bounds extracted source material kept for the run.
const maxUserContextChars = 5000

// maxPlanContextChars bounds the source-material section of the
// planning context.
const maxPlanContextChars = 3000

// maxRecallEntries is how many recalled records feed the planning
// context digest.
const maxRecallEntries = 2

// maxRecallFindingChars bounds each recalled record's findings excerpt
// in the digest.
const maxRecallFindingChars = 200

// Request is one research invocation's input. PaperPath takes
// precedence over URL when both are set.
type Request struct {
	// Query is the research question. Required.
	Query string

	// PaperPath is an optional local PDF to fold into the run's context.
	PaperPath string

	// URL is an optional page to fold into the run's context.
	URL string
}

// ContextExtractor pulls text out of user-supplied documents.
type ContextExtractor interface {
	FromFile(path string) (extract.Result, error)
	FromURL(ctx context.Context, rawURL string) (extract.Result, error)
}

// Recaller retrieves related past research.
type Recaller interface {
	Recall(ctx context.Context, query string, max int) ([]types.ScoredRecord, error)
}

// Planner decomposes the query into sub-questions.
type Planner interface {
	CreatePlan(ctx context.Context, query, contextText string) types.ResearchPlan
}

// Searcher gathers evidence for the plan and for critique gaps.
type Searcher interface {
	All(ctx context.Context, plan types.ResearchPlan) *types.OutcomeSet
	ForGap(ctx context.Context, gap, mainQuery string) types.SearchOutcome
}

// Critic judges the collected findings.
type Critic interface {
	Critique(ctx context.Context, plan types.ResearchPlan, outcomes *types.OutcomeSet) types.CritiqueResult
}

// Synthesizer produces and persists the final report.
type Synthesizer interface {
	Synthesize(ctx context.Context, plan types.ResearchPlan, outcomes *types.OutcomeSet, query, extraContext string) (types.SynthesisResult, error)
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Planner     Planner
	Searcher    Searcher
	Critic      Critic
	Synthesizer Synthesizer
	Extractor   ContextExtractor
	Memory      Recaller
	Gateway     llm.Gateway
}

// Pipeline runs the full research state machine.
type Pipeline struct {
	deps Deps
	cfg  types.Config
	obs  Observer
}

// New assembles a Pipeline from explicit collaborators. A nil observer
// is allowed.
func New(deps Deps, cfg types.Config, obs Observer) *Pipeline {
	if cfg.Critique.MaxRounds <= 0 {
		cfg.Critique.MaxRounds = 2
	}
	if cfg.Critique.MaxGapSearches <= 0 {
		cfg.Critique.MaxGapSearches = 3
	}
	if cfg.Memory.RecallResults <= 0 {
		cfg.Memory.RecallResults = 3
	}
	return &Pipeline{deps: deps, cfg: cfg, obs: obs}
}

// NewFromConfig builds the pipeline with its production collaborators:
// configured gateway, arXiv and DuckDuckGo tools, rewriter, scorer, and
// the SQLite memory store. The returned closer releases the store.
func NewFromConfig(cfg types.Config, obs Observer) (*Pipeline, func() error, error) {
	gw, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("build gateway: %w", err)
	}
	store, err := memory.Open(cfg.Memory.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open memory store: %w", err)
	}

	rw := rewrite.New(gw)
	papers := retrieval.NewArxivTool(cfg.Search)
	web := retrieval.NewDuckDuckGoTool(cfg.Search)
	scorer := score.New(gw)

	deps := Deps{
		Planner:     plan.New(gw),
		Searcher:    search.New(papers, web, rw, cfg.Search),
		Critic:      critique.New(gw, cfg.Critique),
		Synthesizer: synthesis.New(gw, scorer, store),
		Extractor:   extract.New(cfg.Extract),
		Memory:      store,
		Gateway:     gw,
	}
	return New(deps, cfg, obs), store.Close, nil
}

// Research runs the full pipeline for one request.
func (p *Pipeline) Research(ctx context.Context, req Request) (*types.ResearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	var steps []types.StepEntry

	userContext := p.extractContext(ctx, req)

	// Memory recall feeds the planning context; a store failure reads as
	// no related research.
	recallStart := time.Now()
	p.notify(stepRecall, types.ParadigmTunedTool, "Checking past research...", nil)
	recalled, err := p.deps.Memory.Recall(ctx, req.Query, p.cfg.Memory.RecallResults)
	if err != nil {
		recalled = nil
	}
	memoryContext := ""
	if len(recalled) > 0 {
		memoryContext = "\n\nPrevious research on related topics:\n"
		for i, entry := range recalled {
			if i == maxRecallEntries {
				break
			}
			memoryContext += fmt.Sprintf("- %s: %s...\n", entry.Query, clip(entry.Findings, maxRecallFindingChars))
		}
		p.notify(stepRecall, types.ParadigmTunedTool,
			fmt.Sprintf("Found %d related past research entries", len(recalled)), nil)
	}
	steps = append(steps, types.StepEntry{
		Name:     stepRecall,
		Paradigm: types.ParadigmTunedTool,
		Status:   types.StepComplete,
		Duration: time.Since(recallStart),
		Details:  map[string]any{"records_found": len(recalled)},
	})

	planStart := time.Now()
	p.notify(stepPlanning, types.ParadigmOutputSignal, "Decomposing query into sub-questions...", nil)

	fullContext := ""
	if userContext != "" {
		fullContext += fmt.Sprintf("User provided source material:\n%s\n\n", clip(userContext, maxPlanContextChars))
	}
	fullContext += memoryContext

	researchPlan := p.deps.Planner.CreatePlan(ctx, req.Query, fullContext)

	questions := make([]string, len(researchPlan.SubQuestions))
	for i, sq := range researchPlan.SubQuestions {
		questions[i] = sq.Question
	}
	planDetails := map[string]any{"sub_questions": questions, "count": len(questions)}
	steps = append(steps, types.StepEntry{
		Name:     stepPlanning,
		Paradigm: types.ParadigmOutputSignal,
		Status:   types.StepComplete,
		Duration: time.Since(planStart),
		Details:  planDetails,
	})
	p.notify(stepPlanning, types.ParadigmOutputSignal, "Complete", planDetails)

	searchStart := time.Now()
	p.notify(stepSearch, types.ParadigmSearch, "Searching arXiv + web for each sub-question...", nil)

	outcomes := p.deps.Searcher.All(ctx, researchPlan)

	searchDetails := map[string]any{
		"total_papers":      outcomes.TotalEvidence(),
		"total_web_results": outcomes.TotalWebResults(),
		"per_question":      perQuestionCounts(outcomes),
	}
	steps = append(steps, types.StepEntry{
		Name:     stepSearch,
		Paradigm: types.ParadigmSearch,
		Status:   types.StepComplete,
		Duration: time.Since(searchStart),
		Details:  searchDetails,
	})
	p.notify(stepSearch, types.ParadigmSearch, "Complete", searchDetails)

	crit := p.critiqueRounds(ctx, researchPlan, outcomes, req.Query, &steps)

	synthStart := time.Now()
	p.notify(stepSynthesis, types.ParadigmSynthesis, "Generating research report...", nil)

	synth, err := p.deps.Synthesizer.Synthesize(ctx, researchPlan, outcomes, req.Query, userContext)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}

	synthDetails := map[string]any{
		"quality_score": synth.Quality.Overall,
		"papers_cited":  synth.EvidenceCited,
		"memory_id":     synth.MemoryID,
	}
	steps = append(steps, types.StepEntry{
		Name:     stepSynthesis,
		Paradigm: types.ParadigmSynthesis,
		Status:   types.StepComplete,
		Duration: time.Since(synthStart),
		Details:  synthDetails,
	})
	p.notify(stepSynthesis, types.ParadigmSynthesis, "Complete", synthDetails)

	return &types.ResearchResult{
		Report:        synth.Report,
		Quality:       synth.Quality,
		Plan:          researchPlan,
		Outcomes:      outcomes,
		Critique:      crit,
		Steps:         steps,
		TotalDuration: time.Since(start),
		MemoryID:      synth.MemoryID,
		EvidenceCited: synth.EvidenceCited,
		UserContext:   userContext,
	}, nil
}

// critiqueRounds runs the bounded critique and gap-search cycle and
// returns the last round's result.
func (p *Pipeline) critiqueRounds(ctx context.Context, researchPlan types.ResearchPlan, outcomes *types.OutcomeSet, query string, steps *[]types.StepEntry) types.CritiqueResult {
	maxRounds := p.cfg.Critique.MaxRounds
	var crit types.CritiqueResult

	for round := 0; round < maxRounds; round++ {
		roundName := fmt.Sprintf("%s (Round %d)", stepCritique, round+1)
		roundStart := time.Now()
		p.notify(stepCritique, types.ParadigmCritique,
			fmt.Sprintf("Evaluating findings (round %d)...", round+1), nil)

		crit = p.deps.Critic.Critique(ctx, researchPlan, outcomes)

		details := map[string]any{
			"quality_score": crit.QualityScore,
			"gaps":          crit.Gaps,
			"tool_issues":   crit.ToolIssues,
			"needs_more":    crit.NeedsMoreSearch,
		}

		if !crit.NeedsMoreSearch || round == maxRounds-1 {
			*steps = append(*steps, types.StepEntry{
				Name:     roundName,
				Paradigm: types.ParadigmCritique,
				Status:   types.StepComplete,
				Duration: time.Since(roundStart),
				Details:  details,
			})
			p.notify(stepCritique, types.ParadigmCritique, "Complete", details)
			break
		}

		*steps = append(*steps, types.StepEntry{
			Name:     roundName,
			Paradigm: types.ParadigmCritique,
			Status:   types.StepGapsFound,
			Duration: time.Since(roundStart),
			Details:  details,
		})
		p.notify(stepCritique, types.ParadigmCritique,
			fmt.Sprintf("Found %d gaps, re-searching...", len(crit.Gaps)), details)

		gapStart := time.Now()
		gaps := crit.Gaps
		if len(gaps) > p.cfg.Critique.MaxGapSearches {
			gaps = gaps[:p.cfg.Critique.MaxGapSearches]
		}
		for _, gap := range gaps {
			outcomes.Add(gap, p.deps.Searcher.ForGap(ctx, gap, query))
		}
		*steps = append(*steps, types.StepEntry{
			Name:     stepGapSearch,
			Paradigm: types.ParadigmTunedTool,
			Status:   types.StepComplete,
			Duration: time.Since(gapStart),
		})
	}
	return crit
}

// extractContext pulls text from the request's paper or URL. The paper
// wins when both are supplied. Failures yield empty context; the run
// proceeds without source material.
func (p *Pipeline) extractContext(ctx context.Context, req Request) string {
	switch {
	case req.PaperPath != "":
		p.notify(stepInput, types.ParadigmPlainTool, "Parsing uploaded paper...", nil)
		res, err := p.deps.Extractor.FromFile(req.PaperPath)
		return p.finishExtract(res, err, "paper")

	case req.URL != "":
		p.notify(stepInput, types.ParadigmPlainTool, "Extracting content from URL...", nil)
		res, err := p.deps.Extractor.FromURL(ctx, req.URL)
		return p.finishExtract(res, err, "URL")
	}
	return ""
}

func (p *Pipeline) finishExtract(res extract.Result, err error, source string) string {
	contextText := ""
	var details map[string]any
	if err == nil {
		contextText = clip(res.Text, maxUserContextChars)
		if check := verify.Extraction(res); !check.Valid {
			details = map[string]any{"extraction_issues": check.Issues}
		}
	}
	p.notify(stepInput, types.ParadigmPlainTool,
		fmt.Sprintf("Extracted %d chars from %s", len(contextText), source), details)
	return contextText
}

func perQuestionCounts(outcomes *types.OutcomeSet) map[string]any {
	counts := make(map[string]any, outcomes.Len())
	for _, key := range outcomes.Keys() {
		o, _ := outcomes.Get(key)
		counts[key] = map[string]any{"papers": len(o.Evidence), "web": len(o.WebResults)}
	}
	return counts
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
