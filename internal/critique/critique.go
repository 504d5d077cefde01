// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package critique evaluates collected research before synthesis. The
// check runs on two levels: deterministic tool-output inspection (did the
// searches actually return usable data?) and a model judgment of overall
// completeness. Either level can send the pipeline back to search.
// Implements: prd004-critique (R1.1-R1.4);
//
//	docs/ARCHITECTURE § Self-Critique.
package critique

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// maxIssueQueryChars bounds the sub-question excerpt quoted in an issue.
const maxIssueQueryChars = 60

// usableAbstractChars is the snippet length above which an abstract
// counts as real content rather than a stub.
const usableAbstractChars = 20

// toolIssueTolerance is how many tool issues a research run may carry
// before they alone force another search round.
const toolIssueTolerance = 2

// Critic evaluates research completeness.
type Critic struct {
	gw  llm.Gateway
	cfg types.CritiqueConfig
}

// New returns a Critic judging against cfg.QualityThreshold.
func New(gw llm.Gateway, cfg types.CritiqueConfig) *Critic {
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 0.6
	}
	return &Critic{gw: gw, cfg: cfg}
}

// Critique evaluates the findings collected for a plan and decides
// whether another search round is needed. The result is complete and
// self-consistent: NeedsMoreSearch always reflects the other fields.
func (c *Critic) Critique(ctx context.Context, plan types.ResearchPlan, outcomes *types.OutcomeSet) types.CritiqueResult {
	result := types.CritiqueResult{ToolIssues: checkToolOutputs(outcomes)}

	result.QualityScore, result.Gaps, result.Feedback = c.judgeQuality(ctx, plan, outcomes)
	result.NeedsMoreSearch = NeedsMoreSearch(result, c.cfg.QualityThreshold)
	return result
}

// NeedsMoreSearch applies the fixed decision rule: more search is needed
// when the judged score is below threshold, any gap is open, or the tool
// issues exceed the tolerance.
func NeedsMoreSearch(result types.CritiqueResult, threshold float64) bool {
	return result.QualityScore < threshold ||
		len(result.Gaps) > 0 ||
		len(result.ToolIssues) > toolIssueTolerance
}

// checkToolOutputs inspects every search outcome for tool-level problems.
// A sub-question with no evidence is one issue; a batch where most
// abstracts are stubs is another. No model call involved.
func checkToolOutputs(outcomes *types.OutcomeSet) []string {
	var issues []string
	for _, key := range outcomes.Keys() {
		outcome, _ := outcomes.Get(key)

		if len(outcome.Evidence) == 0 {
			issues = append(issues, fmt.Sprintf("No papers found for: '%s'", clip(key, maxIssueQueryChars)))
			continue
		}

		stubs := 0
		for _, e := range outcome.Evidence {
			if len(e.Snippet) <= usableAbstractChars {
				stubs++
			}
		}
		if stubs > len(outcome.Evidence)/2 {
			issues = append(issues, fmt.Sprintf("Many empty abstracts for: '%s'", clip(key, maxIssueQueryChars)))
		}
	}
	return issues
}

type judgePayload struct {
	// Score is a pointer so a response missing the field falls back to
	// the coverage heuristic instead of reading as 0.0.
	Score    *float64 `json:"score"`
	Gaps     []string `json:"gaps"`
	Feedback string   `json:"feedback"`
}

// judgeQuality asks the model to grade completeness and name gaps. Any
// failure to get a scored response falls back to coverage counting.
func (c *Critic) judgeQuality(ctx context.Context, plan types.ResearchPlan, outcomes *types.OutcomeSet) (float64, []string, string) {
	questions := make([]string, len(plan.SubQuestions))
	for i, sq := range plan.SubQuestions {
		questions[i] = sq.Question
	}

	var summaries []string
	totalPapers := 0
	for _, key := range outcomes.Keys() {
		outcome, _ := outcomes.Get(key)
		totalPapers += len(outcome.Evidence)

		titles := make([]string, 0, 3)
		for _, e := range outcome.Evidence {
			if len(titles) == 3 {
				break
			}
			titles = append(titles, e.Title)
		}
		summaries = append(summaries, fmt.Sprintf(
			"Sub-question: %s\n  Papers found: %d\n  Top papers: %s",
			key, len(outcome.Evidence), strings.Join(titles, ", ")))
	}

	questionList := make([]string, len(questions))
	for i, q := range questions {
		questionList[i] = "- " + q
	}

	prompt, err := renderJudgePrompt(judgeData{
		MainQuery:       plan.MainQuery,
		SubQuestionList: strings.Join(questionList, "\n"),
		FindingsBlock:   strings.Join(summaries, "\n"),
		TotalPapers:     totalPapers,
	})
	if err != nil {
		return heuristicQuality(questions, outcomes)
	}

	res := c.gw.GenerateJSON(ctx, llm.Request{Prompt: prompt})
	var payload judgePayload
	if !res.Decode(&payload) || payload.Score == nil {
		return heuristicQuality(questions, outcomes)
	}
	return *payload.Score, payload.Gaps, payload.Feedback
}

// heuristicQuality scores by coverage: the fraction of planned
// sub-questions with at least one evidence item. Uncovered questions
// become the gap list verbatim.
func heuristicQuality(questions []string, outcomes *types.OutcomeSet) (float64, []string, string) {
	covered := 0
	var gaps []string
	for _, q := range questions {
		if outcome, ok := outcomes.Get(q); ok && len(outcome.Evidence) > 0 {
			covered++
		} else {
			gaps = append(gaps, q)
		}
	}

	den := len(questions)
	if den == 0 {
		den = 1
	}
	score := float64(covered) / float64(den)
	feedback := fmt.Sprintf("Covered %d/%d sub-questions", covered, len(questions))
	return score, gaps, feedback
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
