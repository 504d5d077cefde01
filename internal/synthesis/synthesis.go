// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns collected evidence into the final research
// report, scores it, retries once on a failing score, and persists the
// result to memory. Persistence failure never loses the report; the
// result just carries an empty memory ID.
// Implements: prd005-synthesis (R1.1-R1.5);
//
//	docs/ARCHITECTURE § Synthesis.
package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/internal/memory"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// maxContextPapers caps how many evidence items one sub-question
// contributes to the synthesis context.
const maxContextPapers = 5

// maxAbstractChars bounds each evidence snippet in the context.
const maxAbstractChars = 300

// maxExtraContextChars bounds user-provided source material folded into
// the context.
const maxExtraContextChars = 2000

// maxImproveContextChars bounds the grounding context in the improvement
// prompt; the report itself takes most of that prompt's room.
const maxImproveContextChars = 3000

// QualityScorer grades a candidate report.
type QualityScorer interface {
	Score(ctx context.Context, output, query string, papersUsed []types.EvidenceItem) types.QualityReport
}

// Recorder persists finished research for future recall.
type Recorder interface {
	Save(ctx context.Context, rec types.MemoryRecord) error
}

// Synthesizer builds the final report and persists it along with its
// quality score.
type Synthesizer struct {
	gw     llm.Gateway
	scorer QualityScorer
	store  Recorder
}

// New returns a Synthesizer. A nil store disables persistence; results
// then carry an empty MemoryID.
func New(gw llm.Gateway, scorer QualityScorer, store Recorder) *Synthesizer {
	return &Synthesizer{gw: gw, scorer: scorer, store: store}
}

// Synthesize combines all findings into a structured report. A report
// failing its quality check gets one improvement pass and a re-score;
// whichever report survives is stored. The returned error covers report
// generation only.
func (s *Synthesizer) Synthesize(ctx context.Context, plan types.ResearchPlan, outcomes *types.OutcomeSet, query, extraContext string) (types.SynthesisResult, error) {
	contextText := buildContext(plan, outcomes)
	if extraContext != "" {
		contextText = "### User-Provided Source Material\n" +
			clip(extraContext, maxExtraContextChars) + "\n\n" + contextText
	}

	report, err := s.generateReport(ctx, query, contextText)
	if err != nil {
		return types.SynthesisResult{}, fmt.Errorf("generate report: %w", err)
	}

	allPapers := outcomes.AllEvidence()
	quality := s.scorer.Score(ctx, report, query, allPapers)

	if !quality.Pass {
		if improved, err := s.improveReport(ctx, report, query, contextText, quality.Feedback); err == nil {
			report = improved
			quality = s.scorer.Score(ctx, report, query, allPapers)
		}
	}

	result := types.SynthesisResult{
		Report:        report,
		Quality:       quality,
		EvidenceCited: len(allPapers),
	}
	result.MemoryID = s.persist(ctx, plan, query, report, quality, allPapers)
	return result, nil
}

// buildContext lays out the evidence by sub-question, in plan order.
// Gap-search outcomes are deliberately absent: the report follows the
// plan's structure, and gap evidence reaches it through the papers list.
func buildContext(plan types.ResearchPlan, outcomes *types.OutcomeSet) string {
	var sections []string
	for _, sq := range plan.SubQuestions {
		outcome, ok := outcomes.Get(sq.Question)
		if !ok {
			sections = append(sections, fmt.Sprintf("### %s\nNo results found.\n", sq.Question))
			continue
		}

		var summaries []string
		for i, e := range outcome.Evidence {
			if i == maxContextPapers {
				break
			}
			summaries = append(summaries, fmt.Sprintf("- **%s** [%s]\n  %s",
				e.Title, e.ID, clip(e.Snippet, maxAbstractChars)))
		}

		sections = append(sections, fmt.Sprintf("### %s\nPapers found: %d\n%s\n",
			sq.Question, len(outcome.Evidence), strings.Join(summaries, "\n")))
	}
	return strings.Join(sections, "\n")
}

func (s *Synthesizer) generateReport(ctx context.Context, query, contextText string) (string, error) {
	prompt, err := renderPrompt(reportTmpl, promptData{Query: query, Context: contextText})
	if err != nil {
		return "", err
	}
	return s.gw.Generate(ctx, llm.Request{Prompt: prompt, Temperature: reportTemperature})
}

func (s *Synthesizer) improveReport(ctx context.Context, report, query, contextText, feedback string) (string, error) {
	prompt, err := renderPrompt(improveTmpl, promptData{
		Query:    query,
		Report:   report,
		Feedback: feedback,
		Context:  clip(contextText, maxImproveContextChars),
	})
	if err != nil {
		return "", err
	}
	return s.gw.Generate(ctx, llm.Request{Prompt: prompt, Temperature: reportTemperature})
}

// persist stores the finished research. Returns the record ID, or empty
// when there is no store or the save failed.
func (s *Synthesizer) persist(ctx context.Context, plan types.ResearchPlan, query, report string, quality types.QualityReport, allPapers []types.EvidenceItem) string {
	if s.store == nil {
		return ""
	}

	questions := make([]string, len(plan.SubQuestions))
	for i, sq := range plan.SubQuestions {
		questions[i] = sq.Question
	}
	refs := make([]types.EvidenceRef, len(allPapers))
	for i, p := range allPapers {
		refs[i] = types.EvidenceRef{Title: p.Title, ID: p.ID}
	}

	rec := types.MemoryRecord{
		ID:       memory.NewID(time.Now()),
		Query:    query,
		Findings: report,
		Evidence: refs,
		Metadata: types.RecordMetadata{
			QualityScore:  quality.Overall,
			SubQuestions:  questions,
			TotalEvidence: len(allPapers),
		},
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return ""
	}
	return rec.ID
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
