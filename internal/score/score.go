// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score rates research reports on rule-based and model-judged
// criteria. The weighted overall score gates synthesis revision and would
// be the reward signal in an output-tuned training loop.
// Implements: prd010-scoring (R1, R2, R3);
//
//	docs/ARCHITECTURE § Quality Scoring.
package score

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// PassThreshold is the overall score at and above which a report needs
// no revision.
const PassThreshold = 0.6

// Criterion weights. Relevance dominates because it is the only judged
// criterion; the rule-based ones are cheap proxies.
const (
	weightLength    = 0.15
	weightStructure = 0.20
	weightCitations = 0.30
	weightRelevance = 0.35
)

// relevanceTemperature keeps the judge deterministic across revisions.
const relevanceTemperature = 0.1

// citationPatternRe matches citation-like text: bracketed keys,
// parenthesized years, and arXiv identifiers.
var citationPatternRe = regexp.MustCompile(`\[[^\]]+\]|\([^)]*\d{4}[^)]*\)|arXiv:\s*\d+`)

// Scorer rates one report at a time. Safe for concurrent use.
type Scorer struct {
	gw llm.Gateway
}

// New returns a Scorer judging relevance through gw.
func New(gw llm.Gateway) *Scorer {
	return &Scorer{gw: gw}
}

// Score rates output against the query it was meant to answer.
// papersUsed grounds the citation check; without it the check falls back
// to counting citation-like patterns.
func (s *Scorer) Score(ctx context.Context, output, query string, papersUsed []types.EvidenceItem) types.QualityReport {
	scores := types.CriterionScores{
		Length:    scoreLength(output),
		Structure: scoreStructure(output),
		Citations: scoreCitations(output, papersUsed),
		Relevance: s.scoreRelevance(ctx, output, query),
	}

	overall := scores.Length*weightLength +
		scores.Structure*weightStructure +
		scores.Citations*weightCitations +
		scores.Relevance*weightRelevance
	overall = math.Round(overall*100) / 100

	return types.QualityReport{
		Scores:   scores,
		Overall:  overall,
		Pass:     overall >= PassThreshold,
		Feedback: feedback(scores),
	}
}

// scoreLength rewards the 100-500 word range and penalizes extremes.
func scoreLength(output string) float64 {
	words := len(strings.Fields(output))
	switch {
	case words < 50:
		return 0.2
	case words < 100:
		return 0.5
	case words < 500:
		return 1.0
	case words < 1500:
		return 0.9
	default:
		return 0.6
	}
}

// scoreStructure checks for headers, paragraphs, bullets and numbered
// items on top of a base score.
func scoreStructure(output string) float64 {
	score := 0.3

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**") {
			score += 0.2
			break
		}
	}
	if strings.Count(output, "\n\n") >= 2 {
		score += 0.2
	}
	if strings.Contains(output, "- ") || strings.Contains(output, "• ") || strings.Contains(output, "* ") {
		score += 0.15
	}
	for i := 1; i <= 5; i++ {
		if strings.Contains(output, fmt.Sprintf("%d.", i)) || strings.Contains(output, fmt.Sprintf("%d)", i)) {
			score += 0.15
			break
		}
	}

	return math.Min(score, 1.0)
}

// scoreCitations measures how many of the papers actually found are
// referenced. A paper counts as cited when any of the first three
// longer words of its title appears in the output.
func scoreCitations(output string, papersUsed []types.EvidenceItem) float64 {
	if len(papersUsed) == 0 {
		matches := citationPatternRe.FindAllString(output, -1)
		return math.Min(float64(len(matches))*0.2, 1.0)
	}

	haystack := strings.ToLower(output)
	cited := 0
	for _, paper := range papersUsed {
		var longWords []string
		for _, w := range strings.Fields(paper.Title) {
			if len(w) > 4 {
				longWords = append(longWords, w)
			}
		}
		if len(longWords) > 3 {
			longWords = longWords[:3]
		}
		for _, w := range longWords {
			if strings.Contains(haystack, strings.ToLower(w)) {
				cited++
				break
			}
		}
	}
	return math.Min(float64(cited)/float64(len(papersUsed)), 1.0)
}

const relevancePrompt = `Rate the relevance and quality of this research summary on a scale of 0.0 to 1.0.

Query: %s

Summary:
%s

Criteria:
- Does it answer the query?
- Is the information accurate and specific?
- Are claims supported?

Respond with ONLY a number between 0.0 and 1.0, nothing else.`

// scoreRelevance asks the model to judge the report. Any failure, from
// the API down to an unparseable reply, yields the neutral 0.5.
func (s *Scorer) scoreRelevance(ctx context.Context, output, query string) float64 {
	summary := output
	if len(summary) > 2000 {
		summary = summary[:2000]
	}

	resp, err := s.gw.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(relevancePrompt, query, summary),
		Temperature: relevanceTemperature,
	})
	if err != nil {
		return 0.5
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0.5
	}
	return math.Max(0.0, math.Min(1.0, v))
}

// feedback turns low criterion scores into actionable revision notes.
func feedback(scores types.CriterionScores) string {
	var notes []string
	if scores.Length < 0.5 {
		notes = append(notes, "Output is too short — need more detailed analysis")
	}
	if scores.Structure < 0.5 {
		notes = append(notes, "Improve structure — add headers, bullet points, or sections")
	}
	if scores.Citations < 0.5 {
		notes = append(notes, "Cite more of the papers found — ground claims in sources")
	}
	if scores.Relevance < 0.5 {
		notes = append(notes, "Output doesn't address the query well — refocus on the question")
	}
	if len(notes) == 0 {
		notes = append(notes, "Quality looks good ✅")
	}
	return strings.Join(notes, "; ")
}
