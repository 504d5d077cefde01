// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CritiqueResult is the critic's evaluation of the research collected so
// far. Recomputed fresh each critique round, never mutated in place.
// Per prd004-critique R1.1-R1.4.
type CritiqueResult struct {
	// ToolIssues lists deterministic tool-output problems (empty results,
	// unusable abstracts) found without any model call.
	ToolIssues []string `json:"tool_issues" yaml:"tool_issues"`

	// QualityScore is the judged completeness of the findings, in [0,1].
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// Gaps lists sub-questions judged insufficiently covered.
	Gaps []string `json:"gaps" yaml:"gaps"`

	// NeedsMoreSearch is derived from QualityScore, Gaps, and ToolIssues
	// by the fixed decision rule (R1.4); it is never set independently.
	NeedsMoreSearch bool `json:"needs_more_search" yaml:"needs_more_search"`

	// Feedback is the judge's free-text assessment.
	Feedback string `json:"feedback" yaml:"feedback"`
}

// CriterionScores holds the per-criterion quality scores, each in [0,1].
// Per prd004-critique R2.1.
type CriterionScores struct {
	// Length scores word-count banding.
	Length float64 `json:"length" yaml:"length"`

	// Structure scores headings, paragraphs, and list markers.
	Structure float64 `json:"structure" yaml:"structure"`

	// Citations scores how much of the collected evidence the report uses.
	Citations float64 `json:"citations" yaml:"citations"`

	// Relevance is the model-judged fit between report and query.
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

// QualityReport is the scorer's assessment of a candidate report.
// Immutable once produced. Per prd004-critique R2.1-R2.4.
type QualityReport struct {
	// Scores holds the per-criterion breakdown.
	Scores CriterionScores `json:"scores" yaml:"scores"`

	// Overall is the weighted sum of the criteria, rounded to 2 decimals.
	Overall float64 `json:"overall" yaml:"overall"`

	// Pass reports whether Overall met the quality threshold.
	Pass bool `json:"pass" yaml:"pass"`

	// Feedback lists the threshold-triggered improvement messages.
	Feedback string `json:"feedback" yaml:"feedback"`
}
