// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SynthesisResult is what the synthesizer returns after generating,
// scoring, and persisting a report. Per prd005-synthesis R1.5.
type SynthesisResult struct {
	// Report is the final report text, whichever pass produced it.
	Report string `json:"report" yaml:"report"`

	// Quality is the final quality assessment of Report.
	Quality QualityReport `json:"quality" yaml:"quality"`

	// MemoryID is the stored record's ID; empty when persistence failed.
	MemoryID string `json:"memory_id" yaml:"memory_id"`

	// EvidenceCited is the total evidence count the synthesis drew on.
	EvidenceCited int `json:"evidence_cited" yaml:"evidence_cited"`
}

// ResearchResult is the complete output of one pipeline invocation.
// Per prd001-pipeline R5.1-R5.3.
type ResearchResult struct {
	// Report is the synthesized research report.
	Report string `json:"report" yaml:"report"`

	// Quality is the final quality assessment of Report.
	Quality QualityReport `json:"quality" yaml:"quality"`

	// Plan is the research plan the run followed.
	Plan ResearchPlan `json:"plan" yaml:"plan"`

	// Outcomes maps sub-question (and gap) keys to their search outcomes,
	// in plan order followed by gap order.
	Outcomes *OutcomeSet `json:"-" yaml:"-"`

	// Critique is the last critique round's result.
	Critique CritiqueResult `json:"critique" yaml:"critique"`

	// Steps is the observational step log for the run.
	Steps []StepEntry `json:"steps" yaml:"steps"`

	// TotalDuration is the wall-clock duration of the run.
	TotalDuration time.Duration `json:"total_duration" yaml:"total_duration"`

	// MemoryID is the persisted record's ID; empty when persistence failed.
	MemoryID string `json:"memory_id" yaml:"memory_id"`

	// EvidenceCited is the total evidence count used by synthesis.
	EvidenceCited int `json:"evidence_cited" yaml:"evidence_cited"`

	// UserContext is the extracted source-material text, when a paper or
	// URL was supplied.
	UserContext string `json:"user_context,omitempty" yaml:"user_context,omitempty"`
}

// BaselineResult is the output of the no-adaptation comparison path:
// one retrieval call, one summarization call, no planning, critique, or
// memory. Per prd001-pipeline R6.1-R6.3.
type BaselineResult struct {
	// Report is the single-shot summary text.
	Report string `json:"report" yaml:"report"`

	// Quality is fixed at zero: the baseline is never scored.
	Quality QualityReport `json:"quality" yaml:"quality"`

	// EvidenceFound is the number of items the single search returned.
	EvidenceFound int `json:"evidence_found" yaml:"evidence_found"`

	// Duration is the wall-clock duration of the run.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Paradigms is the fixed "none" label for comparison displays.
	Paradigms Paradigm `json:"paradigms" yaml:"paradigms"`
}
