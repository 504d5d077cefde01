// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
// Implements: prd002-planning (SubQuestion, ResearchPlan, R1.1-R1.3);
//
//	prd003-retrieval (EvidenceItem, SearchOutcome, OutcomeSet, R2.1-R2.4);
//	prd004-critique (CritiqueResult, QualityReport, R3.1-R3.3);
//	prd006-memory (MemoryRecord, RecordSummary, R2.1-R2.2);
//	prd001-pipeline (StepEntry, ResearchResult, R4.1-R4.3).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// EvidenceKind classifies what sort of evidence a sub-question calls for.
// Per prd002-planning R1.2.
type EvidenceKind string

const (
	EvidenceSurvey      EvidenceKind = "survey"
	EvidenceEmpirical   EvidenceKind = "empirical"
	EvidenceTheoretical EvidenceKind = "theoretical"
)

// ValidEvidenceKind reports whether k is one of the known kinds. Unknown
// values from a model response are normalized to EvidenceSurvey by the
// planner rather than rejected.
func ValidEvidenceKind(k EvidenceKind) bool {
	switch k {
	case EvidenceSurvey, EvidenceEmpirical, EvidenceTheoretical:
		return true
	}
	return false
}

// SubQuestion is one decomposed facet of the main research query.
// Created once by the planner and never mutated afterwards.
// Per prd002-planning R1.1-R1.3.
type SubQuestion struct {
	// Question is the specific research sub-question text.
	Question string `json:"question" yaml:"question"`

	// SearchQuery is the optimized query the searcher starts from.
	SearchQuery string `json:"search_query" yaml:"search_query"`

	// EvidenceKind labels the evidence the sub-question calls for:
	// survey, empirical, or theoretical.
	EvidenceKind EvidenceKind `json:"evidence_kind" yaml:"evidence_kind"`
}

// ResearchPlan is the planner's decomposition of a research query.
// Read-only after creation; sub-question order defines report section order.
// Per prd002-planning R1.1, R2.1.
type ResearchPlan struct {
	// MainQuery is the user's root research question.
	MainQuery string `json:"main_query" yaml:"main_query"`

	// SubQuestions lists the decomposed facets in report order.
	SubQuestions []SubQuestion `json:"sub_questions" yaml:"sub_questions"`

	// ApproachNotes is the planner's brief note on research strategy.
	ApproachNotes string `json:"approach_notes,omitempty" yaml:"approach_notes,omitempty"`
}

// SourceKind identifies where an evidence item came from.
// Per prd003-retrieval R2.1.
type SourceKind string

const (
	SourcePaper SourceKind = "paper"
	SourceWeb   SourceKind = "web"
)

// EvidenceItem is a retrieved document reference usable for grounding.
// One value type covers both papers and web hits; fields a source cannot
// provide stay at their zero values. Per prd003-retrieval R2.1-R2.2.
type EvidenceItem struct {
	// ID is the canonical identifier from the source (arXiv ID or URL).
	ID string `json:"id" yaml:"id"`

	// Title is the document title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Snippet is the abstract or summary text available for the item.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Kind identifies the source class: paper or web.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// URL points at the document (PDF link for papers, page URL for web hits).
	URL string `json:"url" yaml:"url"`

	// Authors lists document authors in source order, when known.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Published is the publication date string as reported by the source.
	Published string `json:"published,omitempty" yaml:"published,omitempty"`

	// Categories lists subject categories, when the source provides them.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// SearchOutcome holds everything the searcher collected for one
// sub-question across its iterations. Per prd003-retrieval R3.1-R3.4.
type SearchOutcome struct {
	// SubQuestion is the sub-question text this outcome answers.
	SubQuestion string `json:"sub_question" yaml:"sub_question"`

	// Evidence is the append-only list of primary results, deduplicated
	// by ID across iterations.
	Evidence []EvidenceItem `json:"evidence" yaml:"evidence"`

	// WebResults holds supplementary web hits, deduplicated by URL.
	// Kept separate from Evidence and never merged into it.
	WebResults []EvidenceItem `json:"web_results,omitempty" yaml:"web_results,omitempty"`

	// Iterations counts how many search iterations ran.
	Iterations int `json:"iterations" yaml:"iterations"`

	// QueriesTried records every query string used, in order, for audit.
	QueriesTried []string `json:"queries_tried" yaml:"queries_tried"`
}

// OutcomeSet is an insertion-ordered collection of SearchOutcome keyed by
// sub-question text. Plan sub-questions come first in plan order;
// gap-driven re-searches are appended under the gap text as keys of their
// own. Per prd003-retrieval R3.4, prd001-pipeline R2.3.
type OutcomeSet struct {
	keys     []string
	outcomes map[string]SearchOutcome
}

// NewOutcomeSet returns an empty outcome set.
func NewOutcomeSet() *OutcomeSet {
	return &OutcomeSet{outcomes: make(map[string]SearchOutcome)}
}

// Add stores outcome under key, appending the key on first sight.
// Re-adding an existing key replaces the outcome but keeps its position.
func (s *OutcomeSet) Add(key string, outcome SearchOutcome) {
	if _, ok := s.outcomes[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.outcomes[key] = outcome
}

// Get returns the outcome stored under key.
func (s *OutcomeSet) Get(key string) (SearchOutcome, bool) {
	o, ok := s.outcomes[key]
	return o, ok
}

// Keys returns the keys in insertion order.
func (s *OutcomeSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of outcomes held.
func (s *OutcomeSet) Len() int {
	return len(s.keys)
}

// AllEvidence returns every primary evidence item across all outcomes,
// in insertion order.
func (s *OutcomeSet) AllEvidence() []EvidenceItem {
	var all []EvidenceItem
	for _, k := range s.keys {
		all = append(all, s.outcomes[k].Evidence...)
	}
	return all
}

// TotalEvidence returns the count of primary evidence items across all
// outcomes.
func (s *OutcomeSet) TotalEvidence() int {
	n := 0
	for _, k := range s.keys {
		n += len(s.outcomes[k].Evidence)
	}
	return n
}

// TotalWebResults returns the count of supplementary web hits across all
// outcomes.
func (s *OutcomeSet) TotalWebResults() int {
	n := 0
	for _, k := range s.keys {
		n += len(s.outcomes[k].WebResults)
	}
	return n
}
