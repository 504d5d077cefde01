// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EvidenceRef is the compact reference stored with a memory record.
// Per prd006-memory R1.3.
type EvidenceRef struct {
	// Title is the evidence item's title.
	Title string `json:"title" yaml:"title"`

	// ID is the evidence item's source identifier.
	ID string `json:"id" yaml:"id"`
}

// RecordMetadata summarizes a completed research run for recall display.
// Per prd006-memory R1.4.
type RecordMetadata struct {
	// QualityScore is the final report's overall quality score.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// SubQuestions lists the planned sub-question texts.
	SubQuestions []string `json:"sub_questions" yaml:"sub_questions"`

	// TotalEvidence is the count of evidence items the report drew on.
	TotalEvidence int `json:"total_evidence" yaml:"total_evidence"`
}

// MemoryRecord is one stored research result. Records are append-only:
// never updated after creation, only superseded by new records with new
// IDs. Per prd006-memory R1.1-R1.5.
type MemoryRecord struct {
	// ID is the record identifier (e.g. "research_20260214_093011_1a2b3c4d").
	ID string `json:"id" yaml:"id"`

	// Query is the research question this record answers.
	Query string `json:"query" yaml:"query"`

	// Findings is the full synthesized report text.
	Findings string `json:"findings" yaml:"findings"`

	// Evidence references the items the report drew on.
	Evidence []EvidenceRef `json:"evidence" yaml:"evidence"`

	// Metadata summarizes the run that produced the record.
	Metadata RecordMetadata `json:"metadata" yaml:"metadata"`

	// Keywords is the extracted keyword set used for recall scoring.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// CreatedAt is the record creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// RecordSummary is the recall-index row kept alongside each record for
// fast keyword scoring without loading full findings.
// Per prd006-memory R2.1.
type RecordSummary struct {
	// ID is the record identifier.
	ID string `json:"id" yaml:"id"`

	// Query is the record's research question.
	Query string `json:"query" yaml:"query"`

	// Keywords is the record's extracted keyword set.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Summary is the first 200 characters of the findings.
	Summary string `json:"summary" yaml:"summary"`

	// CreatedAt is the record creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ScoredRecord pairs a recalled record with its relevance score.
// Per prd006-memory R2.2.
type ScoredRecord struct {
	MemoryRecord `yaml:",inline"`

	// RelevanceScore is the keyword-overlap recall score.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`
}
