// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paradigm tags a pipeline step with the adaptation paradigm it
// exercises. The tags are telemetry labels only; nothing branches on
// them. Per prd001-pipeline R4.2.
type Paradigm string

const (
	// ParadigmToolFeedback marks steps driven by tool-execution signals (A1).
	ParadigmToolFeedback Paradigm = "A1"

	// ParadigmOutputSignal marks steps judged by final output quality (A2).
	ParadigmOutputSignal Paradigm = "A2"

	// ParadigmPlainTool marks plug-and-play tool steps (T1).
	ParadigmPlainTool Paradigm = "T1"

	// ParadigmTunedTool marks steps using tools optimized for the agent (T2).
	ParadigmTunedTool Paradigm = "T2"

	// ParadigmSearch labels the combined retrieval step (T1+T2).
	ParadigmSearch Paradigm = "T1+T2"

	// ParadigmCritique labels the combined critique step (A1+A2).
	ParadigmCritique Paradigm = "A1+A2"

	// ParadigmSynthesis labels the combined synthesis step (A2+T2).
	ParadigmSynthesis Paradigm = "A2+T2"

	// ParadigmNone marks the no-adaptation baseline path.
	ParadigmNone Paradigm = "none"
)

// StepStatus tracks a pipeline step through its lifecycle.
// Per prd001-pipeline R4.1.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepComplete  StepStatus = "complete"
	StepGapsFound StepStatus = "gaps_found"
)

// StepEntry is one entry in the pipeline's observational step log.
// The log is a side effect only: decision logic never reads it.
// Per prd001-pipeline R4.1-R4.3.
type StepEntry struct {
	// Name is the step's display name (e.g. "Iterative Search").
	Name string `json:"name" yaml:"name"`

	// Paradigm labels the adaptation paradigm the step exercises.
	Paradigm Paradigm `json:"paradigm" yaml:"paradigm"`

	// Status is the step's lifecycle state.
	Status StepStatus `json:"status" yaml:"status"`

	// Duration is how long the step took once finished.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Details carries step-specific observational values (counts, ids).
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}
