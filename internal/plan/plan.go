// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan decomposes a research query into searchable sub-questions.
// The planner never fails: when the model response cannot be used it falls
// back to a generic three-question plan so the pipeline always has
// something to search.
// Implements: prd002-planning (R1-R3);
//
//	docs/ARCHITECTURE § Research Planning.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// maxContextChars bounds how much source material enters the prompt.
const maxContextChars = 3000

// Planner builds research plans through the model gateway.
type Planner struct {
	gw llm.Gateway
}

// New returns a Planner backed by gw.
func New(gw llm.Gateway) *Planner {
	return &Planner{gw: gw}
}

type planPayload struct {
	SubQuestions  []subQuestionPayload `json:"sub_questions"`
	ApproachNotes string               `json:"approach_notes"`
}

type subQuestionPayload struct {
	Question     string `json:"question"`
	SearchQuery  string `json:"search_query"`
	EvidenceType string `json:"evidence_type"`
}

// CreatePlan decomposes query into three to five sub-questions, each with
// a targeted search query. Source material in contextText sharpens the
// decomposition. Unknown evidence kinds from the model are normalized to
// survey; an unusable response yields the fallback plan.
func (p *Planner) CreatePlan(ctx context.Context, query, contextText string) types.ResearchPlan {
	if len(contextText) > maxContextChars {
		contextText = contextText[:maxContextChars]
	}

	prompt, err := renderPlanPrompt(query, contextText)
	if err != nil {
		return fallbackPlan(query, "")
	}

	structured := p.gw.GenerateJSON(ctx, llm.Request{
		Prompt: prompt,
		System: planSystemPrompt,
	})

	var payload planPayload
	if !structured.Decode(&payload) {
		return fallbackPlan(query, "")
	}

	subQuestions := make([]types.SubQuestion, 0, len(payload.SubQuestions))
	for _, sq := range payload.SubQuestions {
		kind := types.EvidenceKind(sq.EvidenceType)
		if !types.ValidEvidenceKind(kind) {
			kind = types.EvidenceSurvey
		}
		subQuestions = append(subQuestions, types.SubQuestion{
			Question:     sq.Question,
			SearchQuery:  sq.SearchQuery,
			EvidenceKind: kind,
		})
	}

	// A response can carry usable notes even when its sub-questions are
	// missing; keep them alongside the fallback questions.
	if len(subQuestions) == 0 {
		return fallbackPlan(query, payload.ApproachNotes)
	}

	return types.ResearchPlan{
		MainQuery:     query,
		SubQuestions:  subQuestions,
		ApproachNotes: payload.ApproachNotes,
	}
}

// fallbackPlan covers the query from three generic angles: the topic
// itself, what changed recently, and where it struggles.
func fallbackPlan(query, notes string) types.ResearchPlan {
	year := time.Now().Year()
	return types.ResearchPlan{
		MainQuery: query,
		SubQuestions: []types.SubQuestion{
			{
				Question:     query,
				SearchQuery:  query,
				EvidenceKind: types.EvidenceSurvey,
			},
			{
				Question:     fmt.Sprintf("Recent developments in %s", query),
				SearchQuery:  fmt.Sprintf("%s recent %d %d", query, year-1, year),
				EvidenceKind: types.EvidenceEmpirical,
			},
			{
				Question:     fmt.Sprintf("Challenges and limitations of %s", query),
				SearchQuery:  fmt.Sprintf("%s challenges limitations", query),
				EvidenceKind: types.EvidenceTheoretical,
			},
		},
		ApproachNotes: notes,
	}
}
