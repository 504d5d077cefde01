package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

type mockGateway struct {
	structured llm.Structured
	lastReq    llm.Request
}

func (m *mockGateway) Generate(_ context.Context, req llm.Request) (string, error) {
	m.lastReq = req
	return "", nil
}

func (m *mockGateway) GenerateJSON(_ context.Context, req llm.Request) llm.Structured {
	m.lastReq = req
	return m.structured
}

func structuredOK(t *testing.T, v any) llm.Structured {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return llm.Structured{OK: true, Data: data, Raw: string(data)}
}

func TestCreatePlanParsesResponse(t *testing.T) {
	gw := &mockGateway{structured: structuredOK(t, map[string]any{
		"sub_questions": []map[string]string{
			{"question": "What are the foundations?", "search_query": "topic foundations survey", "evidence_type": "survey"},
			{"question": "What do experiments show?", "search_query": "topic benchmark results", "evidence_type": "empirical"},
		},
		"approach_notes": "Survey first, then benchmarks.",
	})}
	p := New(gw)

	plan := p.CreatePlan(context.Background(), "the topic", "")

	if plan.MainQuery != "the topic" {
		t.Errorf("MainQuery = %q", plan.MainQuery)
	}
	if len(plan.SubQuestions) != 2 {
		t.Fatalf("len(SubQuestions) = %d, want 2", len(plan.SubQuestions))
	}
	if plan.SubQuestions[0].EvidenceKind != types.EvidenceSurvey {
		t.Errorf("EvidenceKind = %q", plan.SubQuestions[0].EvidenceKind)
	}
	if plan.SubQuestions[1].SearchQuery != "topic benchmark results" {
		t.Errorf("SearchQuery = %q", plan.SubQuestions[1].SearchQuery)
	}
	if plan.ApproachNotes != "Survey first, then benchmarks." {
		t.Errorf("ApproachNotes = %q", plan.ApproachNotes)
	}
	if gw.lastReq.System == "" {
		t.Error("request missing system prompt")
	}
	if !strings.Contains(gw.lastReq.Prompt, `Research Query: "the topic"`) {
		t.Errorf("prompt missing query: %q", gw.lastReq.Prompt)
	}
}

func TestCreatePlanNormalizesUnknownKind(t *testing.T) {
	gw := &mockGateway{structured: structuredOK(t, map[string]any{
		"sub_questions": []map[string]string{
			{"question": "Q", "search_query": "q", "evidence_type": "anecdotal"},
			{"question": "R", "search_query": "r"},
		},
	})}
	p := New(gw)

	plan := p.CreatePlan(context.Background(), "topic", "")
	for i, sq := range plan.SubQuestions {
		if sq.EvidenceKind != types.EvidenceSurvey {
			t.Errorf("SubQuestions[%d].EvidenceKind = %q, want survey", i, sq.EvidenceKind)
		}
	}
}

func TestCreatePlanIncludesContext(t *testing.T) {
	gw := &mockGateway{structured: structuredOK(t, map[string]any{
		"sub_questions": []map[string]string{{"question": "Q", "search_query": "q", "evidence_type": "survey"}},
	})}
	p := New(gw)

	p.CreatePlan(context.Background(), "topic", "uploaded paper text")
	if !strings.Contains(gw.lastReq.Prompt, "uploaded paper text") {
		t.Errorf("prompt missing context: %q", gw.lastReq.Prompt)
	}
	if !strings.Contains(gw.lastReq.Prompt, "source material") {
		t.Errorf("prompt missing context preface: %q", gw.lastReq.Prompt)
	}
}

func TestCreatePlanTruncatesContext(t *testing.T) {
	gw := &mockGateway{structured: structuredOK(t, map[string]any{
		"sub_questions": []map[string]string{{"question": "Q", "search_query": "q", "evidence_type": "survey"}},
	})}
	p := New(gw)

	long := strings.Repeat("x", 4000)
	p.CreatePlan(context.Background(), "topic", long)
	if strings.Contains(gw.lastReq.Prompt, strings.Repeat("x", 3001)) {
		t.Error("prompt contains more than 3000 context chars")
	}
}

func TestCreatePlanOmitsContextSectionWhenEmpty(t *testing.T) {
	gw := &mockGateway{structured: structuredOK(t, map[string]any{
		"sub_questions": []map[string]string{{"question": "Q", "search_query": "q", "evidence_type": "survey"}},
	})}
	p := New(gw)

	p.CreatePlan(context.Background(), "topic", "")
	if strings.Contains(gw.lastReq.Prompt, "source material") {
		t.Errorf("prompt includes context section without context: %q", gw.lastReq.Prompt)
	}
}

func TestCreatePlanFallsBackOnBadResponse(t *testing.T) {
	gw := &mockGateway{structured: llm.Structured{OK: false, Raw: "not json"}}
	p := New(gw)

	plan := p.CreatePlan(context.Background(), "graph networks", "")

	if len(plan.SubQuestions) != 3 {
		t.Fatalf("len(SubQuestions) = %d, want fallback 3", len(plan.SubQuestions))
	}
	first := plan.SubQuestions[0]
	if first.Question != "graph networks" || first.SearchQuery != "graph networks" || first.EvidenceKind != types.EvidenceSurvey {
		t.Errorf("fallback[0] = %+v", first)
	}

	year := time.Now().Year()
	second := plan.SubQuestions[1]
	if second.Question != "Recent developments in graph networks" {
		t.Errorf("fallback[1].Question = %q", second.Question)
	}
	if want := fmt.Sprintf("graph networks recent %d %d", year-1, year); second.SearchQuery != want {
		t.Errorf("fallback[1].SearchQuery = %q, want %q", second.SearchQuery, want)
	}
	if second.EvidenceKind != types.EvidenceEmpirical {
		t.Errorf("fallback[1].EvidenceKind = %q", second.EvidenceKind)
	}

	third := plan.SubQuestions[2]
	if third.Question != "Challenges and limitations of graph networks" {
		t.Errorf("fallback[2].Question = %q", third.Question)
	}
	if third.SearchQuery != "graph networks challenges limitations" {
		t.Errorf("fallback[2].SearchQuery = %q", third.SearchQuery)
	}
	if third.EvidenceKind != types.EvidenceTheoretical {
		t.Errorf("fallback[2].EvidenceKind = %q", third.EvidenceKind)
	}
}

func TestCreatePlanKeepsNotesWithFallback(t *testing.T) {
	gw := &mockGateway{structured: structuredOK(t, map[string]any{
		"sub_questions":  []map[string]string{},
		"approach_notes": "Notes without questions.",
	})}
	p := New(gw)

	plan := p.CreatePlan(context.Background(), "topic", "")
	if len(plan.SubQuestions) != 3 {
		t.Fatalf("len(SubQuestions) = %d, want fallback 3", len(plan.SubQuestions))
	}
	if plan.ApproachNotes != "Notes without questions." {
		t.Errorf("ApproachNotes = %q, want notes kept alongside fallback", plan.ApproachNotes)
	}
}
