package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

type mockGateway struct {
	reply   string
	err     error
	lastReq llm.Request
}

func (m *mockGateway) Generate(_ context.Context, req llm.Request) (string, error) {
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGateway) GenerateJSON(_ context.Context, req llm.Request) llm.Structured {
	m.lastReq = req
	return llm.Structured{}
}

func TestForSearchCleansReply(t *testing.T) {
	gw := &mockGateway{reply: "  \"quantum fault tolerance codes\"  "}
	r := New(gw)

	got := r.ForSearch(context.Background(), "how do quantum computers fix mistakes", "")
	if got != "quantum fault tolerance codes" {
		t.Errorf("ForSearch() = %q, want cleaned query", got)
	}
	if gw.lastReq.Temperature != searchTemperature {
		t.Errorf("Temperature = %v, want %v", gw.lastReq.Temperature, searchTemperature)
	}
	if !strings.Contains(gw.lastReq.Prompt, "how do quantum computers fix mistakes") {
		t.Errorf("prompt missing the query: %q", gw.lastReq.Prompt)
	}
}

func TestForSearchIncludesHint(t *testing.T) {
	gw := &mockGateway{reply: "better query terms"}
	r := New(gw)

	r.ForSearch(context.Background(), "some question", "Previous query 'x' returned no results")
	if !strings.Contains(gw.lastReq.Prompt, "Context: Previous query 'x' returned no results") {
		t.Errorf("prompt missing hint: %q", gw.lastReq.Prompt)
	}
}

func TestForSearchDegradesOnError(t *testing.T) {
	gw := &mockGateway{err: errors.New("rate limited")}
	r := New(gw)

	got := r.ForSearch(context.Background(), "original question", "")
	if got != "original question" {
		t.Errorf("ForSearch() = %q, want original on gateway error", got)
	}
}

func TestForSearchDegradesOnBadRewrite(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"error marker", "[LLM Error: connection refused]"},
		{"too short", "a"},
		{"too long", strings.Repeat("x", 250)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{reply: tt.reply}
			r := New(gw)
			if got := r.ForSearch(context.Background(), "original question", ""); got != "original question" {
				t.Errorf("ForSearch() = %q, want original for rejected rewrite", got)
			}
		})
	}
}

func TestRefineAfterResultsListsTitles(t *testing.T) {
	var found []types.EvidenceItem
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		found = append(found, types.EvidenceItem{Title: title})
	}

	gw := &mockGateway{reply: "complementary query"}
	r := New(gw)

	got := r.RefineAfterResults(context.Background(), "first query", found, "")
	if got != "complementary query" {
		t.Errorf("RefineAfterResults() = %q", got)
	}
	if gw.lastReq.Temperature != refineTemperature {
		t.Errorf("Temperature = %v, want %v", gw.lastReq.Temperature, refineTemperature)
	}
	if !strings.Contains(gw.lastReq.Prompt, "- Five") {
		t.Errorf("prompt missing fifth title: %q", gw.lastReq.Prompt)
	}
	if strings.Contains(gw.lastReq.Prompt, "- Six") {
		t.Errorf("prompt includes sixth title, want cap at five: %q", gw.lastReq.Prompt)
	}
}

func TestRefineAfterResultsIncludesGap(t *testing.T) {
	gw := &mockGateway{reply: "gap focused query"}
	r := New(gw)

	r.RefineAfterResults(context.Background(), "q", nil, "no coverage of scaling laws")
	if !strings.Contains(gw.lastReq.Prompt, "Gap to fill: no coverage of scaling laws") {
		t.Errorf("prompt missing gap line: %q", gw.lastReq.Prompt)
	}
}

func TestExpandSubQuestion(t *testing.T) {
	gw := &mockGateway{reply: "'transformer interpretability probing'"}
	r := New(gw)

	got := r.ExpandSubQuestion(context.Background(), "How are transformers interpreted?", "mechanistic interpretability")
	if got != "transformer interpretability probing" {
		t.Errorf("ExpandSubQuestion() = %q, want single quotes stripped", got)
	}
	if !strings.Contains(gw.lastReq.Prompt, "Main research topic: mechanistic interpretability") {
		t.Errorf("prompt missing main topic: %q", gw.lastReq.Prompt)
	}
	if gw.lastReq.Temperature != expandTemperature {
		t.Errorf("Temperature = %v, want %v", gw.lastReq.Temperature, expandTemperature)
	}
}

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"quoted query"`, "quoted query"},
		{`'single quoted'`, "single quoted"},
		{"  padded  ", "padded"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := cleanQuery(tt.in); got != tt.want {
			t.Errorf("cleanQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
