package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// --- mocks ---

// mockTool replays scripted batches, one per call, or answers by query
// when byQuery is set. Safe for concurrent use.
type mockTool struct {
	mu      sync.Mutex
	name    string
	batches [][]types.EvidenceItem
	errs    []error
	byQuery map[string][]types.EvidenceItem
	queries []string
	maxes   []int
	calls   int
}

func (m *mockTool) Name() string { return m.name }

func (m *mockTool) Search(_ context.Context, query string, max int) ([]types.EvidenceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	m.queries = append(m.queries, query)
	m.maxes = append(m.maxes, max)
	if m.byQuery != nil {
		return m.byQuery[query], nil
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var batch []types.EvidenceItem
	if i < len(m.batches) {
		batch = m.batches[i]
	}
	return batch, err
}

type refineCall struct {
	query string
	found int
	gap   string
}

// mockRewriter consumes scripted replies and falls back to echoing the
// input, matching the real rewriter's degradation behavior.
type mockRewriter struct {
	mu            sync.Mutex
	searchReplies []string
	refineReplies []string
	expandReplies []string
	searchCalls   [][2]string
	refineCalls   []refineCall
	expandCalls   [][2]string
}

func (m *mockRewriter) ForSearch(_ context.Context, query, hint string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls = append(m.searchCalls, [2]string{query, hint})
	if len(m.searchReplies) > 0 {
		r := m.searchReplies[0]
		m.searchReplies = m.searchReplies[1:]
		return r
	}
	return query
}

func (m *mockRewriter) RefineAfterResults(_ context.Context, originalQuery string, found []types.EvidenceItem, gap string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refineCalls = append(m.refineCalls, refineCall{query: originalQuery, found: len(found), gap: gap})
	if len(m.refineReplies) > 0 {
		r := m.refineReplies[0]
		m.refineReplies = m.refineReplies[1:]
		return r
	}
	return originalQuery
}

func (m *mockRewriter) ExpandSubQuestion(_ context.Context, subQuestion, mainQuery string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expandCalls = append(m.expandCalls, [2]string{subQuestion, mainQuery})
	if len(m.expandReplies) > 0 {
		r := m.expandReplies[0]
		m.expandReplies = m.expandReplies[1:]
		return r
	}
	return subQuestion
}

// --- helpers ---

func paperBatch(ids ...string) []types.EvidenceItem {
	out := make([]types.EvidenceItem, len(ids))
	for i, id := range ids {
		out[i] = types.EvidenceItem{
			ID:      id,
			Title:   "Paper " + id,
			Snippet: "Abstract for " + id,
			Kind:    types.SourcePaper,
		}
	}
	return out
}

func webBatch(urls ...string) []types.EvidenceItem {
	out := make([]types.EvidenceItem, len(urls))
	for i, u := range urls {
		out[i] = types.EvidenceItem{
			ID:      u,
			Title:   "Page " + u,
			Snippet: "Summary for " + u,
			Kind:    types.SourceWeb,
			URL:     u,
		}
	}
	return out
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		MaxIterations:  3,
		EvidenceTarget: 5,
		PaperResults:   5,
		WebResults:     3,
	}
}

func subQ(question, query string) types.SubQuestion {
	return types.SubQuestion{
		Question:     question,
		SearchQuery:  query,
		EvidenceKind: types.EvidenceSurvey,
	}
}

// --- ForSubQuestion ---

func TestForSubQuestionStopsAtTarget(t *testing.T) {
	papers := &mockTool{name: "arxiv", batches: [][]types.EvidenceItem{paperBatch("a", "b")}}
	rw := &mockRewriter{}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("What is X?", "x query"), "main", 0)

	if out.SubQuestion != "What is X?" {
		t.Errorf("SubQuestion = %q", out.SubQuestion)
	}
	if len(out.Evidence) != 2 {
		t.Fatalf("evidence count = %d, want 2", len(out.Evidence))
	}
	if out.Iterations != 1 {
		t.Errorf("iterations = %d, want 1 (target reached on first pass)", out.Iterations)
	}
	if len(out.QueriesTried) != 1 || out.QueriesTried[0] != "x query" {
		t.Errorf("queries tried = %v", out.QueriesTried)
	}
	if len(rw.searchCalls) != 0 || len(rw.refineCalls) != 0 {
		t.Errorf("rewriter called on a satisfied search: %v %v", rw.searchCalls, rw.refineCalls)
	}
	if papers.maxes[0] != 5 {
		t.Errorf("paper result cap = %d, want 5", papers.maxes[0])
	}
}

func TestForSubQuestionRewritesWhenNoResults(t *testing.T) {
	papers := &mockTool{
		name:    "arxiv",
		batches: [][]types.EvidenceItem{nil, paperBatch("a", "b")},
	}
	rw := &mockRewriter{searchReplies: []string{"better query"}}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("What is X?", "x query"), "main", 0)

	if out.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", out.Iterations)
	}
	wantQueries := []string{"x query", "better query"}
	for i, q := range wantQueries {
		if out.QueriesTried[i] != q {
			t.Errorf("query %d = %q, want %q", i, out.QueriesTried[i], q)
		}
	}
	if len(rw.searchCalls) != 1 {
		t.Fatalf("ForSearch calls = %d, want 1", len(rw.searchCalls))
	}
	if rw.searchCalls[0][0] != "What is X?" {
		t.Errorf("rewrite anchored on %q, want the sub-question", rw.searchCalls[0][0])
	}
	wantHint := "Previous query 'x query' returned no results"
	if rw.searchCalls[0][1] != wantHint {
		t.Errorf("rewrite hint = %q, want %q", rw.searchCalls[0][1], wantHint)
	}
	if len(out.Evidence) != 2 {
		t.Errorf("evidence count = %d, want 2", len(out.Evidence))
	}
}

func TestForSubQuestionDiscardsUnverifiedBatch(t *testing.T) {
	// A lone result fails verification, so the batch is dropped whole.
	papers := &mockTool{
		name:    "arxiv",
		batches: [][]types.EvidenceItem{paperBatch("lonely"), paperBatch("a", "b")},
	}
	rw := &mockRewriter{searchReplies: []string{"wider query"}}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("q", "narrow query"), "main", 0)

	if len(out.Evidence) != 2 {
		t.Fatalf("evidence count = %d, want 2", len(out.Evidence))
	}
	for _, e := range out.Evidence {
		if e.ID == "lonely" {
			t.Error("unverified paper leaked into evidence")
		}
	}
	if len(rw.searchCalls) != 1 {
		t.Errorf("ForSearch calls = %d, want 1", len(rw.searchCalls))
	}
}

func TestForSubQuestionRefinesBelowTarget(t *testing.T) {
	papers := &mockTool{
		name:    "arxiv",
		batches: [][]types.EvidenceItem{paperBatch("a", "b"), paperBatch("c", "d")},
	}
	rw := &mockRewriter{refineReplies: []string{"refined query"}}
	cfg := testCfg()
	cfg.MaxIterations = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("q", "first query"), "main", 0)

	if out.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", out.Iterations)
	}
	if len(out.Evidence) != 4 {
		t.Errorf("evidence count = %d, want 4", len(out.Evidence))
	}
	if len(rw.refineCalls) != 1 {
		t.Fatalf("RefineAfterResults calls = %d, want 1 (none after the last iteration)", len(rw.refineCalls))
	}
	rc := rw.refineCalls[0]
	if rc.query != "first query" || rc.found != 2 || rc.gap != "" {
		t.Errorf("refine call = %+v", rc)
	}
	if out.QueriesTried[1] != "refined query" {
		t.Errorf("second query = %q, want the refined one", out.QueriesTried[1])
	}
}

func TestForSubQuestionDedupesEvidenceByID(t *testing.T) {
	papers := &mockTool{
		name:    "arxiv",
		batches: [][]types.EvidenceItem{paperBatch("a", "b"), paperBatch("b", "c")},
	}
	rw := &mockRewriter{}
	cfg := testCfg()
	cfg.MaxIterations = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("q", "query"), "main", 0)

	if len(out.Evidence) != 3 {
		t.Fatalf("evidence count = %d, want 3 after dedup", len(out.Evidence))
	}
	wantIDs := []string{"a", "b", "c"}
	for i, id := range wantIDs {
		if out.Evidence[i].ID != id {
			t.Errorf("evidence[%d].ID = %q, want %q", i, out.Evidence[i].ID, id)
		}
	}
}

func TestForSubQuestionPaperErrorTreatedAsEmpty(t *testing.T) {
	papers := &mockTool{
		name:    "arxiv",
		batches: [][]types.EvidenceItem{nil, paperBatch("a", "b")},
		errs:    []error{errors.New("api down"), nil},
	}
	rw := &mockRewriter{searchReplies: []string{"retry query"}}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("q", "query"), "main", 0)

	if len(out.Evidence) != 2 {
		t.Fatalf("evidence count = %d, want 2 after recovery", len(out.Evidence))
	}
	if out.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", out.Iterations)
	}
	if len(rw.searchCalls) != 1 {
		t.Errorf("tool failure should trigger a rewrite, got %d calls", len(rw.searchCalls))
	}
}

func TestForSubQuestionWebDedupedByURL(t *testing.T) {
	papers := &mockTool{
		name:    "arxiv",
		batches: [][]types.EvidenceItem{paperBatch("a", "b"), paperBatch("c", "d")},
	}
	web := &mockTool{
		name: "duckduckgo",
		batches: [][]types.EvidenceItem{
			webBatch("https://one", "https://two"),
			webBatch("https://two", "https://three"),
		},
	}
	rw := &mockRewriter{}
	cfg := testCfg()
	cfg.MaxIterations = 2

	s := New(papers, web, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("q", "query"), "main", 0)

	if len(out.WebResults) != 3 {
		t.Fatalf("web results = %d, want 3 after dedup", len(out.WebResults))
	}
	wantURLs := []string{"https://one", "https://two", "https://three"}
	for i, u := range wantURLs {
		if out.WebResults[i].URL != u {
			t.Errorf("web[%d].URL = %q, want %q", i, out.WebResults[i].URL, u)
		}
	}
	if web.maxes[0] != 3 {
		t.Errorf("web result cap = %d, want 3", web.maxes[0])
	}
}

func TestForSubQuestionWebErrorsIgnored(t *testing.T) {
	papers := &mockTool{name: "arxiv", batches: [][]types.EvidenceItem{paperBatch("a", "b")}}
	web := &mockTool{name: "duckduckgo", errs: []error{errors.New("rate limited")}}
	rw := &mockRewriter{}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, web, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("q", "query"), "main", 0)

	if len(out.Evidence) != 2 {
		t.Errorf("evidence count = %d, want 2 despite web failure", len(out.Evidence))
	}
	if len(out.WebResults) != 0 {
		t.Errorf("web results = %d, want 0", len(out.WebResults))
	}
}

func TestForSubQuestionExpandsBlankSearchQuery(t *testing.T) {
	papers := &mockTool{name: "arxiv", batches: [][]types.EvidenceItem{paperBatch("a", "b")}}
	rw := &mockRewriter{expandReplies: []string{"expanded query"}}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForSubQuestion(context.Background(), subQ("How does X scale?", ""), "main topic", 0)

	if len(rw.expandCalls) != 1 {
		t.Fatalf("ExpandSubQuestion calls = %d, want 1", len(rw.expandCalls))
	}
	if rw.expandCalls[0] != [2]string{"How does X scale?", "main topic"} {
		t.Errorf("expand call = %v", rw.expandCalls[0])
	}
	if out.QueriesTried[0] != "expanded query" {
		t.Errorf("first query = %q, want the expansion", out.QueriesTried[0])
	}
}

func TestForSubQuestionHonorsCancelledContext(t *testing.T) {
	papers := &mockTool{name: "arxiv", batches: [][]types.EvidenceItem{paperBatch("a", "b")}}
	rw := &mockRewriter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(papers, nil, rw, testCfg())
	out := s.ForSubQuestion(ctx, subQ("q", "query"), "main", 0)

	if out.Iterations != 0 || len(out.QueriesTried) != 0 {
		t.Errorf("cancelled search still ran: %+v", out)
	}
	if papers.calls != 0 {
		t.Errorf("paper tool called %d times after cancel", papers.calls)
	}
}

// --- All ---

func planOf(queries ...string) types.ResearchPlan {
	plan := types.ResearchPlan{MainQuery: "main topic"}
	for _, q := range queries {
		plan.SubQuestions = append(plan.SubQuestions, subQ("Question: "+q, q))
	}
	return plan
}

func TestAllKeepsPlanOrder(t *testing.T) {
	papers := &mockTool{
		name: "arxiv",
		byQuery: map[string][]types.EvidenceItem{
			"q1": paperBatch("a", "b"),
			"q2": paperBatch("c", "d"),
		},
	}
	rw := &mockRewriter{}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	set := s.All(context.Background(), planOf("q1", "q2"))

	keys := set.Keys()
	if len(keys) != 2 || keys[0] != "Question: q1" || keys[1] != "Question: q2" {
		t.Fatalf("keys = %v", keys)
	}
	out, ok := set.Get("Question: q2")
	if !ok || len(out.Evidence) != 2 || out.Evidence[0].ID != "c" {
		t.Errorf("outcome for q2 = %+v", out)
	}
	if set.TotalEvidence() != 4 {
		t.Errorf("total evidence = %d, want 4", set.TotalEvidence())
	}
}

func TestAllParallelKeepsPlanOrder(t *testing.T) {
	papers := &mockTool{
		name: "arxiv",
		byQuery: map[string][]types.EvidenceItem{
			"q1": paperBatch("a", "b"),
			"q2": paperBatch("c", "d"),
			"q3": paperBatch("e", "f"),
		},
	}
	rw := &mockRewriter{}
	cfg := testCfg()
	cfg.EvidenceTarget = 2
	cfg.Parallel = true
	cfg.ParallelLimit = 2

	s := New(papers, nil, rw, cfg)
	set := s.All(context.Background(), planOf("q1", "q2", "q3"))

	keys := set.Keys()
	want := []string{"Question: q1", "Question: q2", "Question: q3"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
	for i, q := range []string{"q1", "q2", "q3"} {
		out, ok := set.Get(want[i])
		if !ok || len(out.Evidence) != 2 {
			t.Fatalf("outcome for %s = %+v", q, out)
		}
	}
}

// --- ForGap ---

func TestForGapOptimizesAndBoundsIterations(t *testing.T) {
	papers := &mockTool{name: "arxiv"} // nothing found
	rw := &mockRewriter{searchReplies: []string{"optimized gap query", "second attempt"}}

	s := New(papers, nil, rw, testCfg())
	out := s.ForGap(context.Background(), "coverage of ablation studies", "main topic")

	if out.SubQuestion != "coverage of ablation studies" {
		t.Errorf("SubQuestion = %q", out.SubQuestion)
	}
	if out.Iterations != 2 {
		t.Errorf("iterations = %d, want the gap bound of 2", out.Iterations)
	}
	if out.QueriesTried[0] != "optimized gap query" {
		t.Errorf("first query = %q, want the optimized one", out.QueriesTried[0])
	}
	if rw.searchCalls[0] != [2]string{"coverage of ablation studies", "main topic"} {
		t.Errorf("optimize call = %v", rw.searchCalls[0])
	}
}

func TestForGapCollectsEvidence(t *testing.T) {
	papers := &mockTool{
		name:    "arxiv",
		byQuery: map[string][]types.EvidenceItem{"optimized gap query": paperBatch("a", "b")},
	}
	rw := &mockRewriter{searchReplies: []string{"optimized gap query"}}
	cfg := testCfg()
	cfg.EvidenceTarget = 2

	s := New(papers, nil, rw, cfg)
	out := s.ForGap(context.Background(), "missing benchmarks", "main topic")

	if len(out.Evidence) != 2 {
		t.Fatalf("evidence count = %d, want 2", len(out.Evidence))
	}
	if out.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", out.Iterations)
	}
}
