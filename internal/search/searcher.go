// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs the iterative evidence-gathering loop: search,
// verify, rewrite, search again. Paper results drive the loop; web
// results ride along as supplementary context and never block it.
// Implements: prd003-retrieval (R1-R3, R5);
//
//	docs/ARCHITECTURE § Iterative Search.
package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhilashpatra04/Deepresercher/internal/retrieval"
	"github.com/abhilashpatra04/Deepresercher/internal/verify"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// gapSearchIterations bounds re-search for a critic gap. Gap queries are
// already optimized once, so they get a shorter loop than sub-questions.
const gapSearchIterations = 2

// QueryRewriter optimizes queries between search iterations.
type QueryRewriter interface {
	ForSearch(ctx context.Context, query, hint string) string
	RefineAfterResults(ctx context.Context, originalQuery string, found []types.EvidenceItem, gap string) string
	ExpandSubQuestion(ctx context.Context, subQuestion, mainQuery string) string
}

// Searcher gathers evidence for sub-questions. The web tool may be nil;
// paper search alone then drives the loop.
type Searcher struct {
	papers   retrieval.Tool
	web      retrieval.Tool
	rewriter QueryRewriter
	cfg      types.SearchConfig
}

// New returns a Searcher using papers as the primary tool and web as the
// supplementary one.
func New(papers, web retrieval.Tool, rewriter QueryRewriter, cfg types.SearchConfig) *Searcher {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 3
	}
	if cfg.EvidenceTarget <= 0 {
		cfg.EvidenceTarget = 5
	}
	return &Searcher{papers: papers, web: web, rewriter: rewriter, cfg: cfg}
}

// ForSubQuestion runs the iterative search loop for one sub-question.
// Each iteration searches, verifies the results, and either accepts them
// or rewrites the query for the next pass. The loop stops early once the
// evidence target is reached. Tool failures count as empty results so a
// flaky backend triggers a rewrite instead of aborting the question.
func (s *Searcher) ForSubQuestion(ctx context.Context, sq types.SubQuestion, mainQuery string, maxIterations int) types.SearchOutcome {
	if maxIterations <= 0 {
		maxIterations = s.cfg.MaxIterations
	}

	outcome := types.SearchOutcome{SubQuestion: sq.Question}
	seenPapers := make(map[string]bool)
	seenWebURLs := make(map[string]bool)

	searchQuery := sq.SearchQuery
	if searchQuery == "" {
		searchQuery = s.rewriter.ExpandSubQuestion(ctx, sq.Question, mainQuery)
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		if ctx.Err() != nil {
			return outcome
		}

		outcome.Iterations++
		outcome.QueriesTried = append(outcome.QueriesTried, searchQuery)

		papers, err := s.papers.Search(ctx, searchQuery, s.cfg.PaperResults)
		if err != nil {
			papers = nil
		}

		if s.web != nil {
			if webHits, err := s.web.Search(ctx, searchQuery, s.cfg.WebResults); err == nil {
				for _, hit := range webHits {
					if seenWebURLs[hit.URL] {
						continue
					}
					seenWebURLs[hit.URL] = true
					outcome.WebResults = append(outcome.WebResults, hit)
				}
			}
		}

		if check := verify.Search(papers); !check.Valid {
			if iteration < maxIterations-1 {
				hint := fmt.Sprintf("Previous query '%s' returned no results", searchQuery)
				searchQuery = s.rewriter.ForSearch(ctx, sq.Question, hint)
			}
			continue
		}

		for _, p := range papers {
			if seenPapers[p.ID] {
				continue
			}
			seenPapers[p.ID] = true
			outcome.Evidence = append(outcome.Evidence, p)
		}

		if len(outcome.Evidence) >= s.cfg.EvidenceTarget {
			break
		}

		if iteration < maxIterations-1 {
			searchQuery = s.rewriter.RefineAfterResults(ctx, searchQuery, outcome.Evidence, "")
		}
	}

	return outcome
}

// All gathers evidence for every sub-question in the plan, in plan order.
// With cfg.Parallel set the questions run concurrently under
// cfg.ParallelLimit; outcome order still follows the plan.
func (s *Searcher) All(ctx context.Context, plan types.ResearchPlan) *types.OutcomeSet {
	if s.cfg.Parallel {
		return s.allParallel(ctx, plan)
	}

	set := types.NewOutcomeSet()
	for _, sq := range plan.SubQuestions {
		set.Add(sq.Question, s.ForSubQuestion(ctx, sq, plan.MainQuery, s.cfg.MaxIterations))
	}
	return set
}

func (s *Searcher) allParallel(ctx context.Context, plan types.ResearchPlan) *types.OutcomeSet {
	outcomes := make([]types.SearchOutcome, len(plan.SubQuestions))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.cfg.ParallelLimit
	if limit <= 0 {
		limit = -1
	}
	g.SetLimit(limit)

	for i, sq := range plan.SubQuestions {
		g.Go(func() error {
			outcomes[i] = s.ForSubQuestion(gctx, sq, plan.MainQuery, s.cfg.MaxIterations)
			return nil
		})
	}
	_ = g.Wait()

	set := types.NewOutcomeSet()
	for i, outcome := range outcomes {
		set.Add(plan.SubQuestions[i].Question, outcome)
	}
	return set
}

// ForGap searches for evidence closing a critic-identified gap. The gap
// text is first optimized into a search query against the main topic.
func (s *Searcher) ForGap(ctx context.Context, gap, mainQuery string) types.SearchOutcome {
	optimized := s.rewriter.ForSearch(ctx, gap, mainQuery)
	sq := types.SubQuestion{
		Question:     gap,
		SearchQuery:  optimized,
		EvidenceKind: types.EvidenceSurvey,
	}
	return s.ForSubQuestion(ctx, sq, mainQuery, gapSearchIterations)
}
