// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"strings"
	"text/template"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// maxFollowupReportChars bounds the prior report folded into a
// follow-up prompt.
const maxFollowupReportChars = 3000

// maxFollowupSourceChars bounds the prior source material folded into a
// follow-up prompt.
const maxFollowupSourceChars = 2000

const followupSystemPrompt = "You are a research assistant. Answer questions based on " +
	"the research findings provided. Be specific and cite " +
	"relevant papers or sources when possible."

const followupPromptTemplate = `Based on the following research context, answer the user's follow-up question.

{{.Context}}

User's Question: {{.Question}}

Provide a detailed, well-referenced answer based on the research findings above.
If the answer requires information not in the context, say so clearly.`

var followupTmpl = template.Must(template.New("followup").Parse(followupPromptTemplate))

// Followup answers a question against a prior run's report and source
// material, keeping the conversation grounded in what was actually
// found. One unstructured call; no new search.
func (p *Pipeline) Followup(ctx context.Context, question string, prior *types.ResearchResult) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuery
	}

	var parts []string
	if prior != nil && prior.Report != "" {
		parts = append(parts, "Research Report:\n"+clip(prior.Report, maxFollowupReportChars))
	}
	if prior != nil && prior.UserContext != "" {
		parts = append(parts, "User's Source Material:\n"+clip(prior.UserContext, maxFollowupSourceChars))
	}

	var b strings.Builder
	err := followupTmpl.Execute(&b, struct {
		Context  string
		Question string
	}{Context: strings.Join(parts, "\n\n---\n\n"), Question: question})
	if err != nil {
		return "", err
	}

	return p.deps.Gateway.Generate(ctx, llm.Request{
		Prompt: b.String(),
		System: followupSystemPrompt,
	})
}
