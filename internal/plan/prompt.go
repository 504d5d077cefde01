// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"strings"
	"text/template"
)

const planSystemPrompt = "You are a research planning assistant that breaks down complex questions into specific, searchable sub-questions."

const planPromptTemplate = `Decompose this research query into 3-5 specific sub-questions.

Research Query: "{{.Query}}"
{{if .Context}}
The user has also provided the following source material. Use it to create
more targeted and specific sub-questions:

---
{{.Context}}
---
{{end}}
For each sub-question provide:
- "question": the specific research sub-question
- "search_query": an optimized search query (under 10 words, works for arXiv and web)
- "evidence_type": one of "survey", "empirical", "theoretical"

Return JSON format:
{
  "sub_questions": [
    {
      "question": "...",
      "search_query": "...",
      "evidence_type": "..."
    }
  ],
  "approach_notes": "Brief note on research strategy"
}`

var planTmpl = template.Must(template.New("plan").Parse(planPromptTemplate))

func renderPlanPrompt(query, contextText string) (string, error) {
	var b strings.Builder
	err := planTmpl.Execute(&b, struct {
		Query   string
		Context string
	}{Query: query, Context: contextText})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
