// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package critique

import (
	"strings"
	"text/template"
)

const judgePromptTemplate = `You are a research quality evaluator.

Research Goal: {{.MainQuery}}

Sub-questions planned:
{{.SubQuestionList}}

Findings so far:
{{.FindingsBlock}}

Total papers found: {{.TotalPapers}}

Evaluate:
1. Score overall completeness from 0.0 to 1.0
2. List any gaps (sub-questions not well-covered)
3. Brief feedback

Return JSON:
{
  "score": 0.0-1.0,
  "gaps": ["gap1", "gap2"],
  "feedback": "brief assessment"
}`

var judgeTmpl = template.Must(template.New("judge").Parse(judgePromptTemplate))

type judgeData struct {
	MainQuery       string
	SubQuestionList string
	FindingsBlock   string
	TotalPapers     int
}

func renderJudgePrompt(data judgeData) (string, error) {
	var b strings.Builder
	if err := judgeTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
