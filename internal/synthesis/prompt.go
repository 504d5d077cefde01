// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"strings"
	"text/template"
)

// reportTemperature is the sampling temperature for report generation
// and improvement. Higher than structured calls; the report should read
// as prose, not a form.
const reportTemperature = 0.5

const reportPromptTemplate = `You are a research synthesizer. Write a comprehensive research
summary based on the papers found for each sub-question.

Research Query: {{.Query}}

Findings by Sub-Question:
{{.Context}}

Write a structured research summary with:
1. **Overview** — Brief answer to the main query
2. **Key Findings** — Most important discoveries from the papers
3. **Methodology Trends** — Common approaches and techniques
4. **Open Challenges** — Gaps and future directions
5. **Key Papers** — List the most important papers with brief descriptions

Use specific paper titles and findings. Do NOT hallucinate — only
reference papers that appear in the findings above.
`

const improvePromptTemplate = `Improve this research summary based on the feedback below.

Original Query: {{.Query}}

Current Summary:
{{.Report}}

Quality Feedback: {{.Feedback}}

Available Papers (for grounding):
{{.Context}}

Write an improved version that addresses the feedback.
Keep citations grounded in actual papers listed above.`

var (
	reportTmpl  = template.Must(template.New("report").Parse(reportPromptTemplate))
	improveTmpl = template.Must(template.New("improve").Parse(improvePromptTemplate))
)

type promptData struct {
	Query    string
	Context  string
	Report   string
	Feedback string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
