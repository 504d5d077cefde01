// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rewrite

import (
	"strings"
	"text/template"
)

// Rewrites run at low temperature. The job is convergent query surgery,
// not creative writing.
const (
	searchTemperature = 0.3
	refineTemperature = 0.4
	expandTemperature = 0.3
)

const searchPromptTemplate = `You are a search query optimizer for academic paper retrieval.
Your job is to rewrite the user's query into an optimized arXiv search query.

Rules:
- Use specific technical terms
- Include relevant synonyms separated by OR
- Remove filler words
- Focus on the most searchable concepts
- Keep it concise (under 15 words)

User query: {{.Query}}
{{if .Context}}Context: {{.Context}}{{end}}

Respond with ONLY the optimized search query, nothing else.`

const refinePromptTemplate = `You are refining a search query for academic papers.

Original query: {{.Query}}
Papers already found:
{{.FoundTitles}}
{{if .Gap}}Gap to fill: {{.Gap}}{{end}}

Write a NEW search query that finds DIFFERENT papers covering
aspects not yet covered by the papers above.

Respond with ONLY the new search query, nothing else.`

const expandPromptTemplate = `Convert this research sub-question into an arXiv search query.

Main research topic: {{.MainQuery}}
Sub-question: {{.Query}}

Write a focused arXiv search query (under 10 words).
Respond with ONLY the query, nothing else.`

var (
	searchTmpl = template.Must(template.New("search").Parse(searchPromptTemplate))
	refineTmpl = template.Must(template.New("refine").Parse(refinePromptTemplate))
	expandTmpl = template.Must(template.New("expand").Parse(expandPromptTemplate))
)

type promptData struct {
	Query       string
	Context     string
	FoundTitles string
	Gap         string
	MainQuery   string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
