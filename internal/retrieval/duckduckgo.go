// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/httputil"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// duckduckgoAPIBase is the DuckDuckGo Instant Answer endpoint. Declared
// as a var so tests can substitute an httptest server.
var duckduckgoAPIBase = "https://api.duckduckgo.com/"

// DuckDuckGoTool queries the DuckDuckGo Instant Answer API for
// supplementary web evidence. No API key required; coverage is
// best-effort and callers treat failures as non-fatal (R2.2).
type DuckDuckGoTool struct {
	cfg    types.SearchConfig
	client *http.Client
}

// NewDuckDuckGoTool builds the web tool with the shared search settings.
func NewDuckDuckGoTool(cfg types.SearchConfig) *DuckDuckGoTool {
	return &DuckDuckGoTool{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the tool identifier.
func (t *DuckDuckGoTool) Name() string { return "duckduckgo" }

// ddgResponse is the Instant Answer API response. Related topics nest
// one level: a topic either is a hit or groups further topics.
type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

// Search queries the Instant Answer API and maps the abstract plus
// related topics to evidence items of kind web.
func (t *DuckDuckGoTool) Search(ctx context.Context, query string, max int) ([]types.EvidenceItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty web query")
	}
	if max <= 0 {
		max = 3
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckduckgoAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, t.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo API returned HTTP %d", resp.StatusCode)
	}

	var ddg ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo response: %w", err)
	}

	var results []types.EvidenceItem
	if ddg.AbstractText != "" && ddg.AbstractURL != "" {
		results = append(results, types.EvidenceItem{
			ID:      ddg.AbstractURL,
			Title:   ddg.Heading,
			Snippet: ddg.AbstractText,
			Kind:    types.SourceWeb,
			URL:     ddg.AbstractURL,
		})
	}

	results = appendTopics(results, ddg.RelatedTopics, max)
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}

// appendTopics flattens related topics (including nested groups) into
// evidence items until max is reached.
func appendTopics(results []types.EvidenceItem, topics []ddgTopic, max int) []types.EvidenceItem {
	for _, topic := range topics {
		if len(results) >= max {
			break
		}
		if len(topic.Topics) > 0 {
			results = appendTopics(results, topic.Topics, max)
			continue
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		results = append(results, types.EvidenceItem{
			ID:      topic.FirstURL,
			Title:   topicTitle(topic.Text),
			Snippet: topic.Text,
			Kind:    types.SourceWeb,
			URL:     topic.FirstURL,
		})
	}
	return results
}

// topicTitle takes the leading phrase of a related-topic text as its
// title; DuckDuckGo formats these as "Name - description".
func topicTitle(text string) string {
	if head, _, found := strings.Cut(text, " - "); found {
		return head
	}
	return text
}
