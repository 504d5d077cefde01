// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/httputil"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivTool queries the arXiv Atom API for academic papers (R2.1).
type ArxivTool struct {
	cfg    types.SearchConfig
	client *http.Client
}

// NewArxivTool builds the arXiv tool with the shared search settings.
func NewArxivTool(cfg types.SearchConfig) *ArxivTool {
	return &ArxivTool{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the tool identifier.
func (t *ArxivTool) Name() string { return "arxiv" }

// Search queries arXiv sorted by relevance and maps entries to evidence
// items of kind paper (R2.1-R2.2).
func (t *ArxivTool) Search(ctx context.Context, query string, max int) ([]types.EvidenceItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if max <= 0 {
		max = 5
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(max))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, t.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.EvidenceItem
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		item := types.EvidenceItem{
			ID:        arxivID,
			Title:     collapseWhitespace(entry.Title),
			Snippet:   collapseWhitespace(entry.Summary),
			Kind:      types.SourcePaper,
			URL:       pdfLink(entry, arxivID),
			Published: entry.Published,
		}

		for _, a := range entry.Authors {
			item.Authors = append(item.Authors, strings.TrimSpace(a.Name))
		}

		if entry.PrimaryCategory.Term != "" {
			item.Categories = append(item.Categories, entry.PrimaryCategory.Term)
		}
		for _, c := range entry.Categories {
			if c.Term != "" && !slices.Contains(item.Categories, c.Term) {
				item.Categories = append(item.Categories, c.Term)
			}
		}

		results = append(results, item)
	}
	return results, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Authors         []arxivAuthor   `xml:"author"`
	Links           []arxivLink     `xml:"link"`
	PrimaryCategory arxivCategory   `xml:"primary_category"`
	Categories      []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1"). The
// version suffix stays: different versions are distinct evidence.
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return strings.TrimSpace(idURL)
	}
	return idURL[idx+len(prefix):]
}

// pdfLink returns the entry's PDF link, falling back to the canonical
// arXiv PDF URL for the ID.
func pdfLink(entry arxivEntry, arxivID string) string {
	for _, l := range entry.Links {
		if l.Title == "pdf" && l.Href != "" {
			return l.Href
		}
	}
	return "https://arxiv.org/pdf/" + arxivID
}
