// Package extract recovers readable text from web pages and PDF documents.
// Extracted text enters the pipeline as user-supplied context for research
// planning, so callers cap it with ExtractConfig rather than trusting the
// source to be small.
// Implements: prd008-extraction (R1, R2);
//
//	docs/ARCHITECTURE § Content Extraction.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhilashpatra04/Deepresercher/internal/httputil"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Result holds the readable content recovered from one source.
type Result struct {
	// Text is the extracted body text, capped at ExtractConfig.MaxTextChars.
	Text string `json:"text"`

	// Title is the document title when one could be recovered.
	Title string `json:"title,omitempty"`

	// URL is the source location for fetched documents.
	URL string `json:"url,omitempty"`

	// Sections maps lowercased heading lines to their content. Text ahead
	// of the first recognized heading is stored under "preamble". Only PDF
	// and plain-text sources are sectioned.
	Sections map[string]string `json:"sections,omitempty"`

	// CharCount is the length of the full extracted text before capping.
	CharCount int `json:"char_count"`
}

// Extractor fetches and parses documents. Safe for concurrent use.
type Extractor struct {
	cfg    types.ExtractConfig
	client *http.Client
}

// New returns an Extractor configured with cfg.
func New(cfg types.ExtractConfig) *Extractor {
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// FromURL fetches a document and extracts its readable text. PDF responses
// are detected by content type and parsed for academic sections; everything
// else is treated as HTML.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.client, req, 0)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "pdf") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, fmt.Errorf("reading %s: %w", rawURL, err)
		}
		return e.fromPDFBytes(data, rawURL)
	}
	return e.fromHTML(resp.Body, rawURL)
}

// FromFile extracts text from a local document. PDF files are parsed for
// text and academic sections; anything else is read as plain text and
// sectioned the same way.
func (e *Extractor) FromFile(path string) (Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return e.fromPDFFile(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.New("file contains no text")
	}
	return Result{
		Text:      capText(text, e.cfg.MaxTextChars),
		Sections:  SplitSections(text),
		CharCount: len(text),
	}, nil
}

// capText truncates text to max bytes. A max of zero or less means no cap.
func capText(text string, max int) string {
	if max > 0 && len(text) > max {
		return text[:max]
	}
	return text
}
