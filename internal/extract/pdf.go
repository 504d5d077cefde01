// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// sectionHeadingRe recognizes the headings academic papers are carved
// into. A heading must start its line; numbered headings like
// "1. Introduction" are deliberately not matched so stray inline mentions
// do not split the text.
var sectionHeadingRe = regexp.MustCompile(
	`(?i)^(abstract|introduction|related work|method(?:ology|s)?|experiment(?:s|al)?(?:\s+results)?|results?|discussion|conclusion(?:s)?)\b`,
)

func (e *Extractor) fromPDFFile(path string) (Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return e.pdfResult(r, "")
}

func (e *Extractor) fromPDFBytes(data []byte, sourceURL string) (Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("opening PDF from %s: %w", sourceURL, err)
	}
	return e.pdfResult(r, sourceURL)
}

func (e *Extractor) pdfResult(r *pdf.Reader, sourceURL string) (Result, error) {
	plain, err := r.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("extracting PDF text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return Result{}, fmt.Errorf("extracting PDF text: %w", err)
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.New("no text recovered from PDF")
	}

	return Result{
		Text:      capText(text, e.cfg.MaxTextChars),
		URL:       sourceURL,
		Sections:  SplitSections(text),
		CharCount: len(text),
	}, nil
}

// SplitSections carves paper text into its academic sections. Keys are the
// lowercased heading lines as they appear in the text; content ahead of the
// first recognized heading lands under "preamble". Headings whose section
// turned out empty are dropped.
func SplitSections(text string) map[string]string {
	sections := make(map[string]string)
	current := "preamble"
	var body []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if sectionHeadingRe.MatchString(trimmed) {
			if len(body) > 0 {
				sections[current] = strings.Join(body, "\n")
			}
			current = strings.ToLower(trimmed)
			body = nil
			continue
		}
		body = append(body, line)
	}
	if len(body) > 0 {
		sections[current] = strings.Join(body, "\n")
	}
	return sections
}
