// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// skipTags are elements whose text never belongs in extracted content.
var skipTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"header": true,
}

// contentClassRe recognizes div classes that typically wrap the main
// article body on blog and news pages.
var contentClassRe = regexp.MustCompile(`content|article|post|entry`)

func (e *Extractor) fromHTML(r io.Reader, sourceURL string) (Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("parsing HTML: %w", err)
	}

	root := findMainContent(doc)
	if root == nil {
		root = doc
	}
	var lines []string
	collectText(root, &lines)
	text := strings.Join(lines, "\n")

	return Result{
		Text:      capText(text, e.cfg.MaxTextChars),
		Title:     findTitle(doc),
		URL:       sourceURL,
		CharCount: len(text),
	}, nil
}

// findMainContent picks the most content-like element of the page. It
// prefers semantic containers over the whole body so navigation chrome
// stays out of the extracted text.
func findMainContent(doc *html.Node) *html.Node {
	if n := findElement(doc, "article", nil); n != nil {
		return n
	}
	if n := findElement(doc, "main", nil); n != nil {
		return n
	}
	if n := findElement(doc, "div", contentClassRe); n != nil {
		return n
	}
	return findElement(doc, "body", nil)
}

// findElement returns the first element named tag in document order. When
// classRe is non-nil the element's class attribute must match it.
func findElement(n *html.Node, tag string, classRe *regexp.Regexp) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		if classRe == nil || classRe.MatchString(attrValue(n, "class")) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, classRe); found != nil {
			return found
		}
	}
	return nil
}

// collectText appends the trimmed text fragments under n, one per line,
// skipping script, style and page chrome elements.
func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*lines = append(*lines, s)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}

func findTitle(doc *html.Node) string {
	title := findElement(doc, "title", nil)
	if title == nil || title.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(title.FirstChild.Data)
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
