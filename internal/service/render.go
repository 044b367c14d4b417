// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Rendering limits.
const (
	ExcerptLength  = 200
	WordsPerMinute = 200
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// htmlSanitizer cleans rendered article HTML. UGCPolicy keeps formatting,
// links and images but strips scripts and event handlers.
var htmlSanitizer = bluemonday.UGCPolicy()

// commentPolicy strips every tag; comments are stored as plain text.
var commentPolicy = bluemonday.StrictPolicy()

// renderedContent is the HTML form of an article body with derived stats.
type renderedContent struct {
	HTML      string
	Excerpt   string
	WordCount int
}

// renderMarkdown converts markdown to sanitized HTML and extracts an excerpt
// and word count from the result.
func renderMarkdown(src string) (renderedContent, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return renderedContent{}, err
	}
	html := htmlSanitizer.Sanitize(buf.String())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return renderedContent{HTML: html}, err
	}

	excerpt := ""
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		excerpt = strings.Join(strings.Fields(s.Text()), " ")
		return excerpt == ""
	})

	return renderedContent{
		HTML:      html,
		Excerpt:   truncateText(excerpt, ExcerptLength),
		WordCount: len(strings.Fields(doc.Text())),
	}, nil
}

// truncateText shortens s to at most n runes on a word boundary.
func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if r[n] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > n/2 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// readingMinutes estimates reading time, never less than one minute for
// non-empty content.
func readingMinutes(words int) int {
	if words == 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// sanitizeComment reduces user input to trimmed plain text.
func sanitizeComment(s string) string {
	return strings.TrimSpace(commentPolicy.Sanitize(s))
}
