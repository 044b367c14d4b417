package service

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	src := "# Heading\n\nFirst **paragraph** here.\n\n<script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

	got, err := renderMarkdown(src)
	if err != nil {
		t.Fatalf("renderMarkdown: %v", err)
	}
	if strings.Contains(got.HTML, "<script") {
		t.Errorf("HTML contains script: %q", got.HTML)
	}
	if !strings.Contains(got.HTML, "<table>") {
		t.Errorf("HTML missing GFM table: %q", got.HTML)
	}
	if got.Excerpt != "First paragraph here." {
		t.Errorf("Excerpt = %q", got.Excerpt)
	}
	if got.WordCount == 0 {
		t.Error("WordCount = 0")
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	got, err := renderMarkdown("")
	if err != nil {
		t.Fatalf("renderMarkdown: %v", err)
	}
	if got.Excerpt != "" || got.WordCount != 0 || readingMinutes(got.WordCount) != 0 {
		t.Errorf("got %+v, want empty", got)
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"the quick brown fox jumps", 12, "the quick…"},
		{"abcdefghijklmnop", 5, "abcde…"},
		{"héllo wörld again", 11, "héllo wörld…"},
	}
	for _, tt := range tests {
		if got := truncateText(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateText(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestReadingMinutes(t *testing.T) {
	tests := []struct{ words, want int }{
		{0, 0}, {1, 1}, {200, 1}, {201, 2}, {1000, 5},
	}
	for _, tt := range tests {
		if got := readingMinutes(tt.words); got != tt.want {
			t.Errorf("readingMinutes(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestSanitizeComment(t *testing.T) {
	if got := sanitizeComment("  <p>Nice <em>work</em></p>  "); got != "Nice work" {
		t.Errorf("sanitizeComment = %q, want Nice work", got)
	}
}
