package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"headline", "Council Approves Budget", "council-approves-budget"},
		{"punctuation", "Storm hits coast: 3 dead, 40 injured!", "storm-hits-coast-3-dead-40-injured"},
		{"apostrophe", "Mayor's office responds", "mayors-office-responds"},
		{"curly apostrophe", "Mayor’s office responds", "mayors-office-responds"},
		{"accents", "Café owners protest in Zürich", "cafe-owners-protest-in-zurich"},
		{"cyrillic", "Привет мир", "privet-mir"},
		{"underscores and dashes", "live_blog -- day 2", "live-blog-day-2"},
		{"surrounding noise", "  ...Breaking...  ", "breaking"},
		{"already a slug", "election-night", "election-night"},
		{"only punctuation", "?!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_TruncatesAtWordBoundary(t *testing.T) {
	headline := strings.Repeat("parliament debates ", 10)
	got := Slugify(headline)

	if len(got) > MaxSlugLength {
		t.Errorf("len(Slugify()) = %d, want <= %d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("Slugify() = %q ends with a hyphen", got)
	}
	for _, word := range strings.Split(got, "-") {
		if word != "parliament" && word != "debates" {
			t.Fatalf("Slugify() cut a word in half: %q", got)
		}
	}

	long := strings.Repeat("a", MaxSlugLength+10)
	if got := Slugify(long); got != strings.Repeat("a", MaxSlugLength) {
		t.Errorf("single long word not cut at the limit: %d chars", len(got))
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"council-approves-budget", true},
		{"election-night-4", true},
		{"2026", true},
		{"", false},
		{"Upper-Case", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"has space", false},
		{"café", false},
		{"../etc", false},
	}

	for _, tt := range tests {
		if got := IsValidSlug(tt.slug); got != tt.want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}
