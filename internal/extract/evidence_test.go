package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/veridex/internal/model"
)

func TestExtract_SearchBlocks(t *testing.T) {
	output := "Title: First story\nURL: https://www.reuters.com/a\nSnippet: something happened" +
		"\n\n---\n\n" +
		"Title: Second story\nURL: https://www.bbc.com/b\nSource: BBC\nSnippet: more detail"

	records := NewExtractor().Extract("web_search", output)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "First story" {
		t.Errorf("Expected title parsed, got %q", first.Title)
	}
	if first.SourceURL != "https://www.reuters.com/a" {
		t.Errorf("Expected URL parsed, got %q", first.SourceURL)
	}
	if first.SourceType != model.SourceWeb {
		t.Errorf("Expected web source type, got %q", first.SourceType)
	}
	if !strings.Contains(first.Content, "something happened") {
		t.Errorf("Expected block text as content, got %q", first.Content)
	}
}

func TestExtract_PageShape(t *testing.T) {
	output := "Page: Test Article\nURL: https://example.com/story\n\nThe full article body."

	records := NewExtractor().Extract("fetch_page", output)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Test Article" {
		t.Errorf("Expected page title, got %q", records[0].Title)
	}
	if records[0].SourceURL != "https://example.com/story" {
		t.Errorf("Expected page URL, got %q", records[0].SourceURL)
	}
}

func TestExtract_SourceTypes(t *testing.T) {
	tests := []struct {
		toolName string
		want     model.SourceType
	}{
		{"wikipedia_search", model.SourceWikipedia},
		{"news_search", model.SourceNews},
		{"serper_search", model.SourceWeb},
		{"fetch_page", model.SourceWeb},
	}

	for _, tt := range tests {
		t.Run(tt.toolName, func(t *testing.T) {
			records := NewExtractor().Extract(tt.toolName, "Title: x\nURL: https://e.example/x\nSnippet: y")
			if len(records) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(records))
			}
			if records[0].SourceType != tt.want {
				t.Errorf("Expected source type %q, got %q", tt.want, records[0].SourceType)
			}
		})
	}
}

func TestExtract_Sentinels(t *testing.T) {
	sentinelOutputs := []string{
		"",
		"No results found.",
		"No Wikipedia results found.",
		"No SearXNG results found. Try web_search as a fallback.",
		"No Brave search results found.",
		"No Google results found.",
		"No news results found.",
		"Web search failed. Try another search tool.",
		"Wikidata lookup failed. Continue without entity information.",
		`No Wikidata entity found for "Acme Holdings".`,
		"Blocked source: https://reddit.com/x is not a citable source (social media, forum, or content farm). Find a reputable publication instead.",
		"Failed to fetch https://example.com: HTTP 404",
	}

	extractor := NewExtractor()
	for _, output := range sentinelOutputs {
		if records := extractor.Extract("web_search", output); len(records) != 0 {
			t.Errorf("Expected no records for %q, got %d", output, len(records))
		}
	}
}

func TestExtract_DedupesByURL(t *testing.T) {
	extractor := NewExtractor()

	first := extractor.Extract("web_search",
		"Title: A\nURL: https://example.com/same\nSnippet: from search one")
	second := extractor.Extract("brave_search",
		"Title: A again\nURL: https://example.com/same\nSnippet: from search two"+
			"\n\n---\n\n"+
			"Title: B\nURL: https://example.com/other\nSnippet: new")

	if len(first) != 1 {
		t.Fatalf("Expected 1 record from first call, got %d", len(first))
	}
	if len(second) != 1 {
		t.Fatalf("Expected duplicate URL dropped, got %d records", len(second))
	}
	if second[0].SourceURL != "https://example.com/other" {
		t.Errorf("Expected only the new URL kept, got %q", second[0].SourceURL)
	}
}

func TestExtract_URLLessRecordsNeverDedupe(t *testing.T) {
	extractor := NewExtractor()

	report := "Wikidata: Amazon (QID: Q3884)\n- Owned by: Jeff Bezos"
	first := extractor.Extract("entity_lookup", report)
	second := extractor.Extract("entity_lookup", "Wikidata: Jeff Bezos (QID: Q312)\n- Owner of: Blue Origin")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected URL-less records kept, got %d and %d", len(first), len(second))
	}
}

func TestExtract_TruncatesLongContent(t *testing.T) {
	long := "Title: Big\nURL: https://example.com/big\nSnippet: " + strings.Repeat("x", 5000)

	records := NewExtractor().Extract("web_search", long)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if len(records[0].Content) != 3000 {
		t.Errorf("Expected content truncated to 3000, got %d", len(records[0].Content))
	}
}

func TestExtract_DedupeScopeIsPerExtractor(t *testing.T) {
	output := "Title: A\nURL: https://example.com/same\nSnippet: s"

	if records := NewExtractor().Extract("web_search", output); len(records) != 1 {
		t.Fatalf("Expected 1 record from first extractor, got %d", len(records))
	}
	if records := NewExtractor().Extract("web_search", output); len(records) != 1 {
		t.Fatalf("Expected fresh extractor to keep the URL again, got %d", len(records))
	}
}

func TestExtract_ContentFieldLifted(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "snippet label",
			output: "Title: Story\nURL: https://example.com/a\nSnippet: just the snippet",
			want:   "just the snippet",
		},
		{
			name:   "summary label",
			output: "Title: Article\nURL: https://en.wikipedia.org/wiki/A\nSummary: the lead paragraph",
			want:   "the lead paragraph",
		},
		{
			name:   "multi-line snippet keeps its tail",
			output: "Title: Story\nURL: https://example.com/b\nSource: BBC\nSnippet: first line\nsecond line",
			want:   "first line\nsecond line",
		},
		{
			name:   "no labels falls back to raw block",
			output: "Wikidata: Acme Corp (QID: Q1)\n- owned_by: Holdings Inc",
			want:   "Wikidata: Acme Corp (QID: Q1)\n- owned_by: Holdings Inc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := NewExtractor().Extract("web_search", tt.output)
			if len(records) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(records))
			}
			if records[0].Content != tt.want {
				t.Errorf("Expected content %q, got %q", tt.want, records[0].Content)
			}
			if strings.Contains(records[0].Content, "Title: ") && tt.name != "no labels falls back to raw block" {
				t.Errorf("Expected labels stripped from content, got %q", records[0].Content)
			}
		})
	}
}

func TestExtract_TruncationKeepsValidUTF8(t *testing.T) {
	// One ASCII byte then 3-byte runes, so the 3000-byte limit lands
	// inside a rune and the cut must back up to the rune boundary.
	long := "Title: Big\nURL: https://example.com/utf8\nSnippet: x" + strings.Repeat("末", 1700)

	records := NewExtractor().Extract("web_search", long)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	content := records[0].Content
	if len(content) > 3000 {
		t.Errorf("Expected content capped at 3000 bytes, got %d", len(content))
	}
	if !utf8.ValidString(content) {
		t.Error("Expected truncated content to remain valid UTF-8")
	}
}
