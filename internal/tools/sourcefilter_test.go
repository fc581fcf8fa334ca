package tools

import "testing"

func TestIsBlockedURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		blocked bool
	}{
		{"social media", "https://twitter.com/someuser/status/123", true},
		{"subdomain of blocked domain", "https://old.reddit.com/r/news/comments/abc", true},
		{"fact-check site", "https://www.snopes.com/fact-check/some-claim/", true},
		{"tabloid", "https://www.dailymail.co.uk/news/article-123.html", true},
		{"video platform short link", "https://youtu.be/dQw4w9WgXcQ", true},
		{"reputable newspaper", "https://www.reuters.com/world/some-story/", false},
		{"wikipedia", "https://en.wikipedia.org/wiki/Amazon_(company)", false},
		{"government site", "https://www.cdc.gov/flu/season/index.html", false},
		{"empty URL", "", false},
		{"not blocked by suffix overlap", "https://notreddit.com/page", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlockedURL(tt.url); got != tt.blocked {
				t.Errorf("Expected IsBlockedURL(%q) = %v, got %v", tt.url, tt.blocked, got)
			}
		})
	}
}

func TestFilterResults(t *testing.T) {
	results := []searchResult{
		{Title: "Reuters story", URL: "https://www.reuters.com/a"},
		{Title: "Reddit thread", URL: "https://www.reddit.com/r/b"},
		{Title: "BBC story", URL: "https://www.bbc.com/news/c"},
	}

	filtered := filterResults(results)
	if len(filtered) != 2 {
		t.Fatalf("Expected 2 results after filtering, got %d", len(filtered))
	}
	if filtered[0].Title != "Reuters story" || filtered[1].Title != "BBC story" {
		t.Errorf("Expected blocked result dropped, got %+v", filtered)
	}
}

func TestFormatSearchResults(t *testing.T) {
	out := formatSearchResults([]searchResult{
		{Title: "First", URL: "https://a.example/1", Snippet: "snippet one"},
		{Title: "Second", URL: "https://b.example/2", Snippet: "snippet two", Extra: []string{"Source: B"}},
	})

	want := "Title: First\nURL: https://a.example/1\nSnippet: snippet one" +
		"\n\n---\n\n" +
		"Title: Second\nURL: https://b.example/2\nSource: B\nSnippet: snippet two"
	if out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}
