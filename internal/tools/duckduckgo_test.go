package tools

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const ddgResultsPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result results_links">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.reuters.com%2Fstory-one&amp;rut=abc">Reuters: story one</a>
    </h2>
    <a class="result__snippet">First snippet text.</a>
  </div>
  <div class="result results_links">
    <h2 class="result__title">
      <a class="result__a" href="https://www.bbc.com/news/story-two">BBC story two</a>
    </h2>
    <a class="result__snippet">Second <b>snippet</b> text.</a>
  </div>
  <div class="result results_links">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.reddit.com%2Fr%2Fthread">Reddit thread</a>
    </h2>
    <a class="result__snippet">Forum chatter.</a>
  </div>
</div>
</body></html>`

func TestParseDuckDuckGoResults(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(ddgResultsPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	results := parseDuckDuckGoResults(doc)
	if len(results) != 3 {
		t.Fatalf("Expected 3 raw results, got %d", len(results))
	}

	if results[0].URL != "https://www.reuters.com/story-one" {
		t.Errorf("Expected redirect unwrapped, got %q", results[0].URL)
	}
	if results[0].Title != "Reuters: story one" {
		t.Errorf("Expected title preserved, got %q", results[0].Title)
	}
	if results[1].Snippet != "Second snippet text." {
		t.Errorf("Expected nested markup flattened, got %q", results[1].Snippet)
	}

	filtered := filterResults(results)
	if len(filtered) != 2 {
		t.Fatalf("Expected reddit result filtered, got %d results", len(filtered))
	}
}

func TestResolveDuckDuckGoHref(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"redirect wrapper", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=x", "https://example.com/page"},
		{"direct link", "https://example.com/direct", "https://example.com/direct"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveDuckDuckGoHref(tt.href); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
