// Package tools implements the research toolset the evidence agent calls:
// web search backends, Wikipedia, news search, page fetching, and Wikidata
// entity lookup. Every tool speaks the same contract and returns free text
// the agent (and the evidence extractor) can read.
package tools

import (
	"context"
	"strings"
)

// Tool is a single research capability exposed to the agent. Invoke takes
// the agent-chosen query (or URL) and returns readable text. Tools report
// transport problems as readable text too, so the agent can recover by
// trying another tool; the error return is reserved for context
// cancellation.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, query string) (string, error)
}

// searchResult is the shape all search backends normalize into
type searchResult struct {
	Title   string
	URL     string
	Snippet string
	Extra   []string // optional extra "Key: value" lines between URL and Snippet
}

// formatSearchResults renders results as labelled blocks separated by
// "---" dividers. The evidence extractor depends on this exact shape.
func formatSearchResults(results []searchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		var b strings.Builder
		b.WriteString("Title: ")
		b.WriteString(r.Title)
		b.WriteString("\nURL: ")
		b.WriteString(r.URL)
		for _, line := range r.Extra {
			b.WriteString("\n")
			b.WriteString(line)
		}
		b.WriteString("\nSnippet: ")
		b.WriteString(r.Snippet)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n---\n\n")
}
