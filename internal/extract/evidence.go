// Package extract turns the research tools' free-text output into
// normalized evidence records.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/veridex/internal/model"
)

// blockDelimiter separates results in multi-result tool output
const blockDelimiter = "\n\n---\n\n"

// maxContentLength caps each record's content
const maxContentLength = 3000

// sentinels are exact "no results" outputs that yield no records
var sentinels = map[string]struct{}{
	"No results found.":                                       {},
	"No Wikipedia results found.":                             {},
	"No Google results found.":                                {},
	"No Brave search results found.":                          {},
	"No news results found.":                                  {},
	"No SearXNG results found. Try web_search as a fallback.": {},
}

// sentinelPrefixes catch tool failure and rejection messages
var sentinelPrefixes = []string{
	"SearXNG search failed.",
	"Google search failed.",
	"Brave search failed.",
	"Web search failed.",
	"Wikipedia search failed.",
	"News search failed.",
	"Wikidata lookup failed.",
	"No Wikidata entity found",
	"Blocked source:",
	"Invalid URL.",
	"Failed to fetch",
	"Failed to parse page",
	"Fetching ",
	"Non-HTML content type",
	"Page at ",
	"Entity name is empty.",
}

// Extractor parses tool output into evidence records, deduplicating by
// URL. The URL set is scoped to one research cycle: build a fresh
// Extractor per sub-claim and discard it afterwards.
type Extractor struct {
	seenURLs map[string]struct{}
}

// NewExtractor creates an extractor with an empty dedupe set
func NewExtractor() *Extractor {
	return &Extractor{seenURLs: make(map[string]struct{})}
}

// Extract parses one tool invocation's output into evidence records. The
// tool name determines the source type. Sentinel outputs yield nothing.
func (e *Extractor) Extract(toolName, output string) []model.EvidenceRecord {
	output = strings.TrimSpace(output)
	if output == "" || isSentinel(output) {
		return nil
	}

	sourceType := sourceTypeFor(toolName)

	// Page-fetch shape: a single result with a header and a body.
	if strings.HasPrefix(output, "Page: ") {
		if record, ok := e.parsePage(output, sourceType); ok {
			return []model.EvidenceRecord{record}
		}
		return nil
	}

	var records []model.EvidenceRecord
	for _, block := range strings.Split(output, blockDelimiter) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		record := parseBlock(block, sourceType)
		if record.SourceURL != "" {
			if _, seen := e.seenURLs[record.SourceURL]; seen {
				continue
			}
			e.seenURLs[record.SourceURL] = struct{}{}
		}
		records = append(records, record)
	}
	return records
}

// contentLabels mark where a block's content field starts. The content
// label is always the block's last field, so everything from the label to
// the end of the block belongs to it.
var contentLabels = []string{"Snippet: ", "Summary: ", "Content: "}

// parseBlock reads the optional Title:/URL: labels and lifts the labeled
// content field into Content. Blocks without any labels (the entity
// report, or any future tool that ignores the shape contract) fall back
// to the block's whole text as content.
func parseBlock(block string, sourceType model.SourceType) model.EvidenceRecord {
	record := model.EvidenceRecord{SourceType: sourceType}
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "Title: ") && record.Title == "":
			record.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title: "))
		case strings.HasPrefix(line, "URL: ") && record.SourceURL == "":
			record.SourceURL = strings.TrimSpace(strings.TrimPrefix(line, "URL: "))
		default:
			if record.Content != "" {
				continue
			}
			for _, label := range contentLabels {
				if strings.HasPrefix(line, label) {
					rest := append([]string{strings.TrimPrefix(line, label)}, lines[i+1:]...)
					record.Content = strings.TrimSpace(strings.Join(rest, "\n"))
					break
				}
			}
		}
	}
	if record.Content == "" {
		record.Content = block
	}
	record.Content = truncate(record.Content)
	return record
}

// parsePage reads the "Page: <title>\nURL: <url>\n\n<body>" shape
func (e *Extractor) parsePage(output string, sourceType model.SourceType) (model.EvidenceRecord, bool) {
	lines := strings.SplitN(output, "\n", 3)
	record := model.EvidenceRecord{
		SourceType: sourceType,
		Title:      strings.TrimSpace(strings.TrimPrefix(lines[0], "Page: ")),
		Content:    truncate(output),
	}
	if len(lines) > 1 && strings.HasPrefix(lines[1], "URL: ") {
		record.SourceURL = strings.TrimSpace(strings.TrimPrefix(lines[1], "URL: "))
	}
	if record.SourceURL != "" {
		if _, seen := e.seenURLs[record.SourceURL]; seen {
			return model.EvidenceRecord{}, false
		}
		e.seenURLs[record.SourceURL] = struct{}{}
	}
	return record, true
}

func sourceTypeFor(toolName string) model.SourceType {
	name := strings.ToLower(toolName)
	switch {
	case strings.Contains(name, "wikipedia"):
		return model.SourceWikipedia
	case strings.Contains(name, "news"):
		return model.SourceNews
	default:
		return model.SourceWeb
	}
}

func isSentinel(output string) bool {
	if _, ok := sentinels[output]; ok {
		return true
	}
	for _, prefix := range sentinelPrefixes {
		if strings.HasPrefix(output, prefix) {
			return true
		}
	}
	return false
}

// truncate cuts text to the content limit, backing up to a rune boundary
// so the cut never leaves invalid UTF-8 behind.
func truncate(text string) string {
	if len(text) <= maxContentLength {
		return text
	}
	cut := maxContentLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
