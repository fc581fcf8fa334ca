package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const wikipediaAPI = "https://en.wikipedia.org/w/api.php"

// search snippets come back with <span class="searchmatch"> highlighting
var wikiMarkupRe = regexp.MustCompile(`<[^>]+>`)

// WikipediaTool searches the MediaWiki API. Always registered; needs no
// key, but the API rejects requests without a User-Agent.
type WikipediaTool struct {
	httpClient *http.Client
	userAgent  string
	maxResults int
	logger     *zap.Logger
}

// NewWikipediaTool creates the Wikipedia search tool
func NewWikipediaTool(userAgent string, timeout time.Duration, logger *zap.Logger) *WikipediaTool {
	return &WikipediaTool{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxResults: 3,
		logger:     logger,
	}
}

func (t *WikipediaTool) Name() string { return "wikipedia_search" }

func (t *WikipediaTool) Description() string {
	return "Search Wikipedia for factual information about a topic. Use for established " +
		"facts, historical events, organisations, notable people, and verifiable " +
		"statistics. Returns article titles, URLs, and summary snippets."
}

// Invoke searches Wikipedia and returns Title/URL/Summary blocks
func (t *WikipediaTool) Invoke(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(t.maxResults)},
		"format":   {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaAPI+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("wikipedia search failed", zap.String("query", query), zap.Error(err))
		return "Wikipedia search failed. Try web search instead.", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("wikipedia unexpected status", zap.Int("status", resp.StatusCode))
		return "Wikipedia search failed. Try web search instead.", nil
	}

	var payload struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		t.logger.Warn("wikipedia decode failed", zap.Error(err))
		return "Wikipedia search failed. Try web search instead.", nil
	}

	if len(payload.Query.Search) == 0 {
		return "No Wikipedia results found.", nil
	}

	parts := make([]string, 0, len(payload.Query.Search))
	for _, item := range payload.Query.Search {
		pageURL := "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(item.Title, " ", "_")
		summary := wikiMarkupRe.ReplaceAllString(item.Snippet, "")
		parts = append(parts, fmt.Sprintf("Title: %s\nURL: %s\nSummary: %s", item.Title, pageURL, summary))
	}

	t.logger.Debug("wikipedia search complete",
		zap.String("query", query), zap.Int("results", len(parts)))
	return strings.Join(parts, "\n\n---\n\n"), nil
}
