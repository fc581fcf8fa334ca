package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SearxTool queries a self-hosted SearXNG instance. SearXNG aggregates
// many engines behind one JSON API, so it is the preferred search backend
// when an instance is configured.
type SearxTool struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxResults int
	logger     *zap.Logger
}

// NewSearxTool creates a SearXNG search tool pointed at the given instance
func NewSearxTool(baseURL, userAgent string, maxResults int, timeout time.Duration, logger *zap.Logger) *SearxTool {
	return &SearxTool{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxResults: maxResults,
		logger:     logger,
	}
}

func (t *SearxTool) Name() string { return "searx_search" }

func (t *SearxTool) Description() string {
	return "Search the web using SearXNG, a meta-search engine that aggregates results " +
		"from Google, Bing, DuckDuckGo, Brave, and many other engines. Use this first " +
		"for broad web searches. For established facts and background, also use " +
		"wikipedia_search. When you find a promising URL, use fetch_page to read the full article."
}

// Invoke searches the SearXNG JSON API and returns formatted result blocks
func (t *SearxTool) Invoke(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"q":          {query},
		"format":     {"json"},
		"categories": {"general"},
		"language":   {"en"},
		"pageno":     {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("searxng search failed", zap.String("query", query), zap.Error(err))
		return "SearXNG search failed. Try web_search as a fallback.", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("searxng unexpected status", zap.Int("status", resp.StatusCode))
		return "SearXNG search failed. Try web_search as a fallback.", nil
	}

	var payload struct {
		Results []struct {
			Title   string   `json:"title"`
			Content string   `json:"content"`
			URL     string   `json:"url"`
			Engines []string `json:"engines"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		t.logger.Warn("searxng decode failed", zap.Error(err))
		return "SearXNG search failed. Try web_search as a fallback.", nil
	}

	results := make([]searchResult, 0, len(payload.Results))
	for _, item := range payload.Results {
		engines := item.Engines
		if len(engines) > 3 {
			engines = engines[:3]
		}
		enginesStr := "unknown"
		if len(engines) > 0 {
			enginesStr = strings.Join(engines, ", ")
		}
		results = append(results, searchResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Content,
			Extra:   []string{"Engines: " + enginesStr},
		})
	}
	results = filterResults(results)
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}

	if len(results) == 0 {
		return "No SearXNG results found. Try web_search as a fallback.", nil
	}

	t.logger.Debug("searxng search complete",
		zap.String("query", query), zap.Int("results", len(results)))
	return formatSearchResults(results), nil
}
