package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// BraveTool searches via the Brave Search API. Brave maintains its own
// index rather than proxying Google, so its results cross-reference well
// against the other backends.
type BraveTool struct {
	apiKey     string
	httpClient *http.Client
	maxResults int
	logger     *zap.Logger
}

// NewBraveTool creates a Brave search tool
func NewBraveTool(apiKey string, maxResults int, timeout time.Duration, logger *zap.Logger) *BraveTool {
	return &BraveTool{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		maxResults: maxResults,
		logger:     logger,
	}
}

func (t *BraveTool) Name() string { return "brave_search" }

func (t *BraveTool) Description() string {
	return "Search the web using Brave Search for evidence about a claim. Brave has its " +
		"own independent search index, so it often finds sources that Google misses or " +
		"ranks differently. Use this alongside other search tools for source diversity."
}

// Invoke runs the Brave search and returns formatted result blocks
func (t *BraveTool) Invoke(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"q":                {query},
		"count":            {strconv.Itoa(t.maxResults)},
		"text_decorations": {"false"},
		"search_lang":      {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("brave search failed", zap.String("query", query), zap.Error(err))
		return "Brave search failed. Try another search tool.", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("brave unexpected status", zap.Int("status", resp.StatusCode))
		return "Brave search failed. Try another search tool.", nil
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				URL         string `json:"url"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		t.logger.Warn("brave decode failed", zap.Error(err))
		return "Brave search failed. Try another search tool.", nil
	}

	results := make([]searchResult, 0, len(payload.Web.Results))
	for _, item := range payload.Web.Results {
		results = append(results, searchResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Description,
		})
	}
	results = filterResults(results)
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}
	if len(results) == 0 {
		return "No Brave search results found.", nil
	}

	t.logger.Debug("brave search complete",
		zap.String("query", query), zap.Int("results", len(results)))
	return formatSearchResults(results), nil
}
