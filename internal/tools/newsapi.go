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

const newsAPIURL = "https://newsapi.org/v2/everything"

// NewsTool searches recent press coverage via NewsAPI. Gated on an API
// key; evidence from it carries the news source type.
type NewsTool struct {
	apiKey     string
	httpClient *http.Client
	maxResults int
	logger     *zap.Logger
}

// NewNewsTool creates a NewsAPI search tool
func NewNewsTool(apiKey string, maxResults int, timeout time.Duration, logger *zap.Logger) *NewsTool {
	return &NewsTool{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		maxResults: maxResults,
		logger:     logger,
	}
}

func (t *NewsTool) Name() string { return "news_search" }

func (t *NewsTool) Description() string {
	return "Search recent news articles about a claim. Best for claims about current " +
		"events, announcements, and anything from the last few months. Returns article " +
		"titles, sources, publication dates, and summaries."
}

// Invoke searches NewsAPI sorted by relevancy
func (t *NewsTool) Invoke(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"q":        {query},
		"pageSize": {strconv.Itoa(t.maxResults)},
		"sortBy":   {"relevancy"},
		"language": {"en"},
		"apiKey":   {t.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("news search failed", zap.String("query", query), zap.Error(err))
		return "News search failed. Try another search tool.", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("news unexpected status", zap.Int("status", resp.StatusCode))
		return "News search failed. Try another search tool.", nil
	}

	var payload struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		t.logger.Warn("news decode failed", zap.Error(err))
		return "News search failed. Try another search tool.", nil
	}

	results := make([]searchResult, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		extra := []string{"Source: " + a.Source.Name}
		if a.PublishedAt != "" {
			extra = append(extra, "Published: "+a.PublishedAt)
		}
		results = append(results, searchResult{
			Title:   a.Title,
			URL:     a.URL,
			Snippet: a.Description,
			Extra:   extra,
		})
	}
	results = filterResults(results)
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}
	if len(results) == 0 {
		return "No news results found.", nil
	}

	t.logger.Debug("news search complete",
		zap.String("query", query), zap.Int("results", len(results)))
	return formatSearchResults(results), nil
}
