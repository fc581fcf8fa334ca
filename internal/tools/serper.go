package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const serperURL = "https://google.serper.dev/search"

// SerperTool searches Google via the Serper JSON API. It also surfaces the
// knowledge graph entry when present, since that is often the most
// authoritative snippet on the page.
type SerperTool struct {
	apiKey     string
	httpClient *http.Client
	maxResults int
	logger     *zap.Logger
}

// NewSerperTool creates a Serper-backed Google search tool
func NewSerperTool(apiKey string, maxResults int, timeout time.Duration, logger *zap.Logger) *SerperTool {
	return &SerperTool{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		maxResults: maxResults,
		logger:     logger,
	}
}

func (t *SerperTool) Name() string { return "serper_search" }

func (t *SerperTool) Description() string {
	return "Search Google via Serper for evidence about a claim. Best for finding news " +
		"articles, official reports, press releases, government documents, and any " +
		"publicly available information. This searches the full Google index."
}

// Invoke runs the Google search and returns formatted result blocks
func (t *SerperTool) Invoke(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(map[string]any{"q": query, "num": t.maxResults})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("serper search failed", zap.String("query", query), zap.Error(err))
		return "Google search failed. Try another search tool.", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("serper unexpected status", zap.Int("status", resp.StatusCode))
		return "Google search failed. Try another search tool.", nil
	}

	var payload struct {
		Organic []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"organic"`
		KnowledgeGraph struct {
			Title           string `json:"title"`
			Description     string `json:"description"`
			DescriptionLink string `json:"descriptionLink"`
			Website         string `json:"website"`
		} `json:"knowledgeGraph"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		t.logger.Warn("serper decode failed", zap.Error(err))
		return "Google search failed. Try another search tool.", nil
	}

	results := make([]searchResult, 0, len(payload.Organic)+1)
	for _, item := range payload.Organic {
		results = append(results, searchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	if kg := payload.KnowledgeGraph; kg.Description != "" {
		title := kg.Title
		if title == "" {
			title = "Knowledge Graph"
		}
		kgURL := kg.DescriptionLink
		if kgURL == "" {
			kgURL = kg.Website
		}
		results = append(results, searchResult{Title: title, URL: kgURL, Snippet: kg.Description})
	}

	results = filterResults(results)
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}
	if len(results) == 0 {
		return "No Google results found.", nil
	}

	t.logger.Debug("serper search complete",
		zap.String("query", query), zap.Int("results", len(results)))
	return formatSearchResults(results), nil
}
