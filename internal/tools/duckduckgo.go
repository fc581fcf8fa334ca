package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const duckduckgoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoTool searches DuckDuckGo's HTML endpoint. It needs no API key,
// so it is always registered and serves as the free fallback when the
// keyed backends are absent or failing.
type DuckDuckGoTool struct {
	httpClient *http.Client
	userAgent  string
	maxResults int
	logger     *zap.Logger
}

// NewDuckDuckGoTool creates the keyless web search tool
func NewDuckDuckGoTool(userAgent string, maxResults int, timeout time.Duration, logger *zap.Logger) *DuckDuckGoTool {
	return &DuckDuckGoTool{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxResults: maxResults,
		logger:     logger,
	}
}

func (t *DuckDuckGoTool) Name() string { return "web_search" }

func (t *DuckDuckGoTool) Description() string {
	return "Search the web for evidence about a claim. Use for finding news articles " +
		"and primary sources."
}

// Invoke scrapes the DuckDuckGo HTML results page
func (t *DuckDuckGoTool) Invoke(ctx context.Context, query string) (string, error) {
	params := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckduckgoURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("duckduckgo search failed", zap.String("query", query), zap.Error(err))
		return "Web search failed. Try another search tool.", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("duckduckgo unexpected status", zap.Int("status", resp.StatusCode))
		return "Web search failed. Try another search tool.", nil
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		t.logger.Warn("duckduckgo parse failed", zap.Error(err))
		return "Web search failed. Try another search tool.", nil
	}

	results := parseDuckDuckGoResults(doc)
	results = filterResults(results)
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	t.logger.Debug("duckduckgo search complete",
		zap.String("query", query), zap.Int("results", len(results)))
	return formatSearchResults(results), nil
}

// parseDuckDuckGoResults walks the results page. Each hit is a container
// with a "result__a" title link and a "result__snippet" element; the link
// href goes through DuckDuckGo's redirect with the target in the uddg
// query parameter.
func parseDuckDuckGoResults(doc *html.Node) []searchResult {
	var results []searchResult

	var title, href, snippet string
	flush := func() {
		if title != "" && href != "" {
			results = append(results, searchResult{Title: title, URL: href, Snippet: snippet})
		}
		title, href, snippet = "", "", ""
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			class := attrValue(n, "class")
			switch {
			case n.Data == "a" && strings.Contains(class, "result__a"):
				flush()
				title = nodeText(n)
				href = resolveDuckDuckGoHref(attrValue(n, "href"))
			case strings.Contains(class, "result__snippet"):
				snippet = nodeText(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()

	return results
}

// resolveDuckDuckGoHref unwraps the /l/?uddg=<encoded> redirect
func resolveDuckDuckGoHref(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText collects the text content of a node's subtree
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
