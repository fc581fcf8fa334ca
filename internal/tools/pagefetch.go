package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/veridex/internal/util"
	"github.com/ppiankov/veridex/internal/worker"
)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// contentDivRe matches id/class values that usually mark the main content
var contentDivRe = regexp.MustCompile(`(?i)content|article|main|post|entry`)

// PageFetchTool reads the full text of a web page so the agent can go
// beyond search snippets. The fetch order is fixed: blocked-domain check
// first (no request is made for a blocked URL), then robots.txt, then the
// per-domain rate limiter, then the fetch itself.
type PageFetchTool struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
	maxContent int
	logger     *zap.Logger
}

// NewPageFetchTool creates the page-reading tool
func NewPageFetchTool(robots *util.RobotsChecker, limiter *worker.Limiter, userAgent string, maxContent int, timeout time.Duration, logger *zap.Logger) *PageFetchTool {
	return &PageFetchTool{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:     robots,
		limiter:    limiter,
		userAgent:  userAgent,
		maxContent: maxContent,
		logger:     logger,
	}
}

func (t *PageFetchTool) Name() string { return "fetch_page" }

func (t *PageFetchTool) Description() string {
	return "Fetch and read the full text content of a web page. Use this when search " +
		"results give you a promising URL but the snippet isn't detailed enough. Input " +
		"should be a complete URL starting with http:// or https://."
}

// Invoke fetches the URL and returns "Page: <title>\nURL: <url>\n\n<text>"
func (t *PageFetchTool) Invoke(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "Invalid URL. Must start with http:// or https://", nil
	}

	if IsBlockedURL(rawURL) {
		return fmt.Sprintf("Blocked source: %s is not a citable source (social media, forum, or content farm). Find a reputable publication instead.", rawURL), nil
	}

	allowed, crawlDelay, err := t.robots.CanFetch(ctx, rawURL)
	if err == nil && !allowed {
		t.logger.Debug("robots.txt disallows fetch", zap.String("url", rawURL))
		return fmt.Sprintf("Fetching %s is disallowed by the site's robots.txt.", rawURL), nil
	}

	if err := t.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("Failed to fetch %s: %v", rawURL, err), nil
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("page fetch failed", zap.String("url", rawURL), zap.Error(err))
		return fmt.Sprintf("Failed to fetch %s: %v", rawURL, err), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Sprintf("Failed to fetch %s: HTTP %d", rawURL, resp.StatusCode), nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return fmt.Sprintf("Non-HTML content type at %s: %s", rawURL, contentType), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Sprintf("Failed to fetch %s: %v", rawURL, err), nil
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return fmt.Sprintf("Failed to parse page at %s: %v", rawURL, err), nil
	}

	title := pageTitle(doc)
	text := ExtractMainText(doc)
	if len(text) > t.maxContent {
		text = text[:t.maxContent] + "\n\n[... content truncated ...]"
	}
	if text == "" {
		return fmt.Sprintf("Page at %s returned no readable content.", rawURL), nil
	}

	finalURL := resp.Request.URL.String()
	t.logger.Debug("page fetched",
		zap.String("url", finalURL), zap.String("title", title), zap.Int("content_length", len(text)))

	return fmt.Sprintf("Page: %s\nURL: %s\n\n%s", title, finalURL, text), nil
}

// skippedTags are never useful content
var skippedTags = map[string]struct{}{
	"script": {}, "style": {}, "nav": {}, "header": {}, "footer": {},
	"aside": {}, "iframe": {}, "noscript": {}, "svg": {}, "form": {},
	"button": {}, "input": {}, "select": {}, "textarea": {},
}

// ExtractMainText extracts readable text from a parsed page, preferring
// the main content area (<main>, <article>, or a content-looking div)
// over the full body.
func ExtractMainText(doc *html.Node) string {
	target := findMainContent(doc)
	if target == nil {
		target = findElement(doc, "body")
	}
	if target == nil {
		target = doc
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skippedTags[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(target)

	text := blankLinesRe.ReplaceAllString(b.String(), "\n\n")
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// findMainContent looks for the page's main content container
func findMainContent(doc *html.Node) *html.Node {
	if n := findElement(doc, "main"); n != nil {
		return n
	}
	if n := findElement(doc, "article"); n != nil {
		return n
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			if attrValue(n, "role") == "main" ||
				contentDivRe.MatchString(attrValue(n, "id")) ||
				contentDivRe.MatchString(attrValue(n, "class")) {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func findElement(doc *html.Node, tag string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func pageTitle(doc *html.Node) string {
	if n := findElement(doc, "title"); n != nil {
		return nodeText(n)
	}
	return ""
}
