package tools

import (
	"net/url"
	"strings"
)

// blockedDomains lists sources dropped before the agent ever sees them:
// user-generated content, content farms, video platforms, fact-check sites
// (the pipeline does its own verification), and tabloids. Matching is
// subdomain-aware.
var blockedDomains = map[string]struct{}{
	// Social media / forums
	"reddit.com":        {},
	"quora.com":         {},
	"stackexchange.com": {},
	"stackoverflow.com": {},
	"facebook.com":      {},
	"twitter.com":       {},
	"x.com":             {},
	"instagram.com":     {},
	"tiktok.com":        {},
	"threads.net":       {},
	"tumblr.com":        {},
	"4chan.org":         {},
	"discord.com":       {},
	"t.me":              {},
	"medium.com":        {},
	"substack.com":      {},

	// Content farms / SEO spam
	"ehow.com":           {},
	"wikihow.com":        {},
	"answers.com":        {},
	"ask.com":            {},
	"reference.com":      {},
	"investopedia.com":   {},
	"healthline.com":     {},
	"webmd.com":          {},
	"verywellhealth.com": {},

	// Video platforms
	"youtube.com":     {},
	"youtu.be":        {},
	"vimeo.com":       {},
	"twitch.tv":       {},
	"dailymotion.com": {},

	// AI-generated / aggregator sites
	"perplexity.ai": {},
	"you.com":       {},
	"consensus.app": {},

	// Fact-check sites
	"snopes.com":        {},
	"politifact.com":    {},
	"factcheck.org":     {},
	"fullfact.org":      {},
	"leadstories.com":   {},
	"checkyourfact.com": {},

	// Tabloids / unreliable news sources
	"dailymail.co.uk":      {},
	"thesun.co.uk":         {},
	"mirror.co.uk":         {},
	"express.co.uk":        {},
	"nypost.com":           {},
	"pagesix.com":          {},
	"tmz.com":              {},
	"buzzfeed.com":         {},
	"buzzfeednews.com":     {},
	"dailycaller.com":      {},
	"dailywire.com":        {},
	"breitbart.com":        {},
	"infowars.com":         {},
	"naturalnews.com":      {},
	"thegatewaypundit.com": {},
	"occupydemocrats.com":  {},
	"newsmax.com":          {},
	"oann.com":             {},
	"rawstory.com":         {},
	"theblaze.com":         {},
	"washingtontimes.com":  {},
	"epochtimes.com":       {},
	"rt.com":               {},
	"sputniknews.com":      {},
}

// IsBlockedURL reports whether a URL belongs to a blocked domain.
// Subdomains match their parent: "old.reddit.com" hits the "reddit.com"
// entry. Unparseable URLs are not blocked.
func IsBlockedURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	parts := strings.Split(host, ".")
	for i := range parts {
		if _, ok := blockedDomains[strings.Join(parts[i:], ".")]; ok {
			return true
		}
	}
	return false
}

// filterResults drops results from blocked domains
func filterResults(results []searchResult) []searchResult {
	kept := results[:0]
	for _, r := range results {
		if !IsBlockedURL(r.URL) {
			kept = append(kept, r)
		}
	}
	return kept
}
