package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/cache"
)

const (
	wikidataSearchAPI = "https://www.wikidata.org/w/api.php"
	wikidataSPARQL    = "https://query.wikidata.org/sparql"

	// entity QIDs are stable; cache lookups for the life of the process
	qidTTL = 24 * time.Hour
)

// wikidataProperties are the relationship properties the report covers,
// in display order.
var wikidataProperties = []struct {
	ID    string
	Name  string
	Label string
}{
	{"P127", "owned_by", "Owned by"},
	{"P749", "parent_org", "Parent organization"},
	{"P355", "subsidiary", "Subsidiaries"},
	{"P1830", "owner_of", "Owner of"},
	{"P169", "ceo", "CEO"},
	{"P488", "chairperson", "Chairperson"},
	{"P112", "founder", "Founder"},
	{"P463", "member_of", "Member of"},
	{"P108", "employer", "Employer"},
	{"P39", "position_held", "Positions"},
	{"P102", "political_party", "Political party"},
}

// WikidataTool reports an entity's ownership and institutional
// relationships: who owns it, its parent organization, key personnel, and
// any media holdings reachable through its owners. The agent uses this to
// spot conflicts of interest in evidence sources. QID lookups are cached.
type WikidataTool struct {
	httpClient *http.Client
	cache      cache.Cache
	userAgent  string
	logger     *zap.Logger
}

// NewWikidataTool creates the entity lookup tool
func NewWikidataTool(c cache.Cache, userAgent string, timeout time.Duration, logger *zap.Logger) *WikidataTool {
	return &WikidataTool{
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		userAgent:  userAgent,
		logger:     logger,
	}
}

func (t *WikidataTool) Name() string { return "entity_lookup" }

func (t *WikidataTool) Description() string {
	return "Look up a company, organisation, or person in Wikidata to discover ownership " +
		"chains, parent organizations, key personnel, and media holdings. Use this to " +
		"check whether a source covering a claim is independent of the claim's subject."
}

// Invoke builds a relationship report for the named entity
func (t *WikidataTool) Invoke(ctx context.Context, entityName string) (string, error) {
	entityName = strings.TrimSpace(entityName)
	if entityName == "" {
		return "Entity name is empty. Provide a company, organisation, or person name.", nil
	}

	qid, err := t.searchEntity(ctx, entityName)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("wikidata entity search failed", zap.String("entity", entityName), zap.Error(err))
		return "Wikidata lookup failed. Continue without entity information.", nil
	}
	if qid == "" {
		return fmt.Sprintf("No Wikidata entity found for %q.", entityName), nil
	}

	relationships, err := t.entityRelationships(ctx, qid)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("wikidata relationship query failed", zap.String("qid", qid), zap.Error(err))
		return "Wikidata lookup failed. Continue without entity information.", nil
	}

	// Media holdings of the entity itself, plus of its owners, founders,
	// and CEO. Bezos owning both Amazon and the Washington Post is the
	// case this exists for.
	media := t.mediaHoldings(ctx, qid)
	people := append(append(relationships["owned_by"], relationships["founder"]...), relationships["ceo"]...)
	if len(people) > 3 {
		people = people[:3]
	}
	for _, person := range people {
		personQID, err := t.searchEntity(ctx, person)
		if err != nil || personQID == "" {
			continue
		}
		media = append(media, t.mediaHoldings(ctx, personQID)...)
	}
	media = dedupeStrings(media)

	return formatEntityReport(entityName, qid, relationships, media), nil
}

// searchEntity resolves an entity name to its Wikidata QID, consulting
// the cache first. Not-found entries are cached too.
func (t *WikidataTool) searchEntity(ctx context.Context, name string) (string, error) {
	key := cache.Key("wikidata", "qid", strings.ToLower(name))
	if cached, ok := t.cache.Get(key); ok {
		return string(cached), nil
	}

	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {name},
		"language": {"en"},
		"format":   {"json"},
		"limit":    {"1"},
	}

	var payload struct {
		Search []struct {
			ID string `json:"id"`
		} `json:"search"`
	}
	if err := t.getJSON(ctx, wikidataSearchAPI+"?"+params.Encode(), &payload); err != nil {
		return "", err
	}

	qid := ""
	if len(payload.Search) > 0 {
		qid = payload.Search[0].ID
	}
	_ = t.cache.Set(key, []byte(qid), qidTTL)
	return qid, nil
}

// entityRelationships queries SPARQL for the entity's relationship
// properties, returning labels grouped by property name.
func (t *WikidataTool) entityRelationships(ctx context.Context, qid string) (map[string][]string, error) {
	props := make([]string, 0, len(wikidataProperties))
	for _, p := range wikidataProperties {
		props = append(props, "wd:"+p.ID)
	}
	query := fmt.Sprintf(`SELECT ?prop ?valueLabel WHERE {
  VALUES ?prop { %s }
  wd:%s ?prop ?value .
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`, strings.Join(props, " "), qid)

	var payload sparqlResponse
	if err := t.getJSON(ctx, sparqlURL(query), &payload); err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(wikidataProperties))
	for _, p := range wikidataProperties {
		byID[p.ID] = p.Name
	}

	results := make(map[string][]string)
	for _, binding := range payload.Results.Bindings {
		propURI := binding["prop"].Value
		propID := propURI[strings.LastIndex(propURI, "/")+1:]
		name, ok := byID[propID]
		if !ok {
			continue
		}
		if label := binding["valueLabel"].Value; label != "" {
			results[name] = append(results[name], label)
		}
	}
	return results, nil
}

// mediaHoldings finds news outlets the entity directly owns. Errors are
// swallowed: missing media data never fails a lookup.
func (t *WikidataTool) mediaHoldings(ctx context.Context, qid string) []string {
	// Q11032 newspaper, Q1002697 periodical, Q1616075 TV station,
	// Q5398426 TV series, Q17232649 news website.
	query := fmt.Sprintf(`SELECT DISTINCT ?mediaLabel WHERE {
  wd:%s wdt:P1830 ?media .
  ?media wdt:P31/wdt:P279* ?type .
  VALUES ?type { wd:Q11032 wd:Q1002697 wd:Q1616075 wd:Q5398426 wd:Q17232649 }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`, qid)

	var payload sparqlResponse
	if err := t.getJSON(ctx, sparqlURL(query), &payload); err != nil {
		t.logger.Debug("wikidata media query failed", zap.String("qid", qid), zap.Error(err))
		return nil
	}

	var media []string
	for _, binding := range payload.Results.Bindings {
		if label := binding["mediaLabel"].Value; label != "" {
			media = append(media, label)
		}
	}
	return media
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

func sparqlURL(query string) string {
	params := url.Values{"query": {query}, "format": {"json"}}
	return wikidataSPARQL + "?" + params.Encode()
}

func (t *WikidataTool) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikidata request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// formatEntityReport renders the relationship data as readable lines
func formatEntityReport(entity, qid string, relationships map[string][]string, media []string) string {
	lines := []string{fmt.Sprintf("Wikidata: %s (QID: %s)", entity, qid)}

	for _, p := range wikidataProperties {
		values := relationships[p.Name]
		if len(values) == 0 {
			continue
		}
		if p.Name == "subsidiary" && len(values) > 5 {
			lines = append(lines, fmt.Sprintf("- %s: %s (+%d more)",
				p.Label, strings.Join(values[:5], ", "), len(values)-5))
			continue
		}
		if p.Name == "position_held" && len(values) > 3 {
			values = values[:3]
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Label, strings.Join(values, ", ")))
	}

	if len(media) > 0 {
		lines = append(lines, "- Media holdings (via owners/founders): "+strings.Join(media, ", "))
		lines = append(lines, "  Coverage from these outlets may have conflicts of interest.")
	}

	if len(lines) == 1 {
		lines = append(lines, "- No significant relationships found")
	}
	return strings.Join(lines, "\n")
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
