package model

// SourceType classifies where a piece of evidence came from
type SourceType string

const (
	SourceWeb       SourceType = "web"       // Search engines, fetched pages
	SourceWikipedia SourceType = "wikipedia" // Encyclopedia lookups
	SourceNews      SourceType = "news"      // News article search
)

// EvidenceRecord is a normalized unit of retrieved text with provenance,
// used to ground a judgment. SupportsClaim is left unset at extraction
// time — only the judge step is allowed to give that field meaning.
type EvidenceRecord struct {
	SourceType    SourceType `json:"source_type"`
	SourceURL     string     `json:"source_url,omitempty"`
	Title         string     `json:"title,omitempty"`
	Content       string     `json:"content"`
	SupportsClaim *bool      `json:"supports_claim,omitempty"`
}
