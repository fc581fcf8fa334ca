// Package cache provides small byte-value caches used by the research
// tools: Wikidata entity lookups and robots.txt bodies are cached so the
// agent's repeated tool calls don't re-query the same host.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "veridex:v1:" + hex.EncodeToString(h.Sum(nil))
}
