package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models wrap JSON in markdown fences, <think> blocks, preamble and
// trailing chatter. ExtractJSON digs the JSON value out of all of that.

var (
	thinkRe      = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	codeBlockRe  = regexp.MustCompile("(?is)```(?:json)?\\s*\\n?(.*?)\\n?```")
	lastResortRe = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// ExtractionError is raised when no JSON value can be recovered from
// model output. It carries the original raw text for diagnostics.
type ExtractionError struct {
	Raw string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract valid JSON from model output (%d chars)", len(e.Raw))
}

// StripThinkTags removes a <think>...</think> block from reasoning-model
// output. Returns the content after the block and the thinking text, or
// the input unchanged and "" when no block is present.
func StripThinkTags(raw string) (string, string) {
	m := thinkRe.FindStringSubmatchIndex(raw)
	if m == nil {
		return raw, ""
	}
	thinking := raw[m[2]:m[3]]
	return strings.TrimSpace(raw[m[1]:]), thinking
}

// ExtractJSON extracts a single JSON value from raw model output.
// Strategies run in order and stop at the first parse success:
//  1. direct parse of the trimmed text
//  2. contents of a fenced code block
//  3. first balanced {...} or [...] expression (string/escape aware)
//  4. if a <think> block stripped everything, re-scan the original text
//  5. last-resort regex for an object-shaped substring
func ExtractJSON(raw string) (json.RawMessage, error) {
	original := raw
	raw, thinking := StripThinkTags(strings.TrimSpace(raw))
	raw = strings.TrimSpace(raw)

	// 1. Direct parse
	if json.Valid([]byte(raw)) && raw != "" {
		return json.RawMessage(raw), nil
	}

	// 2. Fenced code block
	if m := codeBlockRe.FindStringSubmatch(raw); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	// 3. Balanced bracket scan, objects then arrays
	for _, brackets := range []struct{ open, close byte }{{'{', '}'}, {'[', ']'}} {
		if start := strings.IndexByte(raw, brackets.open); start >= 0 {
			if candidate := extractBalanced(raw[start:], brackets.open, brackets.close); candidate != "" {
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), nil
				}
			}
		}
	}

	// 4. The <think> block ate everything — the JSON may live inside it
	if thinking != "" && raw == "" {
		if start := strings.IndexByte(original, '{'); start >= 0 {
			if candidate := extractBalanced(original[start:], '{', '}'); candidate != "" {
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), nil
				}
			}
		}
	}

	// 5. Last resort
	if m := lastResortRe.FindString(raw); m != "" && json.Valid([]byte(m)) {
		return json.RawMessage(m), nil
	}

	return nil, &ExtractionError{Raw: original}
}

// extractBalanced returns the shortest prefix of text that is a balanced
// bracket expression, tracking string and escape state so brackets inside
// quoted strings are ignored. Returns "" when unbalanced.
func extractBalanced(text string, open, close byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
