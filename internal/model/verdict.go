package model

import "strings"

// Leaf verdicts — produced by judging a single sub-claim against evidence.
const (
	VerdictTrue          = "true"
	VerdictFalse         = "false"
	VerdictPartiallyTrue = "partially_true"
	VerdictUnverifiable  = "unverifiable"
)

// Synthesis verdicts — produced by combining child verdicts. Superset of
// the leaf scale with graded intermediate values.
const (
	VerdictMostlyTrue  = "mostly_true"
	VerdictMixed       = "mixed"
	VerdictMostlyFalse = "mostly_false"
)

// leafVerdicts is the 4-level scale for evidence-grounded judgments.
var leafVerdicts = map[string]bool{
	VerdictTrue:          true,
	VerdictFalse:         true,
	VerdictPartiallyTrue: true,
	VerdictUnverifiable:  true,
}

// synthesisVerdicts is the 6-level scale for aggregate verdicts.
var synthesisVerdicts = map[string]bool{
	VerdictTrue:         true,
	VerdictMostlyTrue:   true,
	VerdictMixed:        true,
	VerdictMostlyFalse:  true,
	VerdictFalse:        true,
	VerdictUnverifiable: true,
}

// normalizeVerdict lowercases, converts spaces to underscores, and maps
// common synonyms the model tends to emit onto the canonical scale.
func normalizeVerdict(v string) string {
	v = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
	switch v {
	case "uncertain", "unknown", "inconclusive":
		return VerdictUnverifiable
	}
	return v
}

// NormalizeLeafVerdict maps raw model output onto the 4-level leaf scale.
// Anything that cannot be mapped becomes unverifiable.
func NormalizeLeafVerdict(v string) string {
	v = normalizeVerdict(v)
	switch v {
	case VerdictMostlyTrue, "partially_false", VerdictMixed:
		v = VerdictPartiallyTrue
	}
	if !leafVerdicts[v] {
		return VerdictUnverifiable
	}
	return v
}

// NormalizeSynthesisVerdict maps raw model output onto the 6-level scale.
// Anything that cannot be mapped becomes unverifiable.
func NormalizeSynthesisVerdict(v string) string {
	v = normalizeVerdict(v)
	switch v {
	case VerdictPartiallyTrue:
		v = VerdictMostlyTrue
	case "partially_false":
		v = VerdictMostlyFalse
	}
	if !synthesisVerdicts[v] {
		return VerdictUnverifiable
	}
	return v
}

// PromoteLeafVerdict lifts a leaf verdict into the synthesis scale. Used
// when a claim decomposes to a single sub-claim and the leaf judgment is
// reused as the final verdict without a synthesis call.
func PromoteLeafVerdict(v string) string {
	if v == VerdictPartiallyTrue {
		return VerdictMixed
	}
	if !synthesisVerdicts[v] {
		return VerdictUnverifiable
	}
	return v
}

// ClampConfidence forces confidence into [0, 1]
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// VerdictNode is one node of the verdict tree. Leaf nodes carry evidence
// and a 4-level verdict; synthesis nodes carry ordered children and a
// 6-level verdict. Exactly one of Children/Evidence is populated.
type VerdictNode struct {
	Text       string           `json:"text"`
	IsLeaf     bool             `json:"is_leaf"`
	Verdict    string           `json:"verdict"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Nuance     string           `json:"nuance,omitempty"`
	Children   []*VerdictNode   `json:"children,omitempty"`
	Evidence   []EvidenceRecord `json:"evidence,omitempty"`
}

// Verdict is the final result for a claim: the root of the verdict tree
// plus the ordered reasoning of each immediate child, kept as an audit
// trail for the synthesis step.
type Verdict struct {
	Verdict        string         `json:"verdict"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	Nuance         string         `json:"nuance,omitempty"`
	ReasoningChain []string       `json:"reasoning_chain"`
	Root           []*VerdictNode `json:"sub_claims"`
}
