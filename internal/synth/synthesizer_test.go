package synth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/logging"
	"github.com/ppiankov/veridex/internal/model"
)

// scriptedClient replays canned completions and records requests
type scriptedClient struct {
	replies  []string
	requests []llm.CompletionRequest
}

func (c *scriptedClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i >= len(c.replies) {
		return nil, fmt.Errorf("unexpected call %d", i)
	}
	return &llm.Completion{Content: c.replies[i]}, nil
}

func newTestSynthesizer(client llm.Client) *Synthesizer {
	cfg := model.DefaultConfig().LLM
	cfg.RetryPause = time.Millisecond
	return NewSynthesizer(llm.NewInvoker(client, cfg, logging.NewNop()), logging.NewNop())
}

func threeChildren() []*model.VerdictNode {
	return []*model.VerdictNode{
		{Text: "sub one", IsLeaf: true, Verdict: model.VerdictTrue, Confidence: 0.9, Reasoning: "first reasoning"},
		{Text: "sub two", IsLeaf: true, Verdict: model.VerdictTrue, Confidence: 0.8, Reasoning: "second reasoning", Nuance: "minor caveat"},
		{Text: "sub three", IsLeaf: true, Verdict: model.VerdictFalse, Confidence: 0.7, Reasoning: "third reasoning"},
	}
}

func TestSynthesize_FinalVerdict(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"verdict": "mostly_true", "confidence": 0.75, "reasoning": "Core assertion holds; one detail is wrong.", "nuance": "The attribution detail is off."}`,
	}}
	s := newTestSynthesizer(client)

	result := s.Synthesize(context.Background(), "the original claim", "", threeChildren(), true)

	if result.Verdict != model.VerdictMostlyTrue {
		t.Errorf("Expected mostly_true, got %q", result.Verdict)
	}
	if result.Confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %f", result.Confidence)
	}

	if len(result.ReasoningChain) != 3 {
		t.Fatalf("Expected reasoning chain with 3 entries, got %d", len(result.ReasoningChain))
	}
	want := []string{"first reasoning", "second reasoning", "third reasoning"}
	for i, entry := range want {
		if result.ReasoningChain[i] != entry {
			t.Errorf("Expected chain entry %d to be %q, got %q", i, entry, result.ReasoningChain[i])
		}
	}

	user := client.requests[0].Messages[1].Content
	if !strings.Contains(user, "FINAL verdict") {
		t.Errorf("Expected final framing, got %q", user)
	}
	if !strings.Contains(user, "[2] Sub-claim: sub two") || !strings.Contains(user, "Nuance: minor caveat") {
		t.Errorf("Expected numbered children with nuance, got %q", user)
	}
}

func TestSynthesize_IntermediateVerdict(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"verdict": "true", "confidence": 0.85, "reasoning": "Both promises are documented."}`,
	}}
	s := newTestSynthesizer(client)

	result := s.Synthesize(context.Background(), "the original claim", "Audit promises", threeChildren()[:2], false)

	if result.Verdict != model.VerdictTrue {
		t.Errorf("Expected true, got %q", result.Verdict)
	}
	if result.ReasoningChain != nil {
		t.Errorf("Expected no reasoning chain for intermediate synthesis, got %v", result.ReasoningChain)
	}

	user := client.requests[0].Messages[1].Content
	if !strings.Contains(user, "ONE ASPECT") || !strings.Contains(user, `"Audit promises"`) {
		t.Errorf("Expected aspect framing with label, got %q", user)
	}
}

func TestSynthesize_NormalizesVerdict(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		verdict string
	}{
		{
			name:    "partially_true maps up to mostly_true",
			reply:   `{"verdict": "partially_true", "confidence": 0.6, "reasoning": "core holds with caveats"}`,
			verdict: model.VerdictMostlyTrue,
		},
		{
			name:    "unknown verdict forced to unverifiable",
			reply:   `{"verdict": "plausible", "confidence": 0.6, "reasoning": "cannot place this on the scale"}`,
			verdict: model.VerdictUnverifiable,
		},
		{
			name:    "mixed is valid at synthesis level",
			reply:   `{"verdict": "mixed", "confidence": 0.5, "reasoning": "genuinely split down the middle"}`,
			verdict: model.VerdictMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSynthesizer(&scriptedClient{replies: []string{tt.reply}})
			result := s.Synthesize(context.Background(), "claim", "", threeChildren(), true)
			if result.Verdict != tt.verdict {
				t.Errorf("Expected %q, got %q", tt.verdict, result.Verdict)
			}
		})
	}
}

func TestSynthesize_DegradesOnInvocationFailure(t *testing.T) {
	client := &scriptedClient{replies: []string{"no JSON", "still none", "none again"}}
	s := newTestSynthesizer(client)

	result := s.Synthesize(context.Background(), "claim", "", threeChildren(), true)

	if result.Verdict != model.VerdictUnverifiable {
		t.Errorf("Expected unverifiable, got %q", result.Verdict)
	}
	if result.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0, got %f", result.Confidence)
	}
	if !strings.Contains(result.Reasoning, "none again") {
		t.Errorf("Expected raw output in reasoning, got %q", result.Reasoning)
	}
	if len(result.ReasoningChain) != 3 {
		t.Errorf("Expected reasoning chain even on degradation, got %d entries", len(result.ReasoningChain))
	}
}
