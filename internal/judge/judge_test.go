package judge

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

func newTestJudge(client llm.Client) *Judge {
	cfg := model.DefaultConfig().LLM
	cfg.RetryPause = time.Millisecond
	return NewJudge(llm.NewInvoker(client, cfg, logging.NewNop()), logging.NewNop())
}

func someEvidence() []model.EvidenceRecord {
	return []model.EvidenceRecord{
		{SourceType: model.SourceWeb, SourceURL: "https://www.reuters.com/a", Content: "spending was 45 billion"},
		{SourceType: model.SourceWikipedia, SourceURL: "https://en.wikipedia.org/wiki/HS2", Content: "HS2 is a rail project"},
	}
}

func TestJudge_EmptyEvidenceShortCircuits(t *testing.T) {
	client := &scriptedClient{}
	j := newTestJudge(client)

	judgment := j.Judge(context.Background(), "claim", "sub-claim", nil, "")

	if len(client.requests) != 0 {
		t.Errorf("Expected no model calls, got %d", len(client.requests))
	}
	if judgment.Verdict != model.VerdictUnverifiable {
		t.Errorf("Expected unverifiable, got %q", judgment.Verdict)
	}
	if judgment.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0, got %f", judgment.Confidence)
	}
	if judgment.Reasoning != noEvidenceReasoning {
		t.Errorf("Expected fixed reasoning, got %q", judgment.Reasoning)
	}
}

func TestJudge_ParsesVerdict(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`<think>weighing the two sources here</think>
{"verdict": "true", "confidence": 0.85, "reasoning": "Two reliable sources confirm the figure.", "nuance": "Figure may be inflation-adjusted."}`,
	}}
	j := newTestJudge(client)

	judgment := j.Judge(context.Background(), "claim", "sub-claim", someEvidence(), "agent found consistent figures")

	if judgment.Verdict != model.VerdictTrue {
		t.Errorf("Expected true, got %q", judgment.Verdict)
	}
	if judgment.Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %f", judgment.Confidence)
	}
	if judgment.Nuance != "Figure may be inflation-adjusted." {
		t.Errorf("Expected nuance, got %q", judgment.Nuance)
	}

	user := client.requests[0].Messages[1].Content
	if !strings.Contains(user, "[1] Source: web | URL: https://www.reuters.com/a") {
		t.Errorf("Expected numbered evidence in prompt, got %q", user)
	}
	if !strings.Contains(user, "Research agent summary:\nagent found consistent figures") {
		t.Errorf("Expected agent summary in prompt, got %q", user)
	}
	if !client.requests[0].Reasoning {
		t.Error("Expected chain-of-thought mode for judging")
	}
}

func TestJudge_NormalizesVerdictAndClampsConfidence(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		wantVerdict    string
		wantConfidence float64
	}{
		{
			name:           "invalid verdict forced to unverifiable",
			reply:          `{"verdict": "probably", "confidence": 0.5, "reasoning": "hard to say from this evidence"}`,
			wantVerdict:    model.VerdictUnverifiable,
			wantConfidence: 0.5,
		},
		{
			name:           "uncertainty synonym",
			reply:          `{"verdict": "inconclusive", "confidence": 0.2, "reasoning": "nothing decisive either way"}`,
			wantVerdict:    model.VerdictUnverifiable,
			wantConfidence: 0.2,
		},
		{
			name:           "mixed maps to partially_true on leaves",
			reply:          `{"verdict": "mixed", "confidence": 0.6, "reasoning": "some of it holds, some does not"}`,
			wantVerdict:    model.VerdictPartiallyTrue,
			wantConfidence: 0.6,
		},
		{
			name:           "confidence above range clamped",
			reply:          `{"verdict": "true", "confidence": 1.4, "reasoning": "strongly corroborated by sources"}`,
			wantVerdict:    model.VerdictTrue,
			wantConfidence: 1.0,
		},
		{
			name:           "negative confidence clamped",
			reply:          `{"verdict": "false", "confidence": -0.2, "reasoning": "flatly contradicted by the record"}`,
			wantVerdict:    model.VerdictFalse,
			wantConfidence: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestJudge(&scriptedClient{replies: []string{tt.reply}})
			judgment := j.Judge(context.Background(), "claim", "sub-claim", someEvidence(), "")

			if judgment.Verdict != tt.wantVerdict {
				t.Errorf("Expected verdict %q, got %q", tt.wantVerdict, judgment.Verdict)
			}
			if judgment.Confidence != tt.wantConfidence {
				t.Errorf("Expected confidence %f, got %f", tt.wantConfidence, judgment.Confidence)
			}
		})
	}
}

func TestJudge_DegradesOnInvocationFailure(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"I think the claim is true but I won't say so in JSON",
		"still no JSON here",
		"and again nothing parseable",
	}}
	j := newTestJudge(client)

	judgment := j.Judge(context.Background(), "claim", "sub-claim", someEvidence(), "")

	if len(client.requests) != 3 {
		t.Errorf("Expected 3 attempts, got %d", len(client.requests))
	}
	if judgment.Verdict != model.VerdictUnverifiable {
		t.Errorf("Expected unverifiable, got %q", judgment.Verdict)
	}
	if judgment.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0, got %f", judgment.Confidence)
	}
	if !strings.Contains(judgment.Reasoning, "and again nothing parseable") {
		t.Errorf("Expected raw output preserved in reasoning, got %q", judgment.Reasoning)
	}
}
