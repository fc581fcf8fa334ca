// Package judge evaluates a sub-claim strictly against its gathered
// evidence.
package judge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/model"
)

const noEvidenceReasoning = "No evidence was found for this claim."

const judgeSystem = `Today's date: %s

You are an impartial fact-checker. You will be given a sub-claim (extracted from a larger claim) and a set of evidence gathered from real sources (web search, Wikipedia, news articles).

BE CONCISE. Identify the 2-3 most relevant sources, note what they say, and render your verdict.

You will also be shown the ORIGINAL CLAIM for context. Interpret the sub-claim as a reasonable person would, informed by the original claim's context, not hyper-literally in isolation.

Your job:
1. Evaluate the evidence - does it SUPPORT, CONTRADICT, or say nothing about the claim?
2. Weigh it: primary documents are the strongest evidence; independent reporting is strong, especially when multiple outlets corroborate; politician and government statements are claims by interested parties, not proof.
3. Render a verdict based ONLY on the evidence provided. Do NOT use your own knowledge.

Verdicts:
- "true": the evidence supports the claim
- "false": the evidence contradicts the claim
- "partially_true": broadly correct but with real inaccuracies
- "unverifiable": the evidence is insufficient to decide

Return a JSON object: {"verdict": "...", "confidence": 0.0-1.0, "reasoning": "...", "nuance": "..."} where nuance is optional context a verdict alone would lose. Return ONLY the JSON object.`

const judgeUser = `Judge this sub-claim based ONLY on the evidence below. Do not use your own knowledge.

Original claim (for context): %s

Sub-claim to judge: %s

Evidence:
%s

Interpret the sub-claim in the context of the original claim. Identify the key evidence, weigh it briefly, and return a JSON object with "verdict", "confidence", "reasoning", and "nuance".`

// Judgment is the evidence-grounded assessment of one sub-claim
type Judgment struct {
	Verdict    string
	Confidence float64
	Reasoning  string
	Nuance     string
}

// judgeOutput is the model's expected JSON shape
type judgeOutput struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Nuance     string  `json:"nuance"`
}

// Judge renders verdicts for sub-claims
type Judge struct {
	invoker *llm.Invoker
	logger  *zap.Logger
}

// NewJudge creates a judge over the resilience layer
func NewJudge(invoker *llm.Invoker, logger *zap.Logger) *Judge {
	return &Judge{
		invoker: invoker,
		logger:  logger.Named("judge"),
	}
}

// Judge evaluates the sub-claim against its evidence. Empty evidence
// short-circuits to unverifiable without a model call. The agent's
// closing summary, when present, is offered to the model as context
// alongside the evidence. Judge never returns an error: a failed
// invocation degrades to unverifiable with the raw output preserved in
// the reasoning.
func (j *Judge) Judge(ctx context.Context, claimText, subClaim string, evidence []model.EvidenceRecord, agentSummary string) Judgment {
	if len(evidence) == 0 {
		j.logger.Info("no evidence, judging unverifiable",
			zap.String("sub_claim", subClaim))
		return Judgment{
			Verdict:    model.VerdictUnverifiable,
			Confidence: 0.0,
			Reasoning:  noEvidenceReasoning,
		}
	}

	var out judgeOutput
	err := j.invoker.Invoke(ctx, llm.Request{
		Name:      "judge",
		System:    fmt.Sprintf(judgeSystem, time.Now().Format("2006-01-02")),
		User:      fmt.Sprintf(judgeUser, claimText, subClaim, formatEvidence(evidence, agentSummary)),
		Reasoning: true,
		Validate: func(v any) error {
			parsed := v.(*judgeOutput)
			return llm.CheckReasoning(parsed.Reasoning)
		},
	}, &out)
	if err != nil {
		j.logger.Warn("judgment failed, degrading to unverifiable",
			zap.String("sub_claim", subClaim), zap.Error(err))
		raw := ""
		if invErr, ok := err.(*llm.InvocationError); ok {
			raw = invErr.RawOutput
		}
		return Judgment{
			Verdict:    model.VerdictUnverifiable,
			Confidence: 0.0,
			Reasoning:  "Failed to parse judgment: " + raw,
		}
	}

	verdict := model.NormalizeLeafVerdict(out.Verdict)
	confidence := model.ClampConfidence(out.Confidence)
	llm.WarnVerdictConsistency(j.logger, verdict, confidence)

	j.logger.Info("sub-claim judged",
		zap.String("sub_claim", subClaim),
		zap.String("verdict", verdict),
		zap.Float64("confidence", confidence))

	return Judgment{
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  out.Reasoning,
		Nuance:     out.Nuance,
	}
}

// formatEvidence renders the evidence as a numbered list of
// (source type, URL, content) entries, with the agent summary appended
// as its own section.
func formatEvidence(evidence []model.EvidenceRecord, agentSummary string) string {
	parts := make([]string, 0, len(evidence)+1)
	for i, ev := range evidence {
		url := ev.SourceURL
		if url == "" {
			url = "N/A"
		}
		parts = append(parts, fmt.Sprintf("[%d] Source: %s | URL: %s\n%s", i+1, ev.SourceType, url, ev.Content))
	}
	if agentSummary != "" {
		parts = append(parts, "Research agent summary:\n"+agentSummary)
	}
	return strings.Join(parts, "\n\n")
}
