// Package synth combines child verdicts into an aggregate verdict on the
// 6-level scale.
package synth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/model"
)

const synthesizeSystem = `Today's date: %s

You are an impartial fact-checker. You have received verdicts for sub-claims and must combine them into a single verdict.

%s

CRITICAL - WEIGH BY IMPORTANCE, NOT BY COUNT:
Do NOT simply count true vs false sub-claims. Identify the CORE ASSERTION and let it drive the verdict; supporting details that are wrong belong in the nuance. Ask yourself: "Would a reasonable person say this claim is basically right or basically wrong?"

UNVERIFIABLE SUB-CLAIMS:
If the core assertion's sub-claim is unverifiable, the overall verdict should likely be unverifiable. If only a detail is unverifiable, note it but let the core drive the verdict. Multiple unverifiable sub-claims should drag confidence down significantly.

Verdict scale:
- "true" - core assertion AND key details are well-supported
- "mostly_true" - core assertion is right, minor details wrong or imprecise
- "mixed" - core assertion is genuinely split (not just detail errors)
- "mostly_false" - core assertion is wrong, even if some details are right
- "false" - core assertion AND details are clearly contradicted
- "unverifiable" - not enough evidence to judge either way

The overall confidence should reflect the weakest link. Do NOT default to 0.9+; be honest about uncertainty.

If any sub-claim carries important nuance, weave the nuances into one coherent overall nuance note; otherwise set nuance to null.

Return a JSON object: {"verdict": "...", "confidence": 0.0-1.0, "reasoning": "...", "nuance": "..."}. Return ONLY the JSON object.`

const synthesizeUser = `Combine these sub-claim verdicts into a single verdict.

%s

Sub-claim verdicts:
%s

Return a JSON object with "verdict", "confidence", "reasoning", and "nuance".`

const finalContext = `This is the FINAL verdict for the original claim; it is the definitive overall assessment shown to the reader.

Original claim: %q`

const intermediateContext = `This verdict covers ONE ASPECT of the original claim (%q). It will later be combined with verdicts for the other aspects, so judge only this aspect.

Original claim: %q`

// Result is an aggregate verdict over child results
type Result struct {
	Verdict    string
	Confidence float64
	Reasoning  string
	Nuance     string
	// ReasoningChain carries each immediate child's reasoning, in child
	// order. Populated only for a final synthesis.
	ReasoningChain []string
}

// synthOutput is the model's expected JSON shape
type synthOutput struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Nuance     string  `json:"nuance"`
}

// Synthesizer combines verdicts at any level of the tree. One algorithm
// serves the root and intermediate aspect nodes; isFinal only changes the
// framing shown to the model.
type Synthesizer struct {
	invoker *llm.Invoker
	logger  *zap.Logger
}

// NewSynthesizer creates a synthesizer over the resilience layer
func NewSynthesizer(invoker *llm.Invoker, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		invoker: invoker,
		logger:  logger.Named("synth"),
	}
}

// Synthesize combines the children's verdicts. label names the aspect
// being synthesized; it is ignored when isFinal is true. Synthesize never
// returns an error: a failed invocation degrades to unverifiable with the
// raw output preserved in the reasoning.
func (s *Synthesizer) Synthesize(ctx context.Context, claimText, label string, children []*model.VerdictNode, isFinal bool) Result {
	framing := fmt.Sprintf(finalContext, claimText)
	if !isFinal {
		framing = fmt.Sprintf(intermediateContext, label, claimText)
	}

	var out synthOutput
	err := s.invoker.Invoke(ctx, llm.Request{
		Name:   "synthesize",
		System: fmt.Sprintf(synthesizeSystem, time.Now().Format("2006-01-02"), framing),
		User:   fmt.Sprintf(synthesizeUser, framing, formatChildren(children)),
		Validate: func(v any) error {
			parsed := v.(*synthOutput)
			return llm.CheckReasoning(parsed.Reasoning)
		},
	}, &out)

	result := Result{}
	if err != nil {
		s.logger.Warn("synthesis failed, degrading to unverifiable",
			zap.String("claim", claimText), zap.Error(err))
		raw := ""
		if invErr, ok := err.(*llm.InvocationError); ok {
			raw = invErr.RawOutput
		}
		result.Verdict = model.VerdictUnverifiable
		result.Confidence = 0.0
		result.Reasoning = "Failed to parse synthesis: " + raw
	} else {
		result.Verdict = model.NormalizeSynthesisVerdict(out.Verdict)
		result.Confidence = model.ClampConfidence(out.Confidence)
		result.Reasoning = out.Reasoning
		result.Nuance = out.Nuance
		llm.WarnVerdictConsistency(s.logger, result.Verdict, result.Confidence)
	}

	if isFinal {
		chain := make([]string, len(children))
		for i, child := range children {
			chain[i] = child.Reasoning
		}
		result.ReasoningChain = chain
	}

	s.logger.Info("verdict synthesized",
		zap.String("claim", claimText),
		zap.Bool("final", isFinal),
		zap.String("verdict", result.Verdict),
		zap.Float64("confidence", result.Confidence))
	return result
}

// formatChildren renders the children as numbered verdict entries
func formatChildren(children []*model.VerdictNode) string {
	parts := make([]string, 0, len(children))
	for i, child := range children {
		part := fmt.Sprintf("[%d] Sub-claim: %s\n    Verdict: %s\n    Confidence: %.2f\n    Reasoning: %s",
			i+1, child.Text, child.Verdict, child.Confidence, child.Reasoning)
		if child.Nuance != "" {
			part += "\n    Nuance: " + child.Nuance
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n\n")
}
