// Package agent runs the reason/act/observe loop that gathers evidence
// for one sub-claim.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/extract"
	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/tools"
)

// state tracks where the loop is. The machine is explicit so the step
// budget, the timeout, and the fallback transition stay auditable.
type state int

const (
	stateDeciding state = iota
	stateCallingTool
	stateDone
	stateFailed
)

const maxSummaryLength = 2000

const researchSystem = `Today's date: %s

You are a research assistant tasked with gathering evidence about a specific factual claim. You have access to search tools and a page reader.

Your goal: find evidence from PRIMARY ORIGINAL SOURCES that either SUPPORTS or CONTRADICTS the claim. Quality over quantity.

CRITICAL - SEARCH BOTH SIDES:
After finding evidence that leans one direction, you MUST do at least one search for the OPPOSITE perspective. If you find "X is true", search for "X criticism" or "X debunked" too. One-sided evidence misleads the judge.

RECENCY MATTERS:
For claims about CURRENT situations, prefer recent sources. For HISTORICAL claims, older authoritative sources are fine.

PREFER, in order: original documents and official data; academic papers; major news outlets reporting firsthand (Reuters, AP, BBC, etc.); Wikipedia for established background facts. Press releases, politician statements, and government websites are claims by interested parties, not evidence of truth.

PRIMARY SOURCE PURSUIT:
When reports cite a document or study, try to find the ORIGINAL. Secondary reporting may mischaracterize primary sources.

NEVER cite forums, social media, video platforms, personal blogs, content farms, or third-party fact-check sites. We verify independently.

You have a STRICT budget of 6-8 tool calls total. Be efficient:
1. First search: target the SPECIFIC claim detail (entity + number/date/event).
2. Second search: try a different angle or source.
3. If you found promising URLs, use fetch_page on the 1-2 BEST ones.
4. Counter-search: search for evidence AGAINST your initial findings.
5. Stop and summarize.

Do NOT make up evidence. Only report what the tools actually return.
Do NOT evaluate whether the claim is true or false - just gather evidence.

When you have finished, write a brief summary of what you found.`

const researchUser = `Find evidence about this claim:

%q

Identify the KEY DETAIL that makes this claim specific and verifiable, then search for THAT. Don't just search for the people or topic in general.

Use multiple search tools when available for source diversity. When you find a promising URL, use fetch_page to read the full article rather than relying only on search snippets.`

// Agent gathers evidence for one sub-claim at a time. Safe for reuse
// across sub-claims; each Research call keeps its own conversation and
// dedupe state.
type Agent struct {
	invoker *llm.Invoker
	toolset []tools.Tool
	byName  map[string]tools.Tool
	config  model.AgentConfig
	logger  *zap.Logger
}

// NewAgent creates an evidence agent over the given toolset
func NewAgent(invoker *llm.Invoker, toolset []tools.Tool, cfg model.AgentConfig, logger *zap.Logger) *Agent {
	return &Agent{
		invoker: invoker,
		toolset: toolset,
		byName:  tools.ByName(toolset),
		config:  cfg,
		logger:  logger.Named("agent"),
	}
}

// Research runs the loop for a sub-claim and returns the evidence records
// plus the agent's own closing summary. It never returns an error: when
// the loop times out, exhausts its step budget, or the model cannot drive
// tool calls, the deterministic fallback produces the result instead.
func (a *Agent) Research(ctx context.Context, subClaim string) ([]model.EvidenceRecord, string) {
	a.logger.Info("research starting", zap.String("sub_claim", truncateForLog(subClaim)))

	loopCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	records, summary, st := a.runLoop(loopCtx, subClaim)
	if st == stateDone {
		a.logger.Info("research complete",
			zap.String("sub_claim", truncateForLog(subClaim)),
			zap.Int("evidence", len(records)))
		return records, summary
	}

	// The loop's partial conversation is discarded, not salvaged; the
	// fallback starts from the claim text alone.
	a.logger.Warn("research loop failed, using direct-search fallback",
		zap.String("sub_claim", truncateForLog(subClaim)))
	return a.fallback(ctx, subClaim), ""
}

// runLoop drives the state machine until Done, Failed, step exhaustion,
// or timeout. Tool results are parsed into evidence as they arrive.
func (a *Agent) runLoop(ctx context.Context, subClaim string) ([]model.EvidenceRecord, string, state) {
	specs := make([]llm.ToolSpec, len(a.toolset))
	for i, t := range a.toolset {
		specs[i] = llm.ToolSpec{Name: t.Name(), Description: t.Description()}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(researchSystem, time.Now().Format("2006-01-02"))},
		{Role: llm.RoleUser, Content: fmt.Sprintf(researchUser, subClaim)},
	}

	extractor := extract.NewExtractor()
	var records []model.EvidenceRecord

	st := stateDeciding
	for steps := 0; steps < a.config.MaxSteps; {
		if ctx.Err() != nil {
			return nil, "", stateFailed
		}

		switch st {
		case stateDeciding:
			resp, err := a.invoker.Raw(ctx, llm.CompletionRequest{
				Messages:    messages,
				Temperature: 0.2,
				Tools:       specs,
			})
			if err != nil {
				a.logger.Warn("agent model call failed", zap.Error(err))
				return nil, "", stateFailed
			}
			steps++

			if len(resp.ToolCalls) == 0 {
				summary := strings.TrimSpace(resp.Content)
				if summary == "" {
					return nil, "", stateFailed
				}
				summary = truncateToRune(summary, maxSummaryLength)
				return records, summary, stateDone
			}

			messages = append(messages, llm.Message{
				Role:      llm.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			st = stateCallingTool

		case stateCallingTool:
			// Calls execute one at a time; each costs a step.
			last := messages[len(messages)-1]
			for _, call := range last.ToolCalls {
				output := a.executeTool(ctx, call, subClaim)
				if ctx.Err() != nil {
					return nil, "", stateFailed
				}
				records = append(records, extractor.Extract(call.Name, output)...)
				messages = append(messages, llm.Message{
					Role:       llm.RoleTool,
					Content:    output,
					Name:       call.Name,
					ToolCallID: call.ID,
				})
				steps++
			}
			st = stateDeciding
		}
	}

	a.logger.Warn("agent step budget exhausted",
		zap.String("sub_claim", truncateForLog(subClaim)), zap.Int("max_steps", a.config.MaxSteps))
	return nil, "", stateFailed
}

// executeTool dispatches one tool call. Transient tool failures come back
// as readable text so the model can route around them.
func (a *Agent) executeTool(ctx context.Context, call llm.ToolCall, subClaim string) string {
	tool, ok := a.byName[call.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s. Available tools: %s.", call.Name, a.toolNames())
	}

	query := parseQueryArgument(call.Arguments)
	if query == "" {
		query = subClaim
	}

	a.logger.Debug("tool call",
		zap.String("tool", call.Name), zap.String("query", truncateForLog(query)))

	output, err := tool.Invoke(ctx, query)
	if err != nil {
		a.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return fmt.Sprintf("Tool %s failed: %v. Try another tool.", call.Name, err)
	}
	return output
}

func (a *Agent) toolNames() string {
	names := make([]string, len(a.toolset))
	for i, t := range a.toolset {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

func truncateForLog(s string) string {
	return truncateToRune(s, 80)
}

// truncateToRune cuts s to at most max bytes without splitting a rune
func truncateToRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
