package agent

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/extract"
	"github.com/ppiankov/veridex/internal/model"
)

// fallbackTools are the tools the deterministic path may call, in the
// toolset's own priority order: searches first, encyclopedia last.
var fallbackTools = map[string]struct{}{
	"searx_search":     {},
	"serper_search":    {},
	"brave_search":     {},
	"web_search":       {},
	"wikipedia_search": {},
}

// fallback searches for the claim text directly, with no model in the
// loop. Less targeted than the agent's queries, but it always returns,
// and the judge can still work with (or without) what it finds.
func (a *Agent) fallback(ctx context.Context, subClaim string) []model.EvidenceRecord {
	extractor := extract.NewExtractor()
	var records []model.EvidenceRecord

	for _, tool := range a.toolset {
		if _, ok := fallbackTools[tool.Name()]; !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if len(records) >= a.config.FallbackMaxEvidence {
			break
		}

		output, err := tool.Invoke(ctx, subClaim)
		if err != nil {
			a.logger.Warn("fallback tool failed",
				zap.String("tool", tool.Name()), zap.Error(err))
			continue
		}
		records = append(records, extractor.Extract(tool.Name(), output)...)
	}

	if len(records) > a.config.FallbackMaxEvidence {
		records = records[:a.config.FallbackMaxEvidence]
	}

	a.logger.Info("fallback search complete",
		zap.String("sub_claim", truncateForLog(subClaim)), zap.Int("evidence", len(records)))
	return records
}

// parseQueryArgument reads the "query" field from a tool call's JSON
// arguments. A bare string argument is accepted as the query itself.
func parseQueryArgument(arguments string) string {
	if arguments == "" {
		return ""
	}
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err == nil && args.Query != "" {
		return args.Query
	}
	var bare string
	if err := json.Unmarshal([]byte(arguments), &bare); err == nil {
		return bare
	}
	return ""
}
