// Package decompose splits a claim into atomic, independently verifiable
// sub-claims.
package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/model"
)

const decomposeSystem = `You are a fact-checker's assistant. Your job is to break a claim into atomic, independently verifiable factual assertions.

RULES:
1. Each sub-claim must be checkable on its own, with enough context to search for.
2. Keep comparisons as single assertions ("A spends more than B"), never split them.
3. For attributed claims ("X said Y"), extract BOTH the attribution AND the substance Y.
4. For temporal claims ("X after Y"), extract the sequence as its own assertion.
5. Preserve exact quantifiers and figures ("all", "most", "over $800B").
6. If the claim is already atomic, return it as the single item.
7. 2-6 sub-claims is typical.

Return ONLY a JSON array of strings. No markdown, no explanation, no wrapping.`

const decomposeUser = `Break this claim into atomic verifiable sub-claims.

Claim: %s

Return a JSON array of strings.`

// Decomposer turns claim text into a flat list of sub-claims
type Decomposer struct {
	invoker *llm.Invoker
	logger  *zap.Logger
}

// NewDecomposer creates a decomposer over the resilience layer
func NewDecomposer(invoker *llm.Invoker, logger *zap.Logger) *Decomposer {
	return &Decomposer{
		invoker: invoker,
		logger:  logger.Named("decompose"),
	}
}

// Decompose breaks the claim into sub-claims. It never fails outward and
// never returns an empty list: when the model call or normalization comes
// up empty, the original claim itself is the single sub-claim.
func (d *Decomposer) Decompose(ctx context.Context, claimText string) []model.SubClaim {
	var list subClaimList
	err := d.invoker.Invoke(ctx, llm.Request{
		Name:   "decompose",
		System: decomposeSystem,
		User:   fmt.Sprintf(decomposeUser, claimText),
		Validate: func(v any) error {
			parsed, ok := v.(*subClaimList)
			if !ok || len(*parsed) == 0 {
				return fmt.Errorf("decomposition yielded no sub-claims")
			}
			return nil
		},
	}, &list)
	if err != nil {
		d.logger.Warn("decomposition failed, using original claim",
			zap.String("claim", claimText), zap.Error(err))
		return []model.SubClaim{{Text: claimText}}
	}

	d.logger.Info("claim decomposed",
		zap.String("claim", claimText), zap.Int("sub_claims", len(list)))
	return list
}

// subClaimList normalizes the model's heterogeneous decomposition shapes
// into a flat list: bare strings become items, {"text": ...} objects
// become items, and legacy {"label", "children"} groups are recursively
// flattened into their children with the label discarded. Items without
// usable text are dropped.
type subClaimList []model.SubClaim

func (l *subClaimList) UnmarshalJSON(data []byte) error {
	var nodes []json.RawMessage
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("decomposition is not a JSON array: %w", err)
	}

	flat, err := flattenNodes(nodes)
	if err != nil {
		return err
	}
	*l = flat
	return nil
}

func flattenNodes(nodes []json.RawMessage) ([]model.SubClaim, error) {
	var flat []model.SubClaim
	for _, raw := range nodes {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				flat = append(flat, model.SubClaim{Text: text})
			}
			continue
		}

		var node struct {
			Text     string            `json:"text"`
			Label    string            `json:"label"`
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("decomposition node is neither string nor object: %w", err)
		}

		if len(node.Children) > 0 {
			children, err := flattenNodes(node.Children)
			if err != nil {
				return nil, err
			}
			flat = append(flat, children...)
			continue
		}
		if text = strings.TrimSpace(node.Text); text != "" {
			flat = append(flat, model.SubClaim{Text: text})
		}
	}
	return flat, nil
}
