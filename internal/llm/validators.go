package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Shared semantic checks used by the stage validators. Schema validation
// guarantees shape; these guard content plausibility. Hard failures make
// the resilience layer retry; soft inconsistencies are only logged — the
// model may have good reasons.

const minReasoningLength = 10

// CheckReasoning fails when the reasoning text is empty or trivial
func CheckReasoning(reasoning string) error {
	if len(strings.TrimSpace(reasoning)) < minReasoningLength {
		return fmt.Errorf("reasoning is empty or too short")
	}
	return nil
}

// WarnVerdictConsistency logs suspicious verdict/confidence pairs without
// failing validation: a strong verdict with low confidence, or an
// unverifiable verdict held with high confidence.
func WarnVerdictConsistency(logger *zap.Logger, verdict string, confidence float64) {
	if (verdict == "true" || verdict == "false") && confidence < 0.3 {
		logger.Warn("strong verdict with low confidence",
			zap.String("verdict", verdict),
			zap.Float64("confidence", confidence))
	}
	if verdict == "unverifiable" && confidence > 0.8 {
		logger.Warn("unverifiable verdict with high confidence",
			zap.Float64("confidence", confidence))
	}
}
