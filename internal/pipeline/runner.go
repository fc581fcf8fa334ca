// Package pipeline orchestrates claim verification end to end: create,
// decompose, concurrent research and judgment per sub-claim, synthesis,
// and persistence. Stage execution goes through a Runner so the
// orchestration logic stays independent of the execution substrate.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/model"
)

// Runner executes one named pipeline stage under a policy. Implementations
// decide how timeouts, retries, and pauses are realized; callers only see
// success or a final error after the attempt budget is exhausted.
type Runner interface {
	Run(ctx context.Context, stage string, policy model.StagePolicy, fn func(ctx context.Context) error) error
}

// LocalRunner runs stages in-process with a per-attempt timeout and a
// fixed attempt budget. It is not crash-safe: a process restart loses all
// in-flight work. A durable-execution backend would implement Runner
// instead.
type LocalRunner struct {
	logger *zap.Logger
	// pause between attempts, overridable for tests
	pause time.Duration
}

// NewLocalRunner creates an in-process stage runner
func NewLocalRunner(logger *zap.Logger) *LocalRunner {
	return &LocalRunner{
		logger: logger.Named("runner"),
		pause:  time.Second,
	}
}

// Run executes fn up to policy.MaxAttempts times, each attempt under its
// own policy.Timeout context. The last attempt's error is returned once
// the budget is exhausted. A cancelled parent context stops retrying.
func (r *LocalRunner) Run(ctx context.Context, stage string, policy model.StagePolicy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		}
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
		r.logger.Warn("stage attempt failed",
			zap.String("stage", stage),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			select {
			case <-time.After(r.pause):
			case <-ctx.Done():
				return fmt.Errorf("stage %s: %w", stage, ctx.Err())
			}
		}
	}
	return fmt.Errorf("stage %s failed after %d attempts: %w", stage, attempts, lastErr)
}
