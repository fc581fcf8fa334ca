package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/judge"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/store"
	"github.com/ppiankov/veridex/internal/synth"
	"github.com/ppiankov/veridex/internal/worker"
)

// Decomposer splits a claim into atomic sub-claims
type Decomposer interface {
	Decompose(ctx context.Context, claimText string) []model.SubClaim
}

// Researcher gathers evidence for one sub-claim
type Researcher interface {
	Research(ctx context.Context, subClaim string) ([]model.EvidenceRecord, string)
}

// Judger grades one sub-claim against its evidence
type Judger interface {
	Judge(ctx context.Context, claimText, subClaim string, evidence []model.EvidenceRecord, agentSummary string) judge.Judgment
}

// Synthesizer combines child verdicts into a parent verdict
type Synthesizer interface {
	Synthesize(ctx context.Context, claimText, label string, children []*model.VerdictNode, isFinal bool) synth.Result
}

// branchFailureReasoning marks leaves whose research/judge branch could
// not complete. Siblings are unaffected.
const branchFailureReasoning = "Verification of this sub-claim could not be completed."

// Pipeline verifies claims end to end
type Pipeline struct {
	decomposer  Decomposer
	researcher  Researcher
	judge       Judger
	synthesizer Synthesizer
	store       store.Store
	runner      Runner
	config      model.PipelineConfig
	logger      *zap.Logger
}

// NewPipeline wires the verification stages together
func NewPipeline(d Decomposer, r Researcher, j Judger, s Synthesizer, st store.Store, runner Runner, cfg model.PipelineConfig, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		decomposer:  d,
		researcher:  r,
		judge:       j,
		synthesizer: s,
		store:       st,
		runner:      runner,
		config:      cfg,
		logger:      logger.Named("pipeline"),
	}
}

// Verify runs the full pipeline for a claim. When claimID is empty a new
// claim record is created; otherwise the existing record is loaded and its
// text used. Stage exhaustion on decompose, synthesize, or store flags the
// claim and persists no partial verdict.
func (p *Pipeline) Verify(ctx context.Context, claimText, claimID string) (*model.Verdict, error) {
	var claim *model.Claim
	err := p.runner.Run(ctx, "create", p.config.Create, func(ctx context.Context) error {
		var err error
		if claimID == "" {
			claim, err = p.store.CreateClaim(ctx, claimText)
		} else {
			claim, err = p.store.GetClaim(ctx, claimID)
		}
		if err != nil {
			return err
		}
		return p.store.SetStatus(ctx, claim.ID, model.StatusProcessing)
	})
	if err != nil {
		return nil, err
	}
	claimText = claim.Text
	log := p.logger.With(zap.String("claim_id", claim.ID))
	log.Info("verification started", zap.String("claim", claimText))

	var subClaims []model.SubClaim
	err = p.runner.Run(ctx, "decompose", p.config.Decompose, func(ctx context.Context) error {
		subClaims = p.decomposer.Decompose(ctx, claimText)
		return ctx.Err()
	})
	if err != nil {
		p.flag(claim.ID)
		return nil, err
	}
	if max := p.config.MaxSubClaims; max > 0 && len(subClaims) > max {
		log.Warn("decomposition capped",
			zap.Int("sub_claims", len(subClaims)),
			zap.Int("max", max))
		subClaims = subClaims[:max]
	}
	log.Info("claim decomposed", zap.Int("sub_claims", len(subClaims)))

	leaves := p.verifyBranches(ctx, claimText, subClaims, log)

	verdict := &model.Verdict{Root: leaves}
	err = p.runner.Run(ctx, "synthesize", p.config.Synthesize, func(ctx context.Context) error {
		if len(leaves) == 1 {
			// A single sub-claim needs no synthesis: promote its leaf
			// verdict into the 6-level scale.
			leaf := leaves[0]
			verdict.Verdict = model.PromoteLeafVerdict(leaf.Verdict)
			verdict.Confidence = leaf.Confidence
			verdict.Reasoning = leaf.Reasoning
			verdict.Nuance = leaf.Nuance
			verdict.ReasoningChain = []string{leaf.Reasoning}
			return nil
		}
		result := p.synthesizer.Synthesize(ctx, claimText, "", leaves, true)
		verdict.Verdict = result.Verdict
		verdict.Confidence = result.Confidence
		verdict.Reasoning = result.Reasoning
		verdict.Nuance = result.Nuance
		verdict.ReasoningChain = result.ReasoningChain
		return ctx.Err()
	})
	if err != nil {
		p.flag(claim.ID)
		return nil, err
	}

	err = p.runner.Run(ctx, "store", p.config.Store, func(ctx context.Context) error {
		if err := p.store.SaveResult(ctx, claim.ID, verdict); err != nil {
			return err
		}
		return p.store.SetStatus(ctx, claim.ID, model.StatusVerified)
	})
	if err != nil {
		p.flag(claim.ID)
		return nil, err
	}

	log.Info("verification complete",
		zap.String("verdict", verdict.Verdict),
		zap.Float64("confidence", verdict.Confidence))
	return verdict, nil
}

// verifyBranches fans research+judge out over the sub-claims and collects
// the leaves back in sub-claim order. A failed branch becomes an
// unverifiable leaf; it never fails the pipeline.
func (p *Pipeline) verifyBranches(ctx context.Context, claimText string, subClaims []model.SubClaim, log *zap.Logger) []*model.VerdictNode {
	pool := worker.NewPool(p.config.MaxConcurrent)
	pool.Start()
	for i, sc := range subClaims {
		pool.Submit(&branchJob{
			pipeline:  p,
			parentCtx: ctx,
			claimText: claimText,
			subClaim:  sc.Text,
			index:     i,
		})
	}
	results := pool.Wait()

	leaves := make([]*model.VerdictNode, len(subClaims))
	for _, res := range results {
		branch := res.(*branchResult)
		leaves[branch.index] = branch.node
	}
	// The pool drops jobs when its context dies; fill any hole so the
	// tree stays complete.
	for i, leaf := range leaves {
		if leaf == nil {
			leaves[i] = failedLeaf(subClaims[i].Text)
			log.Warn("branch produced no result", zap.Int("index", i))
		}
	}
	return leaves
}

// branchJob is one research-then-judge branch of the fan-out
type branchJob struct {
	pipeline  *Pipeline
	parentCtx context.Context
	claimText string
	subClaim  string
	index     int
}

type branchResult struct {
	index int
	node  *model.VerdictNode
	err   error
}

func (r *branchResult) GetError() error { return r.err }

// Execute runs research and judgment for one sub-claim. The pool's
// context only signals shutdown; stage deadlines come from the runner.
func (j *branchJob) Execute(_ context.Context) worker.Result {
	p := j.pipeline
	ctx := j.parentCtx

	var (
		evidence []model.EvidenceRecord
		summary  string
	)
	err := p.runner.Run(ctx, "research", p.config.Research, func(ctx context.Context) error {
		evidence, summary = p.researcher.Research(ctx, j.subClaim)
		return ctx.Err()
	})
	if err != nil {
		p.logger.Warn("research branch failed",
			zap.Int("index", j.index),
			zap.String("sub_claim", j.subClaim),
			zap.Error(err))
		return &branchResult{index: j.index, node: failedLeaf(j.subClaim)}
	}

	var judgment judge.Judgment
	err = p.runner.Run(ctx, "judge", p.config.Judge, func(ctx context.Context) error {
		judgment = p.judge.Judge(ctx, j.claimText, j.subClaim, evidence, summary)
		return ctx.Err()
	})
	if err != nil {
		p.logger.Warn("judge branch failed",
			zap.Int("index", j.index),
			zap.String("sub_claim", j.subClaim),
			zap.Error(err))
		return &branchResult{index: j.index, node: failedLeaf(j.subClaim)}
	}

	return &branchResult{index: j.index, node: &model.VerdictNode{
		Text:       j.subClaim,
		IsLeaf:     true,
		Verdict:    judgment.Verdict,
		Confidence: judgment.Confidence,
		Reasoning:  judgment.Reasoning,
		Nuance:     judgment.Nuance,
		Evidence:   evidence,
	}}
}

// failedLeaf is the unverifiable placeholder for a branch that could not
// complete
func failedLeaf(subClaim string) *model.VerdictNode {
	return &model.VerdictNode{
		Text:       subClaim,
		IsLeaf:     true,
		Verdict:    model.VerdictUnverifiable,
		Confidence: 0,
		Reasoning:  branchFailureReasoning,
	}
}

// flag marks a claim as flagged after stage exhaustion. Runs on its own
// context since the caller's may already be dead.
func (p *Pipeline) flag(claimID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.store.SetStatus(ctx, claimID, model.StatusFlagged); err != nil {
		p.logger.Error("failed to flag claim",
			zap.String("claim_id", claimID),
			zap.Error(err))
	}
}
