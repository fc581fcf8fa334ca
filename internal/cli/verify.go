package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veridex/internal/agent"
	"github.com/ppiankov/veridex/internal/cache"
	"github.com/ppiankov/veridex/internal/decompose"
	"github.com/ppiankov/veridex/internal/judge"
	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/logging"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/pipeline"
	"github.com/ppiankov/veridex/internal/store"
	"github.com/ppiankov/veridex/internal/synth"
	"github.com/ppiankov/veridex/internal/tools"
	"github.com/ppiankov/veridex/internal/util"
	"github.com/ppiankov/veridex/internal/worker"
)

var (
	verifyClaimID string
	verifyJSON    bool
	verifyModel   string
)

// verifyCmd runs the full verification pipeline for one claim
var verifyCmd = &cobra.Command{
	Use:   "verify [claim]",
	Short: "Verify a factual claim",
	Long: `Verify a factual claim against public evidence.

The claim is decomposed into atomic sub-claims, each sub-claim is
researched and judged independently, and the results are synthesized
into a graded verdict with a reasoning trail.

Examples:
  veridex verify "The Eiffel Tower was completed in 1889"
  veridex verify --claim-id 6a1f... # re-verify a stored claim`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimText := ""
		if len(args) > 0 {
			claimText = strings.TrimSpace(args[0])
		}
		if claimText == "" && verifyClaimID == "" {
			return fmt.Errorf("provide a claim to verify, or --claim-id for a stored claim")
		}
		return runVerify(cmd.Context(), claimText, verifyClaimID)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyClaimID, "claim-id", "", "verify an existing stored claim by id")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the verdict as JSON")
	verifyCmd.Flags().StringVar(&verifyModel, "model", "", "override the configured model")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(ctx context.Context, claimText, claimID string) error {
	cfg := loadConfig()
	if verifyModel != "" {
		cfg.LLM.Model = verifyModel
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	client := llm.NewOpenAIClient(cfg.LLM)
	invoker := llm.NewInvoker(client, cfg.LLM, logger)

	c := cache.NewMemoryCache(24*time.Hour, time.Hour)
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	robots := util.NewRobotsChecker(c, cfg.Tools.UserAgent, cfg.Tools.FetchTimeout)
	toolset := tools.NewToolset(cfg.Tools, robots, limiter, c, logger)

	p := pipeline.NewPipeline(
		decompose.NewDecomposer(invoker, logger),
		agent.NewAgent(invoker, toolset, cfg.Agent, logger),
		judge.NewJudge(invoker, logger),
		synth.NewSynthesizer(invoker, logger),
		st,
		pipeline.NewLocalRunner(logger),
		cfg.Pipeline,
		logger,
	)

	verdict, err := p.Verify(ctx, claimText, claimID)
	if err != nil {
		return err
	}

	if verifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}
	printVerdict(verdict, claimText)
	return nil
}

// openStore selects Postgres when a database URL is configured, the
// in-memory store otherwise
func openStore(ctx context.Context, cfg *model.Config) (store.Store, error) {
	if cfg.Database.URL == "" {
		return store.NewMemoryStore(), nil
	}
	st, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return st, nil
}

func printVerdict(verdict *model.Verdict, claimText string) {
	if claimText != "" {
		fmt.Printf("Claim: %s\n\n", claimText)
	}
	fmt.Printf("Verdict:    %s\n", verdict.Verdict)
	fmt.Printf("Confidence: %.0f%%\n", verdict.Confidence*100)
	if verdict.Reasoning != "" {
		fmt.Printf("\n%s\n", verdict.Reasoning)
	}
	if verdict.Nuance != "" {
		fmt.Printf("\nNuance: %s\n", verdict.Nuance)
	}

	if len(verdict.Root) > 1 {
		fmt.Printf("\nSub-claims:\n")
		for i, leaf := range verdict.Root {
			fmt.Printf("  %d. [%s %.0f%%] %s\n", i+1, leaf.Verdict, leaf.Confidence*100, leaf.Text)
			if leaf.Reasoning != "" {
				fmt.Printf("     %s\n", leaf.Reasoning)
			}
			if n := len(leaf.Evidence); n > 0 {
				fmt.Printf("     evidence: %d source(s)\n", n)
			}
		}
	}
}
