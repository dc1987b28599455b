package main

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/FN90/devops-pr-code-reviewer/internal/agent"
	"github.com/FN90/devops-pr-code-reviewer/internal/evaluation"
	"github.com/FN90/devops-pr-code-reviewer/internal/gateway"
	"github.com/FN90/devops-pr-code-reviewer/internal/llm"
	"github.com/FN90/devops-pr-code-reviewer/internal/prompts"
)

type evalOptions struct {
	configFile string
	suite      string
	prompts    []string
	runs       int
	resultsDir string
	logLevel   string
}

func newEvalCmd() *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score prompt variants against a suite of known diffs",
		Example: `  pr-reviewer eval --suite evaluation/suite.json
  pr-reviewer eval --suite evaluation/suite.json --prompts default,concise --runs 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "config.json", "Path to configuration file")
	flags.StringVar(&opts.suite, "suite", "", "Path to the evaluation suite file")
	flags.StringSliceVar(&opts.prompts, "prompts", nil, "Prompt variants to evaluate (default: all)")
	flags.IntVar(&opts.runs, "runs", 1, "Runs per prompt variant")
	flags.StringVar(&opts.resultsDir, "results-dir", "evaluation_results", "Directory for result files")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	return cmd
}

func (o *evalOptions) validate() error {
	if o.suite == "" {
		return usagef("--suite is required")
	}
	if o.runs < 1 {
		return usagef("--runs must be at least 1")
	}
	if hclog.LevelFromString(o.logLevel) == hclog.NoLevel {
		return usagef("unknown log level %q", o.logLevel)
	}
	for _, name := range o.prompts {
		if _, err := prompts.GetVariant(strings.TrimSpace(name)); err != nil {
			return usagef("%v (available: %s)", err, strings.Join(prompts.ListVariants(), ", "))
		}
	}
	return nil
}

func runEval(cmd *cobra.Command, opts *evalOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "pr-reviewer-eval",
		Level:  hclog.LevelFromString(opts.logLevel),
		Output: cmd.ErrOrStderr(),
	})

	cfg, err := loadConfig(cmd, opts.configFile, "")
	if err != nil {
		return err
	}

	suite, err := evaluation.LoadSuite(opts.suite)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	factory := func(variant string) agent.Reviewer {
		return gateway.New(provider,
			gateway.WithLogger(logger.Named("gateway")),
			gateway.WithMaxInputTokens(cfg.MaxInputTokens),
			gateway.WithPromptVariant(variant),
		)
	}
	evaluator := evaluation.NewEvaluator(suite, provider.GetModel(), factory, cfg.Policy, logger)

	variants := opts.prompts
	if len(variants) == 0 {
		variants = prompts.ListVariants()
	}

	out := cmd.OutOrStdout()
	var results []*evaluation.Result
	for _, variant := range variants {
		variant = strings.TrimSpace(variant)
		result, err := evaluator.Evaluate(cmd.Context(), variant, opts.runs)
		if err != nil {
			return err
		}
		results = append(results, result)

		evaluation.PrintEvaluationSummary(out, result)

		path, err := evaluation.SaveEvaluationResults(opts.resultsDir, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Results saved to: %s\n", path)
	}

	if len(results) > 1 {
		evaluation.PrintComparison(out, results)
	}
	return nil
}
