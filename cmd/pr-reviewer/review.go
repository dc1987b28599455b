package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/FN90/devops-pr-code-reviewer/internal/agent"
	"github.com/FN90/devops-pr-code-reviewer/internal/gateway"
	"github.com/FN90/devops-pr-code-reviewer/internal/github"
	"github.com/FN90/devops-pr-code-reviewer/internal/llm"
	"github.com/FN90/devops-pr-code-reviewer/internal/tools"
	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/pkg/config"
	"github.com/FN90/devops-pr-code-reviewer/pkg/spinner"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"

	jsonReportFilename = "pr_review_report.json"
)

type reviewOptions struct {
	configFile string
	repoDir    string
	base       string
	head       string
	staged     bool
	githubRepo string
	pr         int
	post       bool
	format     string
	out        string
	logLevel   string
}

func newReviewCmd() *cobra.Command {
	opts := &reviewOptions{}

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review the changes between two revisions or of a pull request",
		Example: `  pr-reviewer review --base origin/main
  pr-reviewer review --staged
  pr-reviewer review --github-repo acme/widgets --pr 42 --post`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd.Context(), cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "config.json", "Path to configuration file")
	flags.StringVar(&opts.repoDir, "repo", ".", "Path to the local git checkout")
	flags.StringVar(&opts.base, "base", "", "Base revision (defaults to the last reviewed commit, or the pull request base, when --pr is set)")
	flags.StringVar(&opts.head, "head", "", "Head revision (defaults to HEAD, or the pull request head when --pr is set)")
	flags.BoolVar(&opts.staged, "staged", false, "Review staged changes instead of a revision range")
	flags.StringVar(&opts.githubRepo, "github-repo", "", "GitHub repository as owner/name (overrides config)")
	flags.IntVar(&opts.pr, "pr", 0, "Pull request number")
	flags.BoolVar(&opts.post, "post", false, "Publish the findings as a pull request review")
	flags.StringVar(&opts.format, "format", formatMarkdown, "Report format (markdown, json)")
	flags.StringVar(&opts.out, "out", "", "Report file, or - for stdout (default depends on --format)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	return cmd
}

func (o *reviewOptions) validate() error {
	if o.format != formatMarkdown && o.format != formatJSON {
		return usagef("unsupported format %q (supported: %s, %s)", o.format, formatMarkdown, formatJSON)
	}
	if hclog.LevelFromString(o.logLevel) == hclog.NoLevel {
		return usagef("unknown log level %q", o.logLevel)
	}
	if o.pr < 0 {
		return usagef("--pr must be positive")
	}
	if o.post && o.pr == 0 {
		return usagef("--post requires --pr")
	}
	if o.staged && (o.base != "" || o.head != "") {
		return usagef("--staged cannot be combined with --base or --head")
	}
	if o.staged && o.post {
		return usagef("--staged cannot be combined with --post")
	}
	return nil
}

func (o *reviewOptions) reportPath() string {
	if o.out != "" {
		return o.out
	}
	if o.format == formatJSON {
		return jsonReportFilename
	}
	return agent.ReportFilename
}

func runReview(ctx context.Context, cmd *cobra.Command, opts *reviewOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "pr-reviewer",
		Level:  hclog.LevelFromString(opts.logLevel),
		Output: cmd.ErrOrStderr(),
	})

	cfg, err := loadConfig(cmd, opts.configFile, opts.githubRepo)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	logger.Info("using provider", "provider", cfg.LLM.Provider, "model", provider.GetModel())
	if !llm.IsTestedModel(provider.GetModel()) {
		logger.Warn("model is not tested, you may experience unexpected results", "model", provider.GetModel())
	}

	var gh *github.Client
	if opts.pr > 0 {
		gh, err = github.NewClient(cfg.GitHub, logger.Named("github"))
		if err != nil {
			return err
		}
	}

	collector := &tools.GitDiffCollector{Dir: opts.repoDir}

	headSHA, files, err := collectDiff(ctx, collector, gh, opts, logger)
	if err != nil {
		return err
	}

	var previous []types.PreviousComment
	if gh != nil {
		previous, err = gh.PreviousComments(ctx, opts.pr)
		if err != nil {
			return err
		}
	}

	progress := newProgress(cmd.ErrOrStderr())
	defer progress.Stop()

	reviewer := gateway.New(provider,
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithMaxInputTokens(cfg.MaxInputTokens),
		gateway.WithPromptVariant(cfg.PromptVariant),
	)
	orchestrator := agent.NewOrchestrator(reviewer,
		agent.WithLogger(logger.Named("orchestrator")),
		agent.WithFilter(cfg.Filter),
		agent.WithProgress(progress.Update),
	)

	report, err := orchestrator.Review(ctx, agent.Input{
		Files:            files,
		Policy:           cfg.Policy,
		PreviousComments: previous,
	})
	progress.Stop()
	if err != nil {
		return fmt.Errorf("code review failed: %w", err)
	}

	savedTo, err := writeReport(cmd.OutOrStdout(), opts, report, logger)
	if err != nil {
		return err
	}

	summaryOut := cmd.OutOrStdout()
	if savedTo == "" {
		summaryOut = cmd.ErrOrStderr()
	}
	agent.PrintReviewSummary(summaryOut, report, savedTo)

	if !opts.post {
		return nil
	}

	result, err := gh.Publish(ctx, opts.pr, headSHA, report, files)
	if err != nil {
		return err
	}
	logger.Info("review published", "review_id", result.ReviewID, "inline", result.Inline, "general", result.General)

	return gh.MarkReviewed(ctx, opts.pr, headSHA)
}

// loadConfig falls back to the defaults when --config was not given and the
// default file does not exist.
func loadConfig(cmd *cobra.Command, configFile, githubRepo string) (*config.Config, error) {
	load := config.LoadOrDefault
	if cmd.Flags().Changed("config") {
		load = config.LoadConfig
	}

	cfg, err := load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
	}

	if githubRepo != "" {
		cfg.GitHub.Repository = githubRepo
	}
	return cfg, nil
}

// collectDiff returns the head commit being reviewed and the per-file diffs.
// With a pull request, head defaults to its head commit and base to the last
// reviewed commit, or the pull request base on a first review.
func collectDiff(ctx context.Context, collector *tools.GitDiffCollector, gh *github.Client, opts *reviewOptions, logger hclog.Logger) (string, []types.FileDiff, error) {
	if opts.staged {
		files, err := collector.CollectStaged(ctx)
		return "", files, err
	}

	base, head := opts.base, opts.head
	if gh != nil && (base == "" || head == "") {
		prBase, prHead, err := gh.Refs(ctx, opts.pr)
		if err != nil {
			return "", nil, err
		}
		if head == "" {
			head = prHead
		}
		if base == "" {
			base, err = gh.LastReviewed(ctx, opts.pr)
			if err != nil {
				return "", nil, err
			}
			if base != "" {
				logger.Info("reviewing changes since last review", "base", base)
			} else {
				base = prBase
				logger.Info("first review of pull request, using its base", "base", base)
			}
		}
	}
	if base == "" {
		return "", nil, usagef("--base is required unless --staged or --pr is set")
	}
	if head == "" {
		head = "HEAD"
	}

	headSHA, err := collector.RevParse(ctx, head)
	if err != nil {
		return "", nil, err
	}

	files, err := collector.Collect(ctx, base, headSHA)
	if err != nil {
		return "", nil, err
	}
	logger.Debug("collected diff", "base", base, "head", headSHA, "files", len(files))

	return headSHA, files, nil
}

// writeReport renders the report and writes it to the report path. It
// returns the file written, or "" when the report went to stdout.
func writeReport(stdout io.Writer, opts *reviewOptions, report *types.ReviewReport, logger hclog.Logger) (string, error) {
	var content string
	if opts.format == formatJSON {
		rendered, err := agent.RenderJSON(report)
		if err != nil {
			return "", err
		}
		content = rendered
	} else {
		content = agent.RenderMarkdown(report)
	}

	path := opts.reportPath()
	if path == "-" {
		_, err := io.WriteString(stdout, content)
		return "", err
	}

	if err := tools.CheckReportIgnored(filepath.Join(opts.repoDir, ".gitignore"), path); err != nil {
		logger.Warn(err.Error())
	}

	if err := tools.WriteFile(path, content); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

type progressReporter struct {
	spinner *spinner.Spinner
}

// newProgress animates on terminals and stays silent otherwise.
func newProgress(w io.Writer) *progressReporter {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return &progressReporter{spinner: spinner.New(w, "Starting review...")}
	}
	return &progressReporter{}
}

func (p *progressReporter) Update(index, total int, filePath string) {
	if p.spinner == nil {
		return
	}
	p.spinner.Update(fmt.Sprintf("Reviewing %s (%d/%d)", filePath, index, total))
	p.spinner.Start()
}

func (p *progressReporter) Stop() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}
