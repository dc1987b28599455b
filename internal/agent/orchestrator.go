package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/rs/xid"

	"github.com/FN90/devops-pr-code-reviewer/internal/dedupe"
	"github.com/FN90/devops-pr-code-reviewer/internal/filter"
	"github.com/FN90/devops-pr-code-reviewer/internal/position"
	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

const (
	NoFilesSummary = "No files to review."
	titleMaxLen    = 80
)

// Reviewer reviews a single file. *gateway.Gateway implements it.
type Reviewer interface {
	Review(ctx context.Context, filePath, diff string, exclusions []string, policy types.ReviewPolicy) ([]types.ReviewThread, error)
}

// Input is everything one review run needs.
type Input struct {
	Files            []types.FileDiff
	Policy           types.ReviewPolicy
	PreviousComments []types.PreviousComment
}

type Orchestrator struct {
	reviewer Reviewer
	fixer    *position.Fixer
	rules    *filter.Rules
	progress ProgressFunc
	logger   hclog.Logger
}

// ProgressFunc is called before each file is sent for review.
type ProgressFunc func(index, total int, filePath string)

type Option func(*Orchestrator)

func WithLogger(logger hclog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFilter narrows the file list before any file is reviewed.
func WithFilter(rules filter.Rules) Option {
	return func(o *Orchestrator) {
		o.rules = &rules
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

func NewOrchestrator(reviewer Reviewer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reviewer: reviewer,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.fixer = position.NewFixer(o.logger.Named("position"))
	return o
}

// Review runs one review over in.Files, strictly in input order. All dedup
// state lives in this call. A reviewer error aborts the run.
func (o *Orchestrator) Review(ctx context.Context, in Input) (*types.ReviewReport, error) {
	if len(in.Files) == 0 {
		return emptyReport(), nil
	}

	logger := o.logger.With("run_id", xid.New().String())

	files := in.Files
	if o.rules != nil {
		files = filter.Filter(files, *o.rules)
		if len(files) == 0 {
			logger.Info("all files filtered out", "input_files", len(in.Files))
			return emptyReport(), nil
		}
	}

	logger.Info("starting review", "files", len(files), "previous_comments", len(in.PreviousComments))

	run := dedupe.NewEngine(in.Policy, in.PreviousComments).NewRun()
	report := &types.ReviewReport{
		Findings:    []types.Finding{},
		FilteredOut: []types.Finding{},
	}

	for i, file := range files {
		path := types.NormalizePath(file.Path)
		if o.progress != nil {
			o.progress(i+1, len(files), path)
		}

		exclusions := run.Exclusions(path)

		threads, err := o.reviewer.Review(ctx, path, file.Diff, exclusions, in.Policy)
		if err != nil {
			return nil, fmt.Errorf("failed to review %s: %w", path, err)
		}

		threads = o.fixer.Fix(threads, file.Diff)

		kept, dropped := 0, 0
		for _, finding := range Flatten(path, threads) {
			if dedupe.PassesConfidence(in.Policy, finding.Confidence) && run.Accept(&finding) {
				report.Findings = append(report.Findings, finding)
				kept++
				continue
			}
			report.FilteredOut = append(report.FilteredOut, finding)
			dropped++
		}

		run.Record(threads)

		logger.Debug("file reviewed", "file", path, "threads", len(threads),
			"kept", kept, "filtered_out", dropped, "exclusions", len(exclusions), "latched", run.Latched())
	}

	for i := range report.Findings {
		report.Findings[i].Thread = nil
	}
	for i := range report.FilteredOut {
		report.FilteredOut[i].Thread = nil
	}

	report.SummaryMarkdown = Summary(len(report.Findings), len(report.FilteredOut))

	logger.Info("review finished", "findings", len(report.Findings), "filtered_out", len(report.FilteredOut))

	return report, nil
}

// Summary is the one-line markdown summary of a finished run.
func Summary(findings, filteredOut int) string {
	return fmt.Sprintf("Findings: %d (%d filtered out, total generated %d).",
		findings, filteredOut, findings+filteredOut)
}

func emptyReport() *types.ReviewReport {
	return &types.ReviewReport{
		SummaryMarkdown: NoFilesSummary,
		Findings:        []types.Finding{},
		FilteredOut:     []types.Finding{},
	}
}

// Flatten turns every comment of every thread into a Finding for filePath.
// IDs are left empty.
func Flatten(filePath string, threads []types.ReviewThread) []types.Finding {
	var findings []types.Finding

	for i := range threads {
		thread := &threads[i]
		start, end := lineRange(thread.ThreadContext)

		for _, comment := range thread.Comments {
			findings = append(findings, types.Finding{
				FilePath:      filePath,
				LineStart:     start,
				LineEnd:       end,
				Severity:      comment.IssueType.Severity(),
				Category:      comment.IssueType.Category(),
				Title:         title(comment.Content),
				Content:       comment.Content,
				Confidence:    comment.ConfidenceScore,
				Suggestion:    comment.FixSuggestion,
				ThreadContext: thread.ThreadContext,
				Thread:        thread,
			})
		}
	}

	return findings
}

// lineRange prefers the right (new) side and falls back to the left.
func lineRange(tc types.ThreadContext) (start, end int) {
	startPos, endPos := tc.RightFileStart, tc.RightFileEnd
	if startPos == nil {
		startPos, endPos = tc.LeftFileStart, tc.LeftFileEnd
	}
	if startPos == nil {
		return 0, 0
	}

	start = startPos.Line
	end = start
	if endPos != nil && endPos.Line >= start {
		end = endPos.Line
	}
	return start, end
}

func title(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return utils.TruncateString(line, titleMaxLen)
		}
	}
	return ""
}
