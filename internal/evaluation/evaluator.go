package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/FN90/devops-pr-code-reviewer/internal/agent"
	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// ReviewerFactory builds the reviewer used for one prompt variant.
type ReviewerFactory func(promptVariant string) agent.Reviewer

// Run is one pass of a prompt variant over the whole suite.
type Run struct {
	Model         string           `json:"model"`
	PromptVariant string           `json:"prompt_variant"`
	RunNumber     int              `json:"run_number"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       time.Time        `json:"end_time"`
	TotalDuration time.Duration    `json:"total_duration"`
	Results       []TestCaseResult `json:"results"`
	AverageScore  float64          `json:"average_score"`
	SuccessRate   float64          `json:"success_rate"`
}

type TestCaseResult struct {
	TestCase      string          `json:"test_case"`
	Findings      []types.Finding `json:"findings"`
	FilteredOut   int             `json:"filtered_out"`
	ExecutionTime time.Duration   `json:"execution_time"`
	Success       bool            `json:"success"`
	Score         float64         `json:"score"`
	Errors        []string        `json:"errors,omitempty"`
}

// Result aggregates every run of one prompt variant.
type Result struct {
	Model           string                   `json:"model"`
	PromptVariant   string                   `json:"prompt_variant"`
	TotalRuns       int                      `json:"total_runs"`
	StartTime       time.Time                `json:"start_time"`
	EndTime         time.Time                `json:"end_time"`
	TotalDuration   time.Duration            `json:"total_duration"`
	IndividualRuns  []Run                    `json:"individual_runs"`
	AggregatedStats Stats                    `json:"aggregated_stats"`
	TestCaseStats   map[string]TestCaseStats `json:"test_case_stats"`
}

type Stats struct {
	AverageScore       float64 `json:"average_score"`
	ScoreStdDev        float64 `json:"score_std_dev"`
	AverageSuccessRate float64 `json:"average_success_rate"`
	SuccessRateStdDev  float64 `json:"success_rate_std_dev"`
	AverageDuration    float64 `json:"average_duration_seconds"`
	DurationStdDev     float64 `json:"duration_std_dev_seconds"`
}

type TestCaseStats struct {
	TestCaseName string  `json:"test_case_name"`
	AverageScore float64 `json:"average_score"`
	ScoreStdDev  float64 `json:"score_std_dev"`
}

// Evaluator runs a suite through the full review pipeline and scores the
// reported findings.
type Evaluator struct {
	suite       *Suite
	model       string
	newReviewer ReviewerFactory
	policy      types.ReviewPolicy
	scorer      Scorer
	logger      hclog.Logger
}

func NewEvaluator(suite *Suite, model string, newReviewer ReviewerFactory, policy types.ReviewPolicy, logger hclog.Logger) *Evaluator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Evaluator{
		suite:       suite,
		model:       model,
		newReviewer: newReviewer,
		policy:      policy,
		scorer:      NewSimpleScorer(),
		logger:      logger,
	}
}

// Evaluate runs the suite runs times with promptVariant. A failed test case
// scores zero and does not stop the run; cancellation does.
func (e *Evaluator) Evaluate(ctx context.Context, promptVariant string, runs int) (*Result, error) {
	if runs < 1 {
		runs = 1
	}

	result := &Result{
		Model:         e.model,
		PromptVariant: promptVariant,
		TotalRuns:     runs,
		StartTime:     time.Now(),
	}

	orchestrator := agent.NewOrchestrator(e.newReviewer(promptVariant), agent.WithLogger(e.logger.Named("orchestrator")))

	for i := 1; i <= runs; i++ {
		run, err := e.runOnce(ctx, orchestrator, promptVariant, i)
		if err != nil {
			return nil, err
		}
		result.IndividualRuns = append(result.IndividualRuns, *run)
	}

	result.EndTime = time.Now()
	result.TotalDuration = result.EndTime.Sub(result.StartTime)
	CalculateEvaluationStats(result)

	return result, nil
}

func (e *Evaluator) runOnce(ctx context.Context, orchestrator *agent.Orchestrator, promptVariant string, number int) (*Run, error) {
	run := &Run{
		Model:         e.model,
		PromptVariant: promptVariant,
		RunNumber:     number,
		StartTime:     time.Now(),
		Results:       make([]TestCaseResult, 0, len(e.suite.TestCases)),
	}

	for i, tc := range e.suite.TestCases {
		start := time.Now()
		report, err := orchestrator.Review(ctx, agent.Input{Files: tc.Files, Policy: e.policy})
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, fmt.Errorf("evaluation interrupted: %w", err)
		}

		tr := TestCaseResult{
			TestCase:      tc.Name,
			ExecutionTime: time.Since(start),
		}
		if err != nil {
			tr.Errors = []string{err.Error()}
			tr.Findings = []types.Finding{}
		} else {
			tr.Success = true
			tr.Findings = report.Findings
			tr.FilteredOut = len(report.FilteredOut)
			tr.Score = e.scorer.Score(tc.Expected, report.Findings)
		}

		e.logger.Info("test case evaluated", "prompt", promptVariant, "run", number,
			"case", fmt.Sprintf("%d/%d", i+1, len(e.suite.TestCases)), "name", tc.Name,
			"score", tr.Score, "success", tr.Success)

		run.Results = append(run.Results, tr)
	}

	run.EndTime = time.Now()
	run.TotalDuration = run.EndTime.Sub(run.StartTime)
	CalculateRunSummary(run)

	return run, nil
}
