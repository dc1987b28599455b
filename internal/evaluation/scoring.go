package evaluation

import (
	"strings"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// Scorer rates the findings of one review against the expected results,
// from 0 to 1.
type Scorer interface {
	Score(expected ExpectedResults, actual []types.Finding) float64
}

// ScoringMetric returns a score from 0 to 1, or a negative value when the
// expectations do not cover it.
type ScoringMetric interface {
	Calculate(expected ExpectedResults, actual []types.Finding) float64
}

// SimpleScorer averages the applicable metrics.
type SimpleScorer struct {
	metrics []ScoringMetric
}

func NewSimpleScorer() *SimpleScorer {
	return &SimpleScorer{
		metrics: []ScoringMetric{
			IssueFoundMetric{},
			IssueCountMetric{},
			SeverityMatchMetric{},
			FileMatchMetric{},
		},
	}
}

func (s *SimpleScorer) Score(expected ExpectedResults, actual []types.Finding) float64 {
	var total, applicable float64
	for _, metric := range s.metrics {
		score := metric.Calculate(expected, actual)
		if score < 0 {
			continue
		}
		total += score
		applicable++
	}

	if applicable == 0 {
		return 1.0
	}
	return total / applicable
}

// IssueFoundMetric checks that findings exist exactly when they should.
type IssueFoundMetric struct{}

func (IssueFoundMetric) Calculate(expected ExpectedResults, actual []types.Finding) float64 {
	if expected.ShouldFindIssues == (len(actual) > 0) {
		return 1.0
	}
	return 0.0
}

type IssueCountMetric struct{}

func (IssueCountMetric) Calculate(expected ExpectedResults, actual []types.Finding) float64 {
	if expected.MinIssues == 0 && expected.MaxIssues == 0 {
		return -1
	}

	count := len(actual)
	minOk := expected.MinIssues == 0 || count >= expected.MinIssues
	maxOk := expected.MaxIssues == 0 || count <= expected.MaxIssues
	if minOk && maxOk {
		return 1.0
	}
	return 0.0
}

// SeverityMatchMetric is the share of expected severities present.
type SeverityMatchMetric struct{}

func (SeverityMatchMetric) Calculate(expected ExpectedResults, actual []types.Finding) float64 {
	if len(expected.ExpectedSeverity) == 0 {
		return -1
	}

	present := make(map[string]bool)
	for _, f := range actual {
		present[strings.ToLower(string(f.Severity))] = true
	}

	matched := 0
	for _, severity := range expected.ExpectedSeverity {
		if present[strings.ToLower(severity)] {
			matched++
		}
	}
	return float64(matched) / float64(len(expected.ExpectedSeverity))
}

// FileMatchMetric is the share of expected files with at least one finding.
type FileMatchMetric struct{}

func (FileMatchMetric) Calculate(expected ExpectedResults, actual []types.Finding) float64 {
	if len(expected.ExpectedFiles) == 0 {
		return -1
	}

	present := make(map[string]bool)
	for _, f := range actual {
		present[types.NormalizePath(f.FilePath)] = true
	}

	matched := 0
	for _, file := range expected.ExpectedFiles {
		if present[types.NormalizePath(file)] {
			matched++
		}
	}
	return float64(matched) / float64(len(expected.ExpectedFiles))
}
