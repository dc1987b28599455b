package evaluation

import (
	"math"
	"testing"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

func finding(path string, severity types.Severity) types.Finding {
	return types.Finding{FilePath: path, Severity: severity, Content: "issue"}
}

func TestSimpleScorer(t *testing.T) {
	tests := []struct {
		name     string
		expected ExpectedResults
		actual   []types.Finding
		want     float64
	}{
		{
			name:     "should find issues and does",
			expected: ExpectedResults{ShouldFindIssues: true},
			actual:   []types.Finding{finding("/a.go", types.SeverityHigh)},
			want:     1.0,
		},
		{
			name:     "should not find issues and doesn't",
			expected: ExpectedResults{ShouldFindIssues: false},
			actual:   []types.Finding{},
			want:     1.0,
		},
		{
			name:     "should find issues but doesn't",
			expected: ExpectedResults{ShouldFindIssues: true},
			actual:   nil,
			want:     0.0,
		},
		{
			name:     "false positive",
			expected: ExpectedResults{ShouldFindIssues: false},
			actual:   []types.Finding{finding("/a.go", types.SeverityLow)},
			want:     0.0,
		},
		{
			name: "all expectations met",
			expected: ExpectedResults{
				ShouldFindIssues: true,
				ExpectedSeverity: []string{"CRITICAL", "high"},
				ExpectedFiles:    []string{"a.go", "/b.go"},
				MinIssues:        2,
				MaxIssues:        3,
			},
			actual: []types.Finding{
				finding("/a.go", types.SeverityCritical),
				finding("/b.go", types.SeverityHigh),
			},
			want: 1.0,
		},
		{
			name: "half the severities and files, count out of range",
			expected: ExpectedResults{
				ShouldFindIssues: true,
				ExpectedSeverity: []string{"critical", "high"},
				ExpectedFiles:    []string{"/a.go", "/b.go"},
				MaxIssues:        1,
			},
			actual: []types.Finding{
				finding("/a.go", types.SeverityCritical),
				finding("/a.go", types.SeverityMedium),
			},
			// found 1, count 0, severity 0.5, files 0.5
			want: 2.0 / 4.0,
		},
	}

	scorer := NewSimpleScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.expected, tt.actual)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestMetricsNotApplicable(t *testing.T) {
	metrics := []ScoringMetric{IssueCountMetric{}, SeverityMatchMetric{}, FileMatchMetric{}}
	for _, m := range metrics {
		if got := m.Calculate(ExpectedResults{ShouldFindIssues: true}, nil); got >= 0 {
			t.Errorf("%T: expected not applicable, got %.2f", m, got)
		}
	}
}
