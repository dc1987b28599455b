package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func PrintEvaluationSummary(w io.Writer, r *Result) {
	fmt.Fprintf(w, "\n=== Evaluation Summary for %s (%s) ===\n", r.Model, r.PromptVariant)
	fmt.Fprintf(w, "Runs: %d\n", r.TotalRuns)
	fmt.Fprintf(w, "Average Score: %.2f (±%.2f)\n", r.AggregatedStats.AverageScore, r.AggregatedStats.ScoreStdDev)
	fmt.Fprintf(w, "Success Rate: %.2f%% (±%.2f%%)\n", r.AggregatedStats.AverageSuccessRate, r.AggregatedStats.SuccessRateStdDev)
	fmt.Fprintf(w, "Average Duration: %.2fs (±%.2fs)\n", r.AggregatedStats.AverageDuration, r.AggregatedStats.DurationStdDev)
	fmt.Fprintf(w, "Total Duration: %.2fs\n", r.TotalDuration.Seconds())

	if len(r.TestCaseStats) > 0 {
		fmt.Fprintf(w, "\nTest Case Performance:\n")
		names := make([]string, 0, len(r.TestCaseStats))
		for name := range r.TestCaseStats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			stats := r.TestCaseStats[name]
			fmt.Fprintf(w, "  %s: %.2f (±%.2f)\n", stats.TestCaseName, stats.AverageScore, stats.ScoreStdDev)
		}
	}
	fmt.Fprintln(w)
}

// PrintComparison ranks prompt variants by average score, best first.
func PrintComparison(w io.Writer, results []*Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No evaluation results found")
		return
	}

	ranked := append([]*Result(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AggregatedStats.AverageScore > ranked[j].AggregatedStats.AverageScore
	})

	fmt.Fprintf(w, "\n=== Prompt Comparison ===\n")
	fmt.Fprintf(w, "%-16s %5s %8s %8s %10s\n", "Prompt", "Runs", "Score", "StdDev", "Duration")
	fmt.Fprintln(w, strings.Repeat("-", 51))
	for _, r := range ranked {
		fmt.Fprintf(w, "%-16s %5d %8.2f %8.2f %9.2fs\n",
			r.PromptVariant, r.TotalRuns, r.AggregatedStats.AverageScore,
			r.AggregatedStats.ScoreStdDev, r.AggregatedStats.AverageDuration)
	}
	fmt.Fprintln(w)
}

// SaveEvaluationResults writes result as JSON into resultsDir and returns
// the file path.
func SaveEvaluationResults(resultsDir string, result *Result) (string, error) {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory at %s: %w", resultsDir, err)
	}

	model := strings.NewReplacer("/", "-", ":", "-").Replace(result.Model)
	filename := fmt.Sprintf("eval_%s_%s_%d.json", model, result.PromptVariant, result.StartTime.Unix())
	if result.TotalRuns > 1 {
		filename = fmt.Sprintf("eval_%s_%s_%druns_%d.json",
			model, result.PromptVariant, result.TotalRuns, result.StartTime.Unix())
	}
	path := filepath.Join(resultsDir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results file to %s: %w", path, err)
	}

	return path, nil
}
