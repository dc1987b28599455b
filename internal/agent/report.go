package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

const ReportFilename = "pr_review_report.md"

// RenderMarkdown renders a full report: the summary, kept findings ordered by
// severity and a short list of what was filtered out.
func RenderMarkdown(report *types.ReviewReport) string {
	var b strings.Builder
	b.WriteString("# Code Review Report\n\n")
	b.WriteString(report.SummaryMarkdown + "\n\n")

	for _, f := range SortBySeverity(report.Findings) {
		b.WriteString(fmt.Sprintf("## %s %s: %s\n", getSeverityIcon(f.Severity), strings.ToUpper(string(f.Severity)), f.Title))
		b.WriteString(fmt.Sprintf("**File:** `%s`\n", f.FilePath))
		if f.LineStart > 0 {
			b.WriteString(fmt.Sprintf("**Location:** Lines %d-%d\n", f.LineStart, f.LineEnd))
		}
		b.WriteString(fmt.Sprintf("**Category:** %s\n", f.Category))
		if f.Confidence != nil {
			b.WriteString(fmt.Sprintf("**Confidence:** %.2f\n", *f.Confidence))
		}
		b.WriteString("\n" + f.Content + "\n")

		if f.Suggestion != "" {
			b.WriteString("\n**Suggestion:**\n")
			b.WriteString(fmt.Sprintf("```%s\n%s\n```\n", utils.DetectLanguageFromFilePath(f.FilePath), strings.TrimRight(f.Suggestion, "\n")))
		}
		b.WriteString("\n---\n\n")
	}

	if len(report.FilteredOut) > 0 {
		b.WriteString("<details><summary>Filtered out</summary>\n\n")
		for _, f := range report.FilteredOut {
			b.WriteString(fmt.Sprintf("- `%s` %s\n", f.FilePath, f.Title))
		}
		b.WriteString("\n</details>\n")
	}

	counts := CountBySeverity(report.Findings)
	b.WriteString(fmt.Sprintf("\n\n**Summary:** %d critical, %d high, %d medium, %d low issues\n",
		counts.Critical, counts.High, counts.Medium, counts.Low))

	return b.String()
}

// RenderJSON renders the report as indented JSON.
func RenderJSON(report *types.ReviewReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}

func getSeverityIcon(severity types.Severity) string {
	switch severity {
	case types.SeverityCritical:
		return "🔴"
	case types.SeverityHigh:
		return "🟠"
	case types.SeverityMedium:
		return "🟡"
	case types.SeverityLow:
		return "🔵"
	default:
		return "⚪️"
	}
}

func PrintReviewSummary(w io.Writer, report *types.ReviewReport, savedTo string) {
	counts := CountBySeverity(report.Findings)

	fmt.Fprintln(w, "---")
	if counts.Total() == 0 {
		fmt.Fprintln(w, "✅ Code review passed - no issues found")
	} else {
		fmt.Fprintf(w, "⚠️ Code review didn't pass - %d critical, %d high, %d medium and %d low issues were found\n",
			counts.Critical, counts.High, counts.Medium, counts.Low)
	}
	if savedTo != "" {
		fmt.Fprintf(w, "💾 Detailed report saved to %s\n", savedTo)
	}
}
