package agent

import (
	"sort"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// CountBySeverity counts findings by their severity level
func CountBySeverity(findings []types.Finding) SeverityCounts {
	var counts SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityCritical:
			counts.Critical++
		case types.SeverityHigh:
			counts.High++
		case types.SeverityMedium:
			counts.Medium++
		case types.SeverityLow:
			counts.Low++
		}
	}
	return counts
}

// SortBySeverity returns a copy of findings ordered from most to least
// severe. Findings of equal severity keep their review order.
func SortBySeverity(findings []types.Finding) []types.Finding {
	sorted := make([]types.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})
	return sorted
}
