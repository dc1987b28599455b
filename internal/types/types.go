package types

import "strings"

// IssueType classifies a review comment. Values outside the known set are
// kept verbatim and treated as IssueTypeOther.
type IssueType string

const (
	IssueTypeSecurity     IssueType = "SECURITY"
	IssueTypeBug          IssueType = "BUG"
	IssueTypePerformance  IssueType = "PERFORMANCE"
	IssueTypeBestPractice IssueType = "BEST_PRACTICE"
	IssueTypeOther        IssueType = ""
)

// ParseIssueType folds free-form model output onto the closed set.
func ParseIssueType(s string) IssueType {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch IssueType(normalized) {
	case IssueTypeSecurity, IssueTypeBug, IssueTypePerformance, IssueTypeBestPractice:
		return IssueType(normalized)
	}
	return IssueTypeOther
}

// Severity is the ranked impact of a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severity maps every issue type onto a severity; unknown types are medium.
func (t IssueType) Severity() Severity {
	switch t {
	case IssueTypeSecurity:
		return SeverityCritical
	case IssueTypeBug, IssueTypePerformance:
		return SeverityHigh
	case IssueTypeBestPractice:
		return SeverityMedium
	default:
		return SeverityMedium
	}
}

// Category is the label shown next to a finding.
func (t IssueType) Category() string {
	if t == IssueTypeOther {
		return "GENERAL"
	}
	return string(t)
}

// Rank orders severities from low (1) to critical (4).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Checks selects which categories of problems the model should look for.
type Checks struct {
	Bugs          bool `json:"bugs"`
	Performance   bool `json:"performance"`
	BestPractices bool `json:"bestPractices"`
}

type ConfidencePolicy struct {
	Enabled bool    `json:"enabled"`
	Minimum float64 `json:"minimum"`
}

type DedupeAcrossFiles struct {
	Enabled   bool `json:"enabled"`
	Threshold int  `json:"threshold"`
}

type PromptPolicy struct {
	Additional   []string `json:"additional"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
}

// ReviewPolicy controls one review run. It is not modified during the run.
type ReviewPolicy struct {
	Checks            Checks            `json:"checks"`
	ModifiedLinesOnly bool              `json:"modifiedLinesOnly"`
	Confidence        ConfidencePolicy  `json:"confidence"`
	DedupeAcrossFiles DedupeAcrossFiles `json:"dedupeAcrossFiles"`
	Prompts           PromptPolicy      `json:"prompts"`
}

// DefaultPolicy enables every check and leaves filtering off.
func DefaultPolicy() ReviewPolicy {
	return ReviewPolicy{
		Checks: Checks{
			Bugs:          true,
			Performance:   true,
			BestPractices: true,
		},
		ModifiedLinesOnly: true,
		Confidence: ConfidencePolicy{
			Minimum: 0.5,
		},
		DedupeAcrossFiles: DedupeAcrossFiles{
			Threshold: 5,
		},
	}
}

// RequestOptions are the policy-derived constraints sent with every review request.
type RequestOptions struct {
	Checks            Checks
	ModifiedLinesOnly bool
	AdditionalPrompts []string
	ConfidenceMode    bool
	SystemPrompt      string
}

// ReviewRequest is what the gateway asks the model to review for one file.
type ReviewRequest struct {
	FilePath         string
	Diff             string
	ExclusionContent []string
	Options          RequestOptions
}

// Finding is a flattened, severity-tagged view of one review comment.
type Finding struct {
	ID            string        `json:"id"`
	FilePath      string        `json:"filePath"`
	LineStart     int           `json:"lineStart,omitempty"`
	LineEnd       int           `json:"lineEnd,omitempty"`
	Severity      Severity      `json:"severity"`
	Category      string        `json:"category"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Confidence    *float64      `json:"confidence,omitempty"`
	Suggestion    string        `json:"suggestion,omitempty"`
	ThreadContext ThreadContext `json:"threadContext"`

	// Thread points back at the thread the finding was produced from.
	// It is cleared before a report leaves the orchestrator.
	Thread *ReviewThread `json:"-"`
}

// ReviewReport is the result of one review run. Every generated finding is
// in exactly one of Findings and FilteredOut.
type ReviewReport struct {
	SummaryMarkdown string    `json:"summaryMarkdown"`
	Findings        []Finding `json:"findings"`
	FilteredOut     []Finding `json:"filteredOut"`
}
