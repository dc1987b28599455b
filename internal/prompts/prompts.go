package prompts

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// Variant pairs a system instruction with a user prompt template rendered
// against a types.ReviewRequest.
type Variant struct {
	Name        string
	Description string
	System      string
	Template    string
}

var Variants = map[string]Variant{
	"default": {
		Name:        "default",
		Description: "Thread-based review with explicit check list",
		System:      defaultSystemPrompt,
		Template:    defaultPromptTemplate,
	},
	"concise": {
		Name:        "concise",
		Description: "Shorter instructions for small local models",
		System:      defaultSystemPrompt,
		Template:    concisePromptTemplate,
	},
}

const DEFAULT_PROMPT = "default"

func GetVariant(name string) (Variant, error) {
	variant, exists := Variants[name]
	if !exists {
		return Variant{}, fmt.Errorf("prompt variant '%s' not found", name)
	}
	return variant, nil
}

func ListVariants() []string {
	names := make([]string, 0, len(Variants))
	for name := range Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parsedTemplates holds every variant, parsed once at package load.
var parsedTemplates = template.Must(LoadPromptTemplates())

func LoadPromptTemplates() (*template.Template, error) {
	tmpl := template.New("prompts").Funcs(template.FuncMap{
		"join": strings.Join,
	})

	for name, variant := range Variants {
		_, err := tmpl.New(name).Parse(variant.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}

	return tmpl, nil
}

// Build renders the system and user prompt for one review request. A system
// prompt set in the request options replaces the variant's.
func Build(variantName string, req types.ReviewRequest) (system string, user string, err error) {
	variant, err := GetVariant(variantName)
	if err != nil {
		return "", "", err
	}

	var result strings.Builder
	if err := parsedTemplates.ExecuteTemplate(&result, variantName, req); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", variantName, err)
	}

	system = variant.System
	if strings.TrimSpace(req.Options.SystemPrompt) != "" {
		system = req.Options.SystemPrompt
	}

	return system, result.String(), nil
}

const defaultSystemPrompt = `You are an expert code reviewer. You review one file's unified diff at a time and answer with a single JSON object, no prose and no markdown fences.`

const responseFormat = `=== RESPONSE FORMAT ===
{
  "threads": [
    {
      "threadContext": {
        "filePath": "{{.FilePath}}",
        "rightFileStart": {"line": 12, "offset": 1, "snippet": "exact code copied from the diff"},
        "rightFileEnd": {"line": 12, "offset": 20}
      },
      "comments": [
        {
          "content": "What is wrong and why it matters",
          "commentType": 1,
          "issueType": "BUG",{{if .Options.ConfidenceMode}}
          "confidenceScore": 0.8,{{end}}
          "fixSuggestion": "Optional replacement code"
        }
      ]
    }
  ]
}

RULES:
- Use rightFileStart/rightFileEnd for added or unchanged lines, leftFileStart/leftFileEnd for deleted lines
- The snippet must be copied verbatim from a single diff line, without the +/- prefix
- issueType must be one of SECURITY, BUG, PERFORMANCE, BEST_PRACTICE
- commentType is 1 for a plain comment and 2 when fixSuggestion contains code{{if .Options.ConfidenceMode}}
- confidenceScore is a number between 0 and 1 describing how sure you are the issue is real{{end}}
- If there is nothing to report respond with {"threads": []}`

const defaultPromptTemplate = `Review the changes to {{.FilePath}}.

=== CODE CHANGES TO REVIEW ===
{{.Diff}}

=== ANALYSIS INSTRUCTIONS ===
{{if .Options.ModifiedLinesOnly}}- Comment ONLY on lines starting with + or - in the diff; unchanged lines are context
{{else}}- You may comment on any line shown in the diff
{{end}}- Always report security problems: injection, authentication bypass, exposed secrets
{{- if .Options.Checks.Bugs}}
- Report bugs: logic errors, missing error handling, nil or bounds problems, resource leaks
{{- end}}
{{- if .Options.Checks.Performance}}
- Report performance problems: needless allocations, N+1 queries, inefficient algorithms
{{- end}}
{{- if .Options.Checks.BestPractices}}
- Report best-practice problems: readability, naming, idiomatic usage
{{- end}}
{{- range .Options.AdditionalPrompts}}
- {{.}}
{{- end}}
{{if .ExclusionContent}}
=== ALREADY REPORTED, DO NOT REPEAT ===
{{- range .ExclusionContent}}
- {{.}}
{{- end}}
{{end}}
` + responseFormat

const concisePromptTemplate = `File: {{.FilePath}}
{{.Diff}}
Find {{if .Options.Checks.Bugs}}bugs, {{end}}{{if .Options.Checks.Performance}}performance issues, {{end}}{{if .Options.Checks.BestPractices}}best-practice issues, {{end}}and security issues{{if .Options.ModifiedLinesOnly}} in the changed lines only{{end}}.
{{- range .Options.AdditionalPrompts}}
{{.}}
{{- end}}
{{- if .ExclusionContent}}
Do not repeat: {{join .ExclusionContent "; "}}
{{- end}}

` + responseFormat
