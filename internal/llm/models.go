package llm

import (
	"fmt"
	"slices"
	"strings"
)

// ProblematicModels fail to keep to the JSON response format often enough
// that their reviews are mostly diagnostics.
var ProblematicModels = []string{
	"codellama:13b",
	"codestral",
	"qwen3:14b",
}

// TestedModels produce usable thread output with the bundled prompts.
var TestedModels = []string{
	"qwen2.5-coder:14b",
	"qwen2.5-coder:7b",
	"codegemma:7b",
	"llama3.1:8b",
	"gpt-oss:20b",
	"codestral:22b",
	"gpt-4o-mini",
}

func ValidateModel(model string) error {
	if slices.Contains(ProblematicModels, strings.ToLower(model)) {
		return fmt.Errorf("model '%s' has known issues and cannot be used", model)
	}
	return nil
}

func IsTestedModel(model string) bool {
	return slices.Contains(TestedModels, strings.ToLower(model))
}
