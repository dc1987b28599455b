// Package filter narrows the file list of a pull request to the files that
// should be reviewed.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// Rules select reviewable files. Globs use doublestar syntax and are matched
// against the repository path without its leading slash. An empty Extensions
// or Include list allows every file.
type Rules struct {
	Extensions []string `json:"extensions"`
	Include    []string `json:"include"`
	Exclude    []string `json:"exclude"`
	SkipBinary bool     `json:"skipBinary"`
	MaxFiles   int      `json:"maxFiles"`
}

func DefaultRules() Rules {
	return Rules{
		Exclude: []string{
			"**/node_modules/**",
			"**/vendor/**",
			"**/dist/**",
			"**/*.lock",
			"**/go.sum",
		},
		SkipBinary: true,
	}
}

// Validate reports the first malformed glob.
func (r Rules) Validate() error {
	for _, pattern := range append(append([]string{}, r.Include...), r.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern: %q", pattern)
		}
	}
	if r.MaxFiles < 0 {
		return fmt.Errorf("maxFiles must not be negative, got %d", r.MaxFiles)
	}
	return nil
}

// Filter returns the files that pass the rules, in input order.
func Filter(files []types.FileDiff, rules Rules) []types.FileDiff {
	result := make([]types.FileDiff, 0, len(files))

	for _, file := range files {
		if shouldSkip(file, rules) {
			continue
		}
		result = append(result, file)
		if rules.MaxFiles > 0 && len(result) >= rules.MaxFiles {
			break
		}
	}

	return result
}

func shouldSkip(file types.FileDiff, rules Rules) bool {
	p := strings.TrimLeft(strings.TrimSpace(file.Path), "/")
	if p == "" {
		return true
	}
	if len(rules.Extensions) > 0 && !hasAnyExtension(p, rules.Extensions) {
		return true
	}
	if len(rules.Include) > 0 && !matchesAny(p, rules.Include) {
		return true
	}
	if matchesAny(p, rules.Exclude) {
		return true
	}
	return rules.SkipBinary && IsBinaryDiff(file.Diff)
}

func hasAnyExtension(p string, extensions []string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, want := range extensions {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}

func matchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// IsBinaryDiff reports whether git produced a binary diff for the file.
func IsBinaryDiff(diffText string) bool {
	if strings.Contains(diffText, "\x00") {
		return true
	}
	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(strings.TrimSpace(line), " differ") {
			return true
		}
		if strings.HasPrefix(line, "GIT binary patch") {
			return true
		}
	}
	return false
}
