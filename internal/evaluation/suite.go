package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

// Suite is a set of diffs with the findings a good review should produce.
type Suite struct {
	TestCases []TestCase `json:"test_cases"`
	// BaseDir resolves DiffFile paths. Defaults to the suite file's directory.
	BaseDir string `json:"base_dir,omitempty"`
}

type TestCase struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	DiffFile    string          `json:"diff_file,omitempty"`
	Diff        string          `json:"diff,omitempty"`
	Expected    ExpectedResults `json:"expected"`

	Files []types.FileDiff `json:"-"`
}

type ExpectedResults struct {
	ShouldFindIssues bool     `json:"should_find_issues"`
	ExpectedSeverity []string `json:"expected_severity,omitempty"`
	ExpectedFiles    []string `json:"expected_files,omitempty"`
	MinIssues        int      `json:"min_issues,omitempty"`
	MaxIssues        int      `json:"max_issues,omitempty"`
}

// LoadSuite reads a suite file and splits every test case diff into files.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}

	if suite.BaseDir == "" {
		suite.BaseDir = filepath.Dir(path)
	} else if !filepath.IsAbs(suite.BaseDir) {
		suite.BaseDir = filepath.Join(filepath.Dir(path), suite.BaseDir)
	}

	if len(suite.TestCases) == 0 {
		return nil, fmt.Errorf("suite %s has no test cases", path)
	}

	seen := make(map[string]bool, len(suite.TestCases))
	for i := range suite.TestCases {
		tc := &suite.TestCases[i]
		if tc.Name == "" {
			return nil, fmt.Errorf("test case %d has no name", i)
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("duplicate test case name %q", tc.Name)
		}
		seen[tc.Name] = true

		if err := tc.load(suite.BaseDir); err != nil {
			return nil, fmt.Errorf("test case %s: %w", tc.Name, err)
		}
	}

	return &suite, nil
}

func (tc *TestCase) load(baseDir string) error {
	diffText := tc.Diff
	if tc.DiffFile != "" {
		if diffText != "" {
			return fmt.Errorf("diff and diff_file are mutually exclusive")
		}
		content, err := os.ReadFile(filepath.Join(baseDir, tc.DiffFile))
		if err != nil {
			return fmt.Errorf("failed to read diff file: %w", err)
		}
		diffText = string(content)
	}

	files, err := utils.SplitFileDiffs(diffText)
	if err != nil {
		return err
	}
	tc.Files = files

	for i, file := range tc.Expected.ExpectedFiles {
		tc.Expected.ExpectedFiles[i] = types.NormalizePath(file)
	}
	return nil
}
