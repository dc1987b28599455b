package utils

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// LineKind tags a single line of a unified diff hunk.
type LineKind int

const (
	LineUnchanged LineKind = iota
	LineAdded
	LineDeleted
)

func (k LineKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// DiffLine is one hunk line with its line number on each side it exists on.
// OldLine is zero for added lines and NewLine is zero for deleted lines.
type DiffLine struct {
	Kind    LineKind
	Content string
	OldLine int
	NewLine int
}

// ParseDiffLines flattens every hunk of a single-file unified diff into line
// records, in diff order. File headers before the first hunk are ignored.
// Text that does not parse as hunks yields no records.
func ParseDiffLines(diffText string) []DiffLine {
	start := hunkStart(diffText)
	if start < 0 {
		return nil
	}

	hunks, err := diff.ParseHunks([]byte(diffText[start:]))
	if err != nil {
		return nil
	}

	var lines []DiffLine
	for _, hunk := range hunks {
		oldLine := int(hunk.OrigStartLine)
		newLine := int(hunk.NewStartLine)

		body := strings.TrimSuffix(string(hunk.Body), "\n")
		if body == "" {
			continue
		}

		for _, raw := range strings.Split(body, "\n") {
			raw = strings.TrimSuffix(raw, "\r")
			if raw == "" {
				lines = append(lines, DiffLine{Kind: LineUnchanged, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
				continue
			}

			switch raw[0] {
			case '+':
				lines = append(lines, DiffLine{Kind: LineAdded, Content: raw[1:], NewLine: newLine})
				newLine++
			case '-':
				lines = append(lines, DiffLine{Kind: LineDeleted, Content: raw[1:], OldLine: oldLine})
				oldLine++
			case '\\':
				// "\ No newline at end of file"
			default:
				lines = append(lines, DiffLine{Kind: LineUnchanged, Content: raw[1:], OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			}
		}
	}

	return lines
}

// CoveredLines returns the old-side and new-side line numbers that appear in
// the diff's hunks. Pull request hosts only accept inline comments on these.
func CoveredLines(diffText string) (left, right map[int]bool) {
	left = make(map[int]bool)
	right = make(map[int]bool)
	for _, line := range ParseDiffLines(diffText) {
		if line.OldLine > 0 {
			left[line.OldLine] = true
		}
		if line.NewLine > 0 {
			right[line.NewLine] = true
		}
	}
	return left, right
}

// SplitFileDiffs splits a multi-file unified diff (git diff output) into one
// FileDiff per file, in the order git printed them.
func SplitFileDiffs(diffText string) ([]types.FileDiff, error) {
	if strings.TrimSpace(diffText) == "" {
		return []types.FileDiff{}, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	files := make([]types.FileDiff, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		printed, err := diff.PrintFileDiff(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to print diff for %s: %w", fd.NewName, err)
		}
		files = append(files, types.FileDiff{
			Path: types.NormalizePath(fileDiffPath(fd)),
			Diff: string(printed),
		})
	}

	return files, nil
}

func fileDiffPath(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		name = name[2:]
	}
	return name
}

func hunkStart(diffText string) int {
	if strings.HasPrefix(diffText, "@@") {
		return 0
	}
	idx := strings.Index(diffText, "\n@@")
	if idx < 0 {
		return -1
	}
	return idx + 1
}
