package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

const contentEndMarker = "<!-- pr-reviewer:end -->"

var (
	commentMarker = regexp.MustCompile(`^<!-- pr-reviewer id=([0-9a-f]*) -->$`)
	generalMarker = regexp.MustCompile(`^<!-- pr-reviewer id=([0-9a-f]*) path=("(?:[^"\\]|\\.)*") line=(\d+) -->$`)
)

// FormatCommentBody renders a finding as an inline comment body. The finding
// content is delimited by hidden markers so ParseCommentBody can recover it.
func FormatCommentBody(f types.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- pr-reviewer id=%s -->\n", f.ID)
	fmt.Fprintf(&b, "**%s** · %s\n\n", strings.ToUpper(string(f.Severity)), f.Category)
	writeContent(&b, f)
	return b.String()
}

// FormatGeneralFinding renders a finding that cannot be placed inline as a
// section of the review body. The marker carries the file path and line so
// ParseReviewBody can recover the finding on a later run.
func FormatGeneralFinding(f types.Finding) string {
	location := f.FilePath
	if f.LineStart > 0 {
		location = fmt.Sprintf("%s:%d", f.FilePath, f.LineStart)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!-- pr-reviewer id=%s path=%s line=%d -->\n", f.ID, strconv.Quote(types.NormalizePath(f.FilePath)), max(f.LineStart, 0))
	fmt.Fprintf(&b, "**%s** · %s · `%s`\n\n", strings.ToUpper(string(f.Severity)), f.Category, location)
	writeContent(&b, f)
	return b.String()
}

func writeContent(b *strings.Builder, f types.Finding) {
	b.WriteString(strings.TrimSpace(f.Content))
	b.WriteString("\n" + contentEndMarker + "\n")

	if f.Suggestion != "" {
		b.WriteString("\n**Suggestion:**\n")
		fmt.Fprintf(b, "```%s\n%s\n```\n", utils.DetectLanguageFromFilePath(f.FilePath), strings.TrimRight(f.Suggestion, "\n"))
	}
}

// ParseCommentBody returns the finding ID and content of a body written by
// FormatCommentBody. ok is false for any other body.
func ParseCommentBody(body string) (id, content string, ok bool) {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	first, rest, found := strings.Cut(body, "\n")
	if !found {
		return "", "", false
	}
	m := commentMarker.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", "", false
	}

	_, rest, found = strings.Cut(rest, "\n\n")
	if !found {
		return "", "", false
	}
	end := strings.Index(rest, contentEndMarker)
	if end < 0 {
		return "", "", false
	}

	return m[1], strings.TrimSpace(rest[:end]), true
}

// ParseReviewBody returns the findings written into a review body by
// FormatGeneralFinding. Everything else in the body is ignored.
func ParseReviewBody(body string) []types.PreviousComment {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	var found []types.PreviousComment
	for i := 0; i < len(lines); i++ {
		m := generalMarker.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		path, err := strconv.Unquote(m[2])
		if err != nil {
			continue
		}
		line, _ := strconv.Atoi(m[3])

		// marker, severity header, blank line, then the content
		start := i + 3
		if start > len(lines) || strings.TrimSpace(lines[i+2]) != "" {
			continue
		}
		end := -1
		for j := start; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == contentEndMarker {
				end = j
				break
			}
		}
		if end < 0 {
			continue
		}

		found = append(found, types.PreviousComment{
			ID:       m[1],
			FilePath: types.NormalizePath(path),
			Content:  strings.TrimSpace(strings.Join(lines[start:end], "\n")),
			Line:     line,
		})
		i = end
	}
	return found
}
