package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

func TestFormatCommentBody_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		finding types.Finding
	}{
		{
			name: "single line",
			finding: types.Finding{
				ID: "0123abcd", FilePath: "/a.go", Severity: types.SeverityHigh, Category: "BUG",
				Content: "Missing error check",
			},
		},
		{
			name: "multi paragraph with suggestion",
			finding: types.Finding{
				ID: "ff00", FilePath: "/web/app.ts", Severity: types.SeverityCritical, Category: "SECURITY",
				Content:    "Token is logged.\n\nRemove the log line before release.",
				Suggestion: "logger.info('login ok')\n",
			},
		},
		{
			name:    "empty content",
			finding: types.Finding{Severity: types.SeverityMedium, Category: "GENERAL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := FormatCommentBody(tt.finding)

			id, content, ok := ParseCommentBody(body)
			require.True(t, ok)
			assert.Equal(t, tt.finding.ID, id)
			assert.Equal(t, tt.finding.Content, content)
		})
	}
}

func TestFormatCommentBody_Layout(t *testing.T) {
	body := FormatCommentBody(types.Finding{
		ID: "ab", FilePath: "/web/app.ts", Severity: types.SeverityCritical, Category: "SECURITY",
		Content: "Token is logged.", Suggestion: "logger.info('ok')",
	})

	assert.Contains(t, body, "**CRITICAL** · SECURITY\n\nToken is logged.")
	assert.Contains(t, body, "```typescript\nlogger.info('ok')\n```")
}

func TestParseCommentBody_Foreign(t *testing.T) {
	for _, body := range []string{
		"",
		"just a human comment",
		"<!-- something else -->\nhello\n\nworld",
		"<!-- pr-reviewer id=ab -->\nno blank line and no end marker",
		"<!-- pr-reviewer id=ab -->\n**HIGH** · BUG\n\nmissing end marker",
	} {
		_, _, ok := ParseCommentBody(body)
		assert.False(t, ok, body)
	}
}

func TestParseCommentBody_CRLF(t *testing.T) {
	body := "<!-- pr-reviewer id=ab -->\r\n**HIGH** · BUG\r\n\r\nline one\r\n<!-- pr-reviewer:end -->\r\n"
	id, content, ok := ParseCommentBody(body)
	require.True(t, ok)
	assert.Equal(t, "ab", id)
	assert.Equal(t, "line one", content)
}

func TestParseReviewBody(t *testing.T) {
	first := types.Finding{
		ID: "aa11", FilePath: "/dir with space/x.go", LineStart: 7, Severity: types.SeverityLow,
		Category: "STYLE", Content: "Rename `x`.", Suggestion: "y := 1",
	}
	second := types.Finding{
		ID: "bb22", FilePath: "/b.go", Severity: types.SeverityMedium, Category: "BUG",
		Content: "Second\n\nparagraph",
	}

	body := "Summary line\r\n\r\n### Findings outside the diff\n\n" +
		FormatGeneralFinding(first) + "\n" + FormatGeneralFinding(second) +
		"\n<!-- pr-reviewer id=cc33 path=\"/c.go\" line=1 -->\nno blank line\n"

	assert.Equal(t, []types.PreviousComment{
		{ID: "aa11", FilePath: "/dir with space/x.go", Content: "Rename `x`.", Line: 7},
		{ID: "bb22", FilePath: "/b.go", Content: "Second\n\nparagraph"},
	}, ParseReviewBody(body))

	assert.Empty(t, ParseReviewBody("LGTM"))
	assert.Empty(t, ParseReviewBody(FormatCommentBody(second)), "inline bodies carry no path")
}
