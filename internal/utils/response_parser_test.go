package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

func TestParseThreadsFromResponse_ValidJSON(t *testing.T) {
	response := `{
		"threads": [
			{
				"threadContext": {
					"filePath": "/src/app.ts",
					"rightFileStart": {"line": 12, "offset": 1, "snippet": "const b = 3;"},
					"rightFileEnd": {"line": 12, "offset": 13}
				},
				"comments": [
					{
						"content": "b is reassigned",
						"commentType": 1,
						"confidenceScore": 0.9,
						"issueType": "BUG",
						"fixSuggestion": "use let"
					},
					{
						"content": "magic number",
						"issueType": "best_practice"
					}
				]
			}
		]
	}`

	threads, err := ParseThreadsFromResponse(response, nil)
	require.NoError(t, err)
	require.Len(t, threads, 1)

	thread := threads[0]
	assert.Equal(t, "/src/app.ts", thread.ThreadContext.FilePath)
	require.NotNil(t, thread.ThreadContext.RightFileStart)
	assert.Equal(t, 12, thread.ThreadContext.RightFileStart.Line)
	assert.Equal(t, "const b = 3;", thread.ThreadContext.RightFileStart.Snippet)
	assert.Nil(t, thread.ThreadContext.LeftFileStart)

	require.Len(t, thread.Comments, 2)
	assert.Equal(t, types.IssueTypeBug, thread.Comments[0].IssueType)
	assert.Equal(t, types.CommentTypeText, thread.Comments[0].CommentType)
	require.NotNil(t, thread.Comments[0].ConfidenceScore)
	assert.InDelta(t, 0.9, *thread.Comments[0].ConfidenceScore, 1e-9)
	assert.Equal(t, "use let", thread.Comments[0].FixSuggestion)

	assert.Equal(t, types.IssueTypeBestPractice, thread.Comments[1].IssueType)
	assert.Nil(t, thread.Comments[1].ConfidenceScore)
}

func TestParseThreadsFromResponse_JSONWithText(t *testing.T) {
	response := "Here is my review:\n```json\n" +
		`{"threads": [{"threadContext": {"filePath": "a.go"}, "comments": []}]}` +
		"\n```\nLet me know if you need more."

	threads, err := ParseThreadsFromResponse(response, nil)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].Comments)
}

func TestParseThreadsFromResponse_EmptyThreads(t *testing.T) {
	threads, err := ParseThreadsFromResponse(`{"threads": []}`, nil)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestParseThreadsFromResponse_FormatViolations(t *testing.T) {
	tests := []struct {
		name     string
		response string
		reason   string
	}{
		{
			name:     "no json object",
			response: "The code looks good to me.",
			reason:   "no JSON object found",
		},
		{
			name:     "invalid json",
			response: `{"threads": [ {"threadContext": }`,
			reason:   "invalid JSON",
		},
		{
			name:     "missing threads",
			response: `{"comments": []}`,
			reason:   "no threads array",
		},
		{
			name:     "thread without location",
			response: `{"threads": [{"comments": []}]}`,
			reason:   "thread 0 has no threadContext",
		},
		{
			name:     "thread without comments",
			response: `{"threads": [{"threadContext": {"filePath": "a.go"}}]}`,
			reason:   "thread 0 has no comments array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseThreadsFromResponse(tt.response, nil)
			require.Error(t, err)
			assert.True(t, IsFormatViolation(err))

			var fv *FormatViolationError
			require.ErrorAs(t, err, &fv)
			assert.Contains(t, fv.Reason, tt.reason)
		})
	}
}

func TestParseThreadsFromResponse_CommentTypeVariants(t *testing.T) {
	response := `{"threads": [{"threadContext": {}, "comments": [
		{"content": "a", "commentType": 2},
		{"content": "b", "commentType": "system"},
		{"content": "c"}
	]}]}`

	threads, err := ParseThreadsFromResponse(response, nil)
	require.NoError(t, err)
	require.Len(t, threads[0].Comments, 3)
	assert.Equal(t, types.CommentTypeCodeChange, threads[0].Comments[0].CommentType)
	assert.Equal(t, types.CommentTypeSystem, threads[0].Comments[1].CommentType)
	assert.Equal(t, types.CommentTypeText, threads[0].Comments[2].CommentType)
}

type fixedExtractor struct {
	out string
}

func (f fixedExtractor) Extract(string) (string, error) {
	return f.out, nil
}

func TestParseThreadsFromResponse_CustomExtractor(t *testing.T) {
	threads, err := ParseThreadsFromResponse("ignored", fixedExtractor{out: `{"threads": []}`})
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestBraceSpanExtractor(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: `{"a": 1}`, expected: `{"a": 1}`},
		{input: `text {"a": {"b": 2}} more`, expected: `{"a": {"b": 2}}`},
		{input: `no json here`, wantErr: true},
		{input: `} backwards {`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := BraceSpanExtractor{}.Extract(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc...", TruncateString("abcdef", 3))

	truncated := TruncateString(strings.Repeat("é", 10), 5)
	assert.Equal(t, "éé...", truncated)
}
