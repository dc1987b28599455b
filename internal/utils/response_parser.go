package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// Extractor pulls the JSON document out of free-form model output.
type Extractor interface {
	Extract(response string) (string, error)
}

// BraceSpanExtractor returns everything from the first "{" to the last "}".
// Braces inside string values outside the outermost object confuse it.
type BraceSpanExtractor struct{}

func (BraceSpanExtractor) Extract(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", errors.New("no JSON object found")
	}
	return response[start : end+1], nil
}

type FormatViolationError struct {
	Response string
	Reason   string
}

func (e *FormatViolationError) Error() string {
	return fmt.Sprintf("format violation: %s. Response: %s", e.Reason, e.Response)
}

func IsFormatViolation(err error) bool {
	var fv *FormatViolationError
	return errors.As(err, &fv)
}

type rawResponse struct {
	Threads *[]rawThread `json:"threads"`
}

type rawThread struct {
	ThreadContext *rawThreadContext `json:"threadContext"`
	Comments      *[]rawComment     `json:"comments"`
}

type rawThreadContext struct {
	FilePath       string          `json:"filePath"`
	LeftFileStart  *types.Position `json:"leftFileStart"`
	LeftFileEnd    *types.Position `json:"leftFileEnd"`
	RightFileStart *types.Position `json:"rightFileStart"`
	RightFileEnd   *types.Position `json:"rightFileEnd"`
}

type rawComment struct {
	Content         string   `json:"content"`
	CommentType     any      `json:"commentType"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	IssueType       string   `json:"issueType"`
	FixSuggestion   string   `json:"fixSuggestion"`
}

// ParseThreadsFromResponse extracts and validates the review threads in a
// model response. Any failure is reported as a *FormatViolationError.
func ParseThreadsFromResponse(response string, extractor Extractor) ([]types.ReviewThread, error) {
	if extractor == nil {
		extractor = BraceSpanExtractor{}
	}

	jsonContent, err := extractor.Extract(response)
	if err != nil {
		return nil, violation(response, err.Error())
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, violation(response, fmt.Sprintf("invalid JSON: %v", err))
	}

	if raw.Threads == nil {
		return nil, violation(response, "response has no threads array")
	}

	threads := make([]types.ReviewThread, 0, len(*raw.Threads))
	for i, rt := range *raw.Threads {
		if rt.ThreadContext == nil {
			return nil, violation(response, fmt.Sprintf("thread %d has no threadContext", i))
		}
		if rt.Comments == nil {
			return nil, violation(response, fmt.Sprintf("thread %d has no comments array", i))
		}

		thread := types.ReviewThread{
			ThreadContext: types.ThreadContext{
				FilePath:       rt.ThreadContext.FilePath,
				LeftFileStart:  rt.ThreadContext.LeftFileStart,
				LeftFileEnd:    rt.ThreadContext.LeftFileEnd,
				RightFileStart: rt.ThreadContext.RightFileStart,
				RightFileEnd:   rt.ThreadContext.RightFileEnd,
			},
			Comments: make([]types.ReviewComment, 0, len(*rt.Comments)),
		}

		for _, rc := range *rt.Comments {
			thread.Comments = append(thread.Comments, types.ReviewComment{
				Content:         rc.Content,
				CommentType:     parseCommentType(rc.CommentType),
				ConfidenceScore: rc.ConfidenceScore,
				IssueType:       types.ParseIssueType(rc.IssueType),
				FixSuggestion:   rc.FixSuggestion,
			})
		}

		threads = append(threads, thread)
	}

	return threads, nil
}

func parseCommentType(v any) types.CommentType {
	switch t := v.(type) {
	case float64:
		return types.CommentType(int(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "codechange", "code_change":
			return types.CommentTypeCodeChange
		case "system":
			return types.CommentTypeSystem
		}
	}
	return types.CommentTypeText
}

func violation(response, reason string) error {
	return &FormatViolationError{
		Response: TruncateString(response, 500),
		Reason:   reason,
	}
}

// TruncateString truncates a string to a maximum length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
