package types

import "strings"

// FileDiff is one file of a pull request together with its unified diff text.
type FileDiff struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// Position is a point on the left (old) or right (new) side of a file.
// Line and Offset are 1-based.
type Position struct {
	Line    int    `json:"line"`
	Offset  int    `json:"offset"`
	Snippet string `json:"snippet,omitempty"`
}

// ThreadContext locates a thread inside a file. Either side may be absent.
type ThreadContext struct {
	FilePath       string    `json:"filePath"`
	LeftFileStart  *Position `json:"leftFileStart,omitempty"`
	LeftFileEnd    *Position `json:"leftFileEnd,omitempty"`
	RightFileStart *Position `json:"rightFileStart,omitempty"`
	RightFileEnd   *Position `json:"rightFileEnd,omitempty"`
}

// CommentType mirrors the numeric comment kinds used by pull request hosts.
type CommentType int

const (
	CommentTypeUnknown CommentType = iota
	CommentTypeText
	CommentTypeCodeChange
	CommentTypeSystem
)

// ReviewComment is one issue reported by the model at a thread location.
type ReviewComment struct {
	Content         string      `json:"content"`
	CommentType     CommentType `json:"commentType"`
	ConfidenceScore *float64    `json:"confidenceScore,omitempty"`
	IssueType       IssueType   `json:"issueType,omitempty"`
	FixSuggestion   string      `json:"fixSuggestion,omitempty"`
}

// ReviewThread groups the comments reported at a single location.
type ReviewThread struct {
	ThreadContext ThreadContext   `json:"threadContext"`
	Comments      []ReviewComment `json:"comments"`
}

// PreviousComment is a comment that already exists on the pull request.
type PreviousComment struct {
	ID       string `json:"id,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	Content  string `json:"content"`
	Line     int    `json:"line,omitempty"`
}

// NormalizePath makes sure a repository path starts with a single "/".
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return "/" + strings.TrimLeft(path, "/")
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
