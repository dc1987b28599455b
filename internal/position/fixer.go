// Package position moves model-reported thread locations onto the exact line
// and character offset of the quoted snippet in the file's diff.
package position

import (
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

// Side selects the old (left) or new (right) version of a file.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

type Fixer struct {
	logger hclog.Logger
}

func NewFixer(logger hclog.Logger) *Fixer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Fixer{logger: logger}
}

// Fix corrects every thread's positions in place against diffText and
// returns the same slice. Positions whose snippet cannot be found are left as
// the model reported them.
func (f *Fixer) Fix(threads []types.ReviewThread, diffText string) []types.ReviewThread {
	var lines []utils.DiffLine
	parsed := false

	for i := range threads {
		ctx := &threads[i].ThreadContext
		for _, side := range []Side{SideLeft, SideRight} {
			start, end := sidePositions(ctx, side)
			if start == nil || strings.TrimSpace(start.Snippet) == "" {
				continue
			}
			if !parsed {
				lines = utils.ParseDiffLines(diffText)
				parsed = true
			}

			newEnd, ok := fixSide(lines, side, start, end)
			if !ok {
				f.logger.Debug("snippet not found in diff, keeping reported position",
					"file", ctx.FilePath, "side", side.String(), "line", start.Line)
				continue
			}
			setEnd(ctx, side, newEnd)
		}
	}

	return threads
}

func sidePositions(ctx *types.ThreadContext, side Side) (start, end *types.Position) {
	if side == SideLeft {
		return ctx.LeftFileStart, ctx.LeftFileEnd
	}
	return ctx.RightFileStart, ctx.RightFileEnd
}

func setEnd(ctx *types.ThreadContext, side Side, end *types.Position) {
	if side == SideLeft {
		ctx.LeftFileEnd = end
		return
	}
	ctx.RightFileEnd = end
}

// fixSide rewrites start in place and returns the end position to store.
func fixSide(lines []utils.DiffLine, side Side, start, end *types.Position) (*types.Position, bool) {
	snippetLines := splitSnippet(start.Snippet)
	if len(snippetLines) == 0 {
		return nil, false
	}

	first := snippetLines[0]
	match, ok := closestMatch(lines, side, first, start.Line, 0)
	if !ok {
		return nil, false
	}

	var originalEnd *types.Position
	if end != nil {
		copied := *end
		originalEnd = &copied
	}

	start.Line = match.line
	start.Offset = match.offset
	newEnd := &types.Position{
		Line:   match.line,
		Offset: match.offset + utf8.RuneCountInString(first),
	}

	if len(snippetLines) == 1 {
		return newEnd, true
	}

	last := snippetLines[len(snippetLines)-1]
	approxEnd := match.line
	if originalEnd != nil {
		approxEnd = originalEnd.Line
	}

	// Searching from the start line keeps start.Line <= end.Line.
	lastMatch, ok := closestMatch(lines, side, last, approxEnd, start.Line)
	if !ok {
		if originalEnd != nil {
			return originalEnd, true
		}
		return newEnd, true
	}

	newEnd.Line = lastMatch.line
	newEnd.Offset = lastMatch.offset + utf8.RuneCountInString(last)
	return newEnd, true
}

type lineMatch struct {
	line   int
	offset int
}

// closestMatch finds the diff line on side containing text whose line number
// is nearest to approx, ignoring lines before minLine. Ties keep the first
// candidate in diff order.
func closestMatch(lines []utils.DiffLine, side Side, text string, approx, minLine int) (lineMatch, bool) {
	best := lineMatch{}
	bestDistance := -1

	for _, dl := range lines {
		lineNo, ok := lineOnSide(dl, side)
		if !ok || lineNo < minLine {
			continue
		}

		idx := strings.Index(dl.Content, text)
		if idx < 0 {
			continue
		}

		distance := lineNo - approx
		if distance < 0 {
			distance = -distance
		}
		if bestDistance == -1 || distance < bestDistance {
			bestDistance = distance
			best = lineMatch{
				line:   lineNo,
				offset: utf8.RuneCountInString(dl.Content[:idx]) + 1,
			}
		}
	}

	return best, bestDistance != -1
}

func lineOnSide(dl utils.DiffLine, side Side) (int, bool) {
	switch {
	case side == SideRight && (dl.Kind == utils.LineAdded || dl.Kind == utils.LineUnchanged):
		return dl.NewLine, true
	case side == SideLeft && (dl.Kind == utils.LineDeleted || dl.Kind == utils.LineUnchanged):
		return dl.OldLine, true
	default:
		return 0, false
	}
}

// splitSnippet splits a snippet into lines, dropping blank leading and
// trailing lines so an empty line never matches everything.
func splitSnippet(snippet string) []string {
	lines := strings.Split(strings.ReplaceAll(snippet, "\r\n", "\n"), "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
