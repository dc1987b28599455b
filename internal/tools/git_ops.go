package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

// GitDiffCollector produces per-file unified diffs from a local checkout.
type GitDiffCollector struct {
	// Dir is the repository working directory. Empty means the current one.
	Dir string
}

// Collect returns the diff of head against its merge base with base, one
// entry per changed file in git's order. An empty head means HEAD.
func (g *GitDiffCollector) Collect(ctx context.Context, base, head string) ([]types.FileDiff, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("base revision required")
	}
	if head == "" {
		head = "HEAD"
	}

	output, err := g.run(ctx, "diff", "--no-color", "--no-ext-diff", base+"..."+head)
	if err != nil {
		return nil, fmt.Errorf("failed to get diff %s...%s: %w", base, head, err)
	}

	return splitDiff(output)
}

// CollectStaged returns the diff of the staged changes.
func (g *GitDiffCollector) CollectStaged(ctx context.Context) ([]types.FileDiff, error) {
	output, err := g.run(ctx, "diff", "--staged", "--no-color", "--no-ext-diff")
	if err != nil {
		return nil, fmt.Errorf("failed to get staged diff: %w", err)
	}

	return splitDiff(output)
}

// RevParse resolves a revision to its full commit SHA.
func (g *GitDiffCollector) RevParse(ctx context.Context, rev string) (string, error) {
	output, err := g.run(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return strings.TrimSpace(output), nil
}

func (g *GitDiffCollector) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}

	return string(output), nil
}

func splitDiff(output string) ([]types.FileDiff, error) {
	if strings.TrimSpace(output) == "" {
		return []types.FileDiff{}, nil
	}

	files, err := utils.SplitFileDiffs(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	return files, nil
}
