// Package github reads earlier review comments from a pull request and
// publishes review reports back to it.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v71/github"
	"github.com/hashicorp/go-hclog"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

type Config struct {
	Token string `json:"token"`
	// Repository is "owner/name".
	Repository string `json:"repository"`
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string `json:"baseUrl"`
}

type Client struct {
	api    *gh.Client
	owner  string
	repo   string
	logger hclog.Logger
}

func NewClient(cfg Config, logger hclog.Logger) (*Client, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(cfg.Repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("repository must be in owner/name form, got %q", cfg.Repository)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	api := gh.NewClient(nil)
	if cfg.Token != "" {
		api = api.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		api.BaseURL = u
	}

	return &Client{
		api:    api,
		owner:  owner,
		repo:   repo,
		logger: logger.With("repository", owner+"/"+repo),
	}, nil
}

// PreviousComments returns every review comment on the pull request plus the
// findings this tool listed in earlier review bodies. Bodies of comments this
// tool posted are unwrapped back to the finding content.
func (c *Client) PreviousComments(ctx context.Context, pr int) ([]types.PreviousComment, error) {
	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100, Page: 1},
	}

	var previous []types.PreviousComment
	for {
		batch, resp, err := c.api.PullRequests.ListComments(ctx, c.owner, c.repo, pr, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list review comments: %w", err)
		}

		for _, comment := range batch {
			if comment == nil {
				continue
			}
			content := comment.GetBody()
			if _, parsed, ok := ParseCommentBody(content); ok {
				content = parsed
			}
			line := comment.GetLine()
			if line == 0 {
				line = comment.GetOriginalLine()
			}
			previous = append(previous, types.PreviousComment{
				ID:       strconv.FormatInt(comment.GetID(), 10),
				FilePath: types.NormalizePath(comment.GetPath()),
				Content:  content,
				Line:     line,
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	general, err := c.reviewBodyFindings(ctx, pr)
	if err != nil {
		return nil, err
	}
	previous = append(previous, general...)

	c.logger.Debug("loaded previous comments", "pr", pr, "count", len(previous), "from_review_bodies", len(general))
	return previous, nil
}

func (c *Client) reviewBodyFindings(ctx context.Context, pr int) ([]types.PreviousComment, error) {
	opts := &gh.ListOptions{PerPage: 100, Page: 1}

	var found []types.PreviousComment
	for {
		reviews, resp, err := c.api.PullRequests.ListReviews(ctx, c.owner, c.repo, pr, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", err)
		}

		for _, review := range reviews {
			if review == nil {
				continue
			}
			found = append(found, ParseReviewBody(review.GetBody())...)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return found, nil
}

// Refs returns the base and head commits the pull request currently points at.
func (c *Client) Refs(ctx context.Context, pr int) (base, head string, err error) {
	pull, _, err := c.api.PullRequests.Get(ctx, c.owner, c.repo, pr)
	if err != nil {
		return "", "", fmt.Errorf("failed to get pull request %d: %w", pr, err)
	}
	return pull.GetBase().GetSHA(), pull.GetHead().GetSHA(), nil
}

type PublishResult struct {
	ReviewID int64
	Inline   int
	General  int
}

// Publish posts report as one COMMENT review on commitSHA. Findings whose
// lines are inside the file's diff become inline comments; the rest are
// listed in the review body. Nothing is posted when there are no findings.
func (c *Client) Publish(ctx context.Context, pr int, commitSHA string, report *types.ReviewReport, files []types.FileDiff) (*PublishResult, error) {
	result := &PublishResult{}
	if report == nil || len(report.Findings) == 0 {
		c.logger.Info("no findings to publish", "pr", pr)
		return result, nil
	}

	coverage := make(map[string]fileCoverage, len(files))
	for _, f := range files {
		left, right := utils.CoveredLines(f.Diff)
		coverage[types.NormalizePath(f.Path)] = fileCoverage{left: left, right: right}
	}

	var inline []*gh.DraftReviewComment
	var general []types.Finding
	for _, f := range report.Findings {
		if draft := inlineComment(f, coverage); draft != nil {
			inline = append(inline, draft)
			continue
		}
		general = append(general, f)
	}

	review := &gh.PullRequestReviewRequest{
		CommitID: gh.Ptr(commitSHA),
		Body:     gh.Ptr(reviewBody(report.SummaryMarkdown, general)),
		Event:    gh.Ptr("COMMENT"),
		Comments: inline,
	}

	created, _, err := c.api.PullRequests.CreateReview(ctx, c.owner, c.repo, pr, review)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	result.ReviewID = created.GetID()
	result.Inline = len(inline)
	result.General = len(general)

	c.logger.Info("review published", "pr", pr, "review_id", result.ReviewID,
		"inline", result.Inline, "general", result.General)
	return result, nil
}

type fileCoverage struct {
	left  map[int]bool
	right map[int]bool
}

func inlineComment(f types.Finding, coverage map[string]fileCoverage) *gh.DraftReviewComment {
	cov, ok := coverage[types.NormalizePath(f.FilePath)]
	if !ok || f.LineStart <= 0 {
		return nil
	}

	side, lines := "RIGHT", cov.right
	if f.ThreadContext.RightFileStart == nil && f.ThreadContext.LeftFileStart != nil {
		side, lines = "LEFT", cov.left
	}

	end := f.LineEnd
	if end < f.LineStart {
		end = f.LineStart
	}
	if !lines[f.LineStart] || !lines[end] {
		return nil
	}

	draft := &gh.DraftReviewComment{
		Path: gh.Ptr(strings.TrimPrefix(types.NormalizePath(f.FilePath), "/")),
		Body: gh.Ptr(FormatCommentBody(f)),
		Side: gh.Ptr(side),
		Line: gh.Ptr(end),
	}
	if f.LineStart < end {
		draft.StartLine = gh.Ptr(f.LineStart)
		draft.StartSide = gh.Ptr(side)
	}
	return draft
}

func reviewBody(summary string, general []types.Finding) string {
	var b strings.Builder
	b.WriteString(summary)

	if len(general) > 0 {
		b.WriteString("\n\n### Findings outside the diff\n")
		for _, f := range general {
			b.WriteString("\n")
			b.WriteString(FormatGeneralFinding(f))
		}
	}

	return b.String()
}
