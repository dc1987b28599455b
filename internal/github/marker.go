package github

import (
	"context"
	"fmt"
	"regexp"

	gh "github.com/google/go-github/v71/github"
)

var lastReviewedMarker = regexp.MustCompile(`<!-- pr-reviewer:last-reviewed sha=([0-9a-fA-F]+) -->`)

// LastReviewed returns the commit recorded by MarkReviewed, or "" when the
// pull request was never reviewed.
func (c *Client) LastReviewed(ctx context.Context, pr int) (string, error) {
	comment, err := c.findMarkerComment(ctx, pr)
	if err != nil {
		return "", err
	}
	if comment == nil {
		return "", nil
	}
	return lastReviewedMarker.FindStringSubmatch(comment.GetBody())[1], nil
}

// MarkReviewed records sha as the last reviewed commit, editing the existing
// marker comment when there is one.
func (c *Client) MarkReviewed(ctx context.Context, pr int, sha string) error {
	existing, err := c.findMarkerComment(ctx, pr)
	if err != nil {
		return err
	}

	body := &gh.IssueComment{Body: gh.Ptr(markerBody(sha))}

	if existing != nil {
		if _, _, err := c.api.Issues.EditComment(ctx, c.owner, c.repo, existing.GetID(), body); err != nil {
			return fmt.Errorf("failed to update last-reviewed marker: %w", err)
		}
		c.logger.Debug("last-reviewed marker updated", "pr", pr, "sha", sha)
		return nil
	}

	if _, _, err := c.api.Issues.CreateComment(ctx, c.owner, c.repo, pr, body); err != nil {
		return fmt.Errorf("failed to create last-reviewed marker: %w", err)
	}
	c.logger.Debug("last-reviewed marker created", "pr", pr, "sha", sha)
	return nil
}

func markerBody(sha string) string {
	short := sha
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("<!-- pr-reviewer:last-reviewed sha=%s -->\n_Automated review is up to date with `%s`._", sha, short)
}

func (c *Client) findMarkerComment(ctx context.Context, pr int) (*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100, Page: 1},
	}

	var found *gh.IssueComment
	for {
		batch, resp, err := c.api.Issues.ListComments(ctx, c.owner, c.repo, pr, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issue comments: %w", err)
		}

		for _, comment := range batch {
			if comment != nil && lastReviewedMarker.MatchString(comment.GetBody()) {
				found = comment
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return found, nil
}
