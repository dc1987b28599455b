// Package gateway turns one file diff and a review policy into a single model
// call and returns validated, normalized review threads.
//
// Malformed model output never fails a review: it becomes one diagnostic
// thread describing what went wrong. Transport errors are returned as is.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	"github.com/FN90/devops-pr-code-reviewer/internal/llm"
	"github.com/FN90/devops-pr-code-reviewer/internal/prompts"
	"github.com/FN90/devops-pr-code-reviewer/internal/types"
	"github.com/FN90/devops-pr-code-reviewer/internal/utils"
)

const rawSnippetLimit = 500

type Gateway struct {
	provider       llm.Provider
	logger         hclog.Logger
	extractor      utils.Extractor
	promptVariant  string
	maxInputTokens int
}

type Option func(*Gateway)

func WithLogger(logger hclog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMaxInputTokens skips files whose rendered prompt is estimated above
// max tokens. Zero disables the check.
func WithMaxInputTokens(max int) Option {
	return func(g *Gateway) {
		g.maxInputTokens = max
	}
}

func WithExtractor(extractor utils.Extractor) Option {
	return func(g *Gateway) {
		if extractor != nil {
			g.extractor = extractor
		}
	}
}

func WithPromptVariant(name string) Option {
	return func(g *Gateway) {
		if name != "" {
			g.promptVariant = name
		}
	}
}

func New(provider llm.Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider:      provider,
		logger:        hclog.NewNullLogger(),
		extractor:     utils.BraceSpanExtractor{},
		promptVariant: prompts.DEFAULT_PROMPT,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildRequest derives the request constraints for one file from the policy.
func BuildRequest(filePath, diff string, exclusions []string, policy types.ReviewPolicy) types.ReviewRequest {
	return types.ReviewRequest{
		FilePath:         types.NormalizePath(filePath),
		Diff:             diff,
		ExclusionContent: exclusions,
		Options: types.RequestOptions{
			Checks:            policy.Checks,
			ModifiedLinesOnly: policy.ModifiedLinesOnly,
			AdditionalPrompts: policy.Prompts.Additional,
			ConfidenceMode:    policy.Confidence.Enabled,
			SystemPrompt:      policy.Prompts.SystemPrompt,
		},
	}
}

// Review asks the provider to review one file. It makes exactly one provider
// call unless the prompt is over the token budget, in which case it returns
// no threads.
func (g *Gateway) Review(ctx context.Context, filePath, diff string, exclusions []string, policy types.ReviewPolicy) ([]types.ReviewThread, error) {
	req := BuildRequest(filePath, diff, exclusions, policy)

	system, prompt, err := prompts.Build(g.promptVariant, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	if g.maxInputTokens > 0 {
		estimated := EstimateTokens(system + prompt)
		if estimated > g.maxInputTokens {
			g.logger.Warn("prompt over token budget, skipping file",
				"file", req.FilePath, "estimated_tokens", estimated, "max_tokens", g.maxInputTokens)
			return []types.ReviewThread{}, nil
		}
	}

	g.logger.Debug("requesting review", "file", req.FilePath, "model", g.provider.GetModel(),
		"exclusions", len(exclusions))

	response, err := g.provider.Generate(ctx, llm.Request{System: system, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("review request for %s failed: %w", req.FilePath, err)
	}

	threads, err := utils.ParseThreadsFromResponse(response, g.extractor)
	if err != nil {
		var fv *utils.FormatViolationError
		if !errors.As(err, &fv) {
			return nil, err
		}
		g.logger.Warn("model response rejected", "file", req.FilePath, "reason", fv.Reason)
		return []types.ReviewThread{diagnosticThread(req.FilePath, fv.Reason, response)}, nil
	}

	for i := range threads {
		threads[i].ThreadContext.FilePath = req.FilePath
		for j := range threads[i].Comments {
			c := &threads[i].Comments[j]
			c.ConfidenceScore = NormalizeConfidence(c.ConfidenceScore)
		}
	}

	return threads, nil
}

// NormalizeConfidence maps a model score onto [0,1]. Scores above 1 are taken
// to be on a 0-10 scale. Missing scores stay missing.
func NormalizeConfidence(score *float64) *float64 {
	if score == nil {
		return nil
	}

	v := *score
	if v > 1 {
		v = v / 10
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

// EstimateTokens approximates the token count of s at four characters per token.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

func diagnosticThread(filePath, reason, response string) types.ReviewThread {
	content := fmt.Sprintf("Model response could not be parsed: %s\n\nRaw output:\n%s",
		reason, utils.TruncateString(response, rawSnippetLimit))

	return types.ReviewThread{
		ThreadContext: types.ThreadContext{FilePath: filePath},
		Comments: []types.ReviewComment{{
			Content:         content,
			CommentType:     types.CommentTypeText,
			ConfidenceScore: types.Float(1.0),
			IssueType:       types.IssueTypeBug,
		}},
	}
}
