package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FN90/devops-pr-code-reviewer/internal/github"
	"github.com/FN90/devops-pr-code-reviewer/internal/tools"
	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pr-reviewer version dev\n", stdout)
}

func TestReviewOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    reviewOptions
		wantErr bool
	}{
		{name: "defaults", opts: reviewOptions{format: "markdown", logLevel: "warn"}},
		{name: "json", opts: reviewOptions{format: "json", logLevel: "debug"}},
		{name: "bad format", opts: reviewOptions{format: "sarif", logLevel: "warn"}, wantErr: true},
		{name: "bad log level", opts: reviewOptions{format: "markdown", logLevel: "loud"}, wantErr: true},
		{name: "post without pr", opts: reviewOptions{format: "markdown", logLevel: "warn", post: true}, wantErr: true},
		{name: "negative pr", opts: reviewOptions{format: "markdown", logLevel: "warn", pr: -1}, wantErr: true},
		{name: "staged with base", opts: reviewOptions{format: "markdown", logLevel: "warn", staged: true, base: "main"}, wantErr: true},
		{name: "staged with post", opts: reviewOptions{format: "markdown", logLevel: "warn", staged: true, pr: 3, post: true}, wantErr: true},
		{name: "post with pr", opts: reviewOptions{format: "markdown", logLevel: "warn", pr: 3, post: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr {
				var usage *usageError
				assert.ErrorAs(t, err, &usage)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReviewOptions_ReportPath(t *testing.T) {
	assert.Equal(t, "pr_review_report.md", (&reviewOptions{format: "markdown"}).reportPath())
	assert.Equal(t, "pr_review_report.json", (&reviewOptions{format: "json"}).reportPath())
	assert.Equal(t, "-", (&reviewOptions{format: "json", out: "-"}).reportPath())
}

func TestRun_UsageErrors(t *testing.T) {
	assert.Equal(t, ExitUsageError, run([]string{"review", "--format", "sarif"}))
	assert.Equal(t, ExitUsageError, run([]string{"review", "--no-such-flag"}))
}

// newGitRepo initialises a repository in a temp dir and returns a helper
// that runs git there and returns its trimmed output.
func newGitRepo(t *testing.T) (string, func(args ...string) string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	git := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", append([]string{
			"-c", "user.email=review@example.com",
			"-c", "user.name=Review Bot",
			"-c", "commit.gpgsign=false",
		}, args...)...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
		return strings.TrimSpace(string(out))
	}
	git("init", "-q")
	return dir, git
}

func TestCollectDiff_FirstPullRequestReviewUsesBase(t *testing.T) {
	dir, git := newGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644))
	git("add", ".")
	git("commit", "-q", "-m", "base")
	baseSHA := git("rev-parse", "HEAD")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))
	git("commit", "-q", "-am", "head")
	headSHA := git("rev-parse", "HEAD")

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number": 7, "base": {"sha": %q}, "head": {"sha": %q}}`, baseSHA, headSHA)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := github.NewClient(github.Config{Repository: "acme/widgets", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	gotHead, files, err := collectDiff(context.Background(), &tools.GitDiffCollector{Dir: dir}, client, &reviewOptions{pr: 7}, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, headSHA, gotHead)
	require.Len(t, files, 1)
	assert.Equal(t, "/main.go", files[0].Path)
	assert.Contains(t, files[0].Diff, "+func main() {}")
}

func TestCollectDiff_RequiresBaseWithoutPullRequest(t *testing.T) {
	_, _, err := collectDiff(context.Background(), &tools.GitDiffCollector{Dir: t.TempDir()}, nil, &reviewOptions{}, hclog.NewNullLogger())
	var usage *usageError
	assert.ErrorAs(t, err, &usage)
}

func TestReview_StagedEndToEnd(t *testing.T) {
	t.Setenv("REVIEWER_LLM_API_KEY", "")
	t.Setenv("GITHUB_TOKEN", "")

	dir, git := newGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {\n\tprintln(1)\n}\n"), 0644))
	git("add", ".")
	git("commit", "-q", "-m", "base")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {\n\tprintln(2)\n\tpanic(nil)\n}\n"), 0644))
	git("add", ".")

	threads := `{"threads": [{"threadContext": {"rightFileStart": {"line": 5, "offset": 2, "snippet": "panic(nil)"}}, "comments": [{"content": "panic(nil) hides the cause", "issueType": "BUG"}]}]}`

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		requests++
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"response": threads, "done": true}))
	}))
	defer server.Close()

	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{"llm": {"provider": "ollama", "model": "test", "base_url": "`+server.URL+`"}}`), 0644))

	stdout, stderr, err := execute(t, "review", "--repo", dir, "--staged", "--config", configFile, "--format", "json", "--out", "-")
	require.NoError(t, err, stderr)
	assert.Equal(t, 1, requests)

	var report types.ReviewReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Findings, 1)

	finding := report.Findings[0]
	assert.Equal(t, "/main.go", finding.FilePath)
	assert.Equal(t, 5, finding.LineStart)
	assert.Equal(t, types.SeverityHigh, finding.Severity)
	assert.NotEmpty(t, finding.ID)
	assert.Equal(t, "Findings: 1 (0 filtered out, total generated 1).", report.SummaryMarkdown)

	assert.Contains(t, stderr, "1 high")
}

func TestEvalOptions_Validate(t *testing.T) {
	valid := evalOptions{suite: "suite.json", runs: 1, logLevel: "info"}
	assert.NoError(t, valid.validate())

	withPrompts := valid
	withPrompts.prompts = []string{"default", " concise"}
	assert.NoError(t, withPrompts.validate())

	for name, mutate := range map[string]func(o *evalOptions){
		"no suite":       func(o *evalOptions) { o.suite = "" },
		"zero runs":      func(o *evalOptions) { o.runs = 0 },
		"bad log level":  func(o *evalOptions) { o.logLevel = "loud" },
		"unknown prompt": func(o *evalOptions) { o.prompts = []string{"nope"} },
	} {
		t.Run(name, func(t *testing.T) {
			opts := valid
			mutate(&opts)
			var usage *usageError
			assert.ErrorAs(t, opts.validate(), &usage)
		})
	}
}

func TestEval_EndToEnd(t *testing.T) {
	t.Setenv("REVIEWER_LLM_API_KEY", "")
	t.Setenv("GITHUB_TOKEN", "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"response": `{"threads": []}`, "done": true}))
	}))
	defer server.Close()

	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{"llm": {"provider": "ollama", "model": "test", "base_url": "`+server.URL+`"}}`), 0644))
	resultsDir := t.TempDir()

	stdout, stderr, err := execute(t, "eval",
		"--config", configFile,
		"--suite", filepath.Join("..", "..", "internal", "evaluation", "testdata", "suite.json"),
		"--prompts", "default,concise",
		"--results-dir", resultsDir,
		"--log-level", "error")
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "=== Evaluation Summary for test (default) ===")
	assert.Contains(t, stdout, "=== Evaluation Summary for test (concise) ===")
	assert.Contains(t, stdout, "=== Prompt Comparison ===")

	entries, err := os.ReadDir(resultsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
