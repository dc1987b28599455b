package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

func paths(files []types.FileDiff) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestFilter(t *testing.T) {
	files := []types.FileDiff{
		{Path: "/src/app.ts", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "/src/app.test.ts", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "/README.md", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "/web/node_modules/lib/index.js", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "/assets/logo.png", Diff: "Binary files a/assets/logo.png and b/assets/logo.png differ\n"},
		{Path: "/cmd/main.go", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
	}

	tests := []struct {
		name     string
		rules    Rules
		expected []string
	}{
		{
			name:     "no rules keeps everything with a path",
			rules:    Rules{},
			expected: []string{"/src/app.ts", "/src/app.test.ts", "/README.md", "/web/node_modules/lib/index.js", "/assets/logo.png", "/cmd/main.go"},
		},
		{
			name:     "defaults drop vendored and binary files",
			rules:    DefaultRules(),
			expected: []string{"/src/app.ts", "/src/app.test.ts", "/README.md", "/cmd/main.go"},
		},
		{
			name:     "extension allow list accepts with or without dot",
			rules:    Rules{Extensions: []string{"ts", ".GO"}},
			expected: []string{"/src/app.ts", "/src/app.test.ts", "/cmd/main.go"},
		},
		{
			name:     "include and exclude globs",
			rules:    Rules{Include: []string{"src/**"}, Exclude: []string{"**/*.test.ts"}},
			expected: []string{"/src/app.ts"},
		},
		{
			name:     "max files",
			rules:    Rules{Extensions: []string{"ts", "go"}, MaxFiles: 2},
			expected: []string{"/src/app.ts", "/src/app.test.ts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, paths(Filter(files, tt.rules)))
		})
	}
}

func TestFilter_EmptyInput(t *testing.T) {
	result := Filter(nil, DefaultRules())
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestIsBinaryDiff(t *testing.T) {
	assert.True(t, IsBinaryDiff("diff --git a/x b/x\nBinary files a/x and b/x differ\n"))
	assert.True(t, IsBinaryDiff("diff --git a/x b/x\nGIT binary patch\nliteral 12\n"))
	assert.True(t, IsBinaryDiff("@@ -1 +1 @@\n+\x00\x01\n"))
	assert.False(t, IsBinaryDiff("@@ -1 +1 @@\n-Binary files are fine to mention\n+ok\n"))
}

func TestRules_Validate(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())
	assert.Error(t, Rules{Include: []string{"src/[a"}}.Validate())
	assert.Error(t, Rules{MaxFiles: -1}.Validate())
}
