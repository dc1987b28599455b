package utils

import (
	"path"
	"strings"
)

// fenceLanguages maps file extensions to markdown code fence languages.
var fenceLanguages = map[string]string{
	".go":    "go",
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".jsx":   "jsx",
	".tsx":   "tsx",
	".py":    "python",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".rb":    "ruby",
	".rs":    "rust",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "bash",
	".bash":  "bash",
	".ps1":   "powershell",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".xml":   "xml",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".tf":    "hcl",
	".md":    "markdown",
}

// DetectLanguageFromFilePath returns the code fence language for a file, or
// "" for plain text.
func DetectLanguageFromFilePath(filePath string) string {
	base := strings.ToLower(path.Base(filePath))
	switch base {
	case "dockerfile":
		return "dockerfile"
	case "makefile":
		return "makefile"
	}

	return fenceLanguages[path.Ext(base)]
}
