package tools

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes content to filename, creating parent directories.
func WriteFile(filename, content string) error {
	if filename == "" {
		return fmt.Errorf("filename required")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// CheckReportIgnored returns an error when reportFilename exists but is not
// listed in the gitignore file, so a stale report does not end up in the
// next diff.
func CheckReportIgnored(gitignorePath, reportFilename string) error {
	if _, err := os.Stat(reportFilename); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	file, err := os.Open(gitignorePath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("'%s' exists but is not in a .gitignore file", reportFilename)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", gitignorePath, err)
	}
	defer file.Close()

	name := filepath.Base(reportFilename)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "/")
		if line == name || line == reportFilename {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", gitignorePath, err)
	}

	return fmt.Errorf("'%s' exists but is not in your .gitignore file. Please consider adding it to avoid including it in future reviews", reportFilename)
}
