package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolvePath anchors relative tool paths at the repo root. Absolute
// paths pass through untouched.
func resolvePath(meta Meta, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(meta.RepoRoot, path)
}

// splitLines splits file content into lines with line endings removed.
// A single trailing newline does not produce an empty final line, and
// "\r\n" endings collapse to "\n" semantics.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func countLines(content string) int {
	return len(splitLines(content))
}

func humanSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
