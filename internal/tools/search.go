package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"fs-cli/internal/repo"
	"fs-cli/internal/util"
)

const defaultSearchResults = 30

// ignoredDirs are never descended into: version-control metadata plus
// dependency and build output directories.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"target":       {},
	"__pycache__":  {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
}

// SearchTool scans a directory tree for lines containing a query. The
// walk is depth-first over an explicit stack and stops cooperatively the
// moment the result cap is reached.
type SearchTool struct{}

// NewSearchTool constructs the content search tool.
func NewSearchTool() *SearchTool {
	return &SearchTool{}
}

func (s *SearchTool) Name() string { return "file_search" }

func (s *SearchTool) Description() string {
	return "Search for text content across files in a directory. Returns matching files with line numbers and the matched line."
}

func (s *SearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":        map[string]any{"type": "string", "description": "Text to search for"},
			"path":         map[string]any{"type": "string", "description": "Directory or file to search in", "default": "."},
			"file_pattern": map[string]any{"type": "string", "description": "File extension filter (e.g. 'go', 'py', 'js')"},
			"case_sensitive": map[string]any{
				"type":        "boolean",
				"description": "Case sensitive search (default: false)",
				"default":     false,
			},
			"max_results": map[string]any{"type": "integer", "minimum": 1, "description": "Maximum results to return", "default": defaultSearchResults},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

type searchInput struct {
	Query         string `json:"query"`
	Path          string `json:"path"`
	FilePattern   string `json:"file_pattern"`
	CaseSensitive bool   `json:"case_sensitive"`
	MaxResults    int    `json:"max_results"`
}

// SearchMatch is one matching line, in traversal order.
type SearchMatch struct {
	File       string `json:"file"`
	LineNumber int    `json:"line_number"`
	Content    string `json:"content"`
}

type searchOutput struct {
	Matches    []SearchMatch `json:"matches"`
	Total      int           `json:"total"`
	Query      string        `json:"query"`
	Truncated  bool          `json:"truncated"`
	DurationMs int64         `json:"duration_ms"`
}

func (s *SearchTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args searchInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return Result{}, invalidParamsf("query is required")
	}
	if args.Path == "" {
		args.Path = "."
	}
	if args.MaxResults <= 0 {
		args.MaxResults = meta.MaxResults
	}
	if args.MaxResults <= 0 {
		args.MaxResults = defaultSearchResults
	}

	query := args.Query
	if !args.CaseSensitive {
		query = strings.ToLower(query)
	}

	start := time.Now()
	matches, err := walkAndScan(ctx, resolvePath(meta, args.Path), query, args)
	if err != nil {
		return Result{}, err
	}

	output := searchOutput{
		Matches:    matches,
		Total:      len(matches),
		Query:      args.Query,
		Truncated:  len(matches) >= args.MaxResults,
		DurationMs: time.Since(start).Milliseconds(),
	}
	message := fmt.Sprintf("%d result(s) for %q", output.Total, args.Query)

	var previewLines []string
	for _, match := range matches {
		previewLines = append(previewLines, fmt.Sprintf("%s:%d:%s", match.File, match.LineNumber, match.Content))
	}
	preview := util.Preview(strings.Join(previewLines, "\n"), 12, 2000)
	return Result{
		ToolName:   s.Name(),
		Payload:    output,
		Message:    message,
		Preview:    preview,
		LineCount:  output.Total,
		ByteCount:  len(preview),
		Truncated:  output.Truncated,
		DurationMs: output.DurationMs,
	}, nil
}

// walkAndScan drives the depth-first traversal with an explicit stack of
// pending paths. Directory entries are pushed in reverse so they pop in
// the order the filesystem enumerated them.
func walkAndScan(ctx context.Context, root, query string, args searchInput) ([]SearchMatch, error) {
	var matches []SearchMatch
	stack := []string{root}

	for len(stack) > 0 && len(matches) < args.MaxResults {
		select {
		case <-ctx.Done():
			return matches, ctx.Err()
		default:
		}

		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				continue
			}
			for i := len(entries) - 1; i >= 0; i-- {
				name := entries[i].Name()
				if strings.HasPrefix(name, ".") {
					continue
				}
				if _, skip := ignoredDirs[name]; skip && entries[i].IsDir() {
					continue
				}
				stack = append(stack, filepath.Join(path, name))
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		matches = scanFile(path, query, args, matches)
	}
	return matches, nil
}

// scanFile appends line matches for one file, stopping at the cap.
// Binary and undecodable files are silently skipped, as are files on the
// secret denylist.
func scanFile(path, query string, args searchInput, matches []SearchMatch) []SearchMatch {
	if args.FilePattern != "" {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext != args.FilePattern {
			return matches
		}
	}
	if repo.IsDenylisted(path) {
		return matches
	}
	raw, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(raw) || bytes.IndexByte(raw, 0) >= 0 {
		return matches
	}

	for i, line := range splitLines(string(raw)) {
		if len(matches) >= args.MaxResults {
			break
		}
		haystack := line
		if !args.CaseSensitive {
			haystack = strings.ToLower(line)
		}
		if strings.Contains(haystack, query) {
			matches = append(matches, SearchMatch{
				File:       path,
				LineNumber: i + 1,
				Content:    strings.TrimSpace(line),
			})
		}
	}
	return matches
}
