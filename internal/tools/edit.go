package tools

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// EditTool rewrites part of a file. Two addressing modes share one tool:
// exact-substring replacement, or hashline (line number plus a LineHash
// of the line's current content, acting as an optimistic-concurrency
// check against stale edits).
type EditTool struct{}

// NewEditTool constructs the file edit tool.
func NewEditTool() *EditTool {
	return &EditTool{}
}

func (e *EditTool) Name() string { return "file_edit" }

func (e *EditTool) Description() string {
	return "Edit a file by replacing an exact string with a new string. Two modes:\n" +
		"1. str_replace: provide old_string (exact match) + new_string\n" +
		"2. hashline: provide line_number + hash (the LineHash of the line's last-seen content) + new_string\n" +
		"The hash is recomputed against the current line and the edit is rejected on mismatch. " +
		ApprovalMarker
}

func (e *EditTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":       map[string]any{"type": "string", "description": "Path to the file to edit"},
			"old_string": map[string]any{"type": "string", "description": "Exact string to find (must be unique in file unless replace_all=true). Use this OR line_number+hash."},
			"new_string": map[string]any{"type": "string", "description": "Replacement string"},
			"replace_all": map[string]any{
				"type":        "boolean",
				"description": "Replace ALL occurrences (default: false, replaces the single unique match)",
				"default":     false,
			},
			"line_number": map[string]any{"type": "integer", "description": "1-based line to edit (hashline mode). Use instead of old_string."},
			"hash":        map[string]any{"type": "string", "description": "Hash of the line's current content (hashline mode)."},
		},
		"required":             []string{"path", "new_string"},
		"additionalProperties": false,
	}
}

type editInput struct {
	Path       string  `json:"path"`
	OldString  *string `json:"old_string"`
	NewString  *string `json:"new_string"`
	ReplaceAll bool    `json:"replace_all"`
	LineNumber *int    `json:"line_number"`
	Hash       string  `json:"hash"`
}

type editOutput struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	TotalLines int    `json:"total_lines"`
}

func (e *EditTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args editInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, invalidParamsf("path is required")
	}
	if args.NewString == nil {
		return Result{}, invalidParamsf("new_string is required")
	}
	newString := *args.NewString

	hashlineMode := args.LineNumber != nil && args.Hash != ""
	if hashlineMode {
		if *args.LineNumber < 1 {
			return Result{}, invalidParamsf("line_number must be >= 1, got %d", *args.LineNumber)
		}
	} else {
		if args.OldString == nil {
			return Result{}, invalidParamsf("old_string is required (or use hashline mode with line_number + hash)")
		}
		if *args.OldString == newString {
			return Result{}, invalidParamsf("old_string and new_string must be different")
		}
	}

	start := time.Now()
	path := resolvePath(meta, args.Path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, execFailedf("cannot read file %s: %v", args.Path, err)
	}
	content := string(raw)

	var newContent string
	var mode string
	if hashlineMode {
		mode = "hashline"
		newContent, err = applyHashline(content, *args.LineNumber, args.Hash, newString)
	} else {
		mode = "str_replace"
		newContent, err = applyReplace(content, *args.OldString, newString, args.ReplaceAll)
	}
	if err != nil {
		return Result{}, err
	}

	if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
		return Result{}, execFailedf("cannot write file %s: %v", args.Path, err)
	}

	output := editOutput{Path: args.Path, Mode: mode, TotalLines: countLines(newContent)}
	message := "Edited " + args.Path + " (mode: " + mode + ")"
	return Result{
		ToolName:   e.Name(),
		Payload:    output,
		Message:    message,
		Preview:    message,
		LineCount:  output.TotalLines,
		ByteCount:  len(newContent),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// applyReplace performs substring-mode editing. Zero matches means the
// caller's view is stale; more than one without replace_all is ambiguous
// and must be resolved by the caller, never guessed.
func applyReplace(content, oldString, newString string, replaceAll bool) (string, error) {
	count := strings.Count(content, oldString)
	if count == 0 {
		return "", execFailedf("old_string not found in file; check indentation and whitespace")
	}
	if count > 1 && !replaceAll {
		return "", execFailedf("old_string found %d times; add more context to make it unique, or set replace_all=true", count)
	}
	if replaceAll {
		return strings.ReplaceAll(content, oldString, newString), nil
	}
	return strings.Replace(content, oldString, newString, 1), nil
}

// applyHashline performs line-addressed editing guarded by the hash of
// the line's current content.
func applyHashline(content string, lineNumber int, hash, newString string) (string, error) {
	lines := splitLines(content)
	idx := lineNumber - 1
	if idx >= len(lines) {
		return "", execFailedf("line %d does not exist (file has %d lines)", lineNumber, len(lines))
	}
	current := LineHash(lines[idx])
	if current != hash {
		return "", execFailedf("hash mismatch: expected %q but found %q; the line content changed since it was last read", hash, current)
	}
	lines[idx] = newString
	return strings.Join(lines, "\n"), nil
}
