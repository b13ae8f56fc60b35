package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	return string(data)
}

func requireKind(t *testing.T, err error, kind ErrorKind) *ToolError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %T: %v", err, err)
	}
	if toolErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s: %v", kind, toolErr.Kind, toolErr)
	}
	return toolErr
}

func TestEditReplaceSingleMatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "main.go", "old_string": "func main() {}", "new_string": "func main() { run() }"})
	res, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readBack(t, path); got != "package main\n\nfunc main() { run() }\n" {
		t.Fatalf("unexpected content: %q", got)
	}
	out, ok := res.Payload.(editOutput)
	if !ok {
		t.Fatalf("unexpected payload type")
	}
	if out.Mode != "str_replace" {
		t.Fatalf("expected str_replace mode, got %s", out.Mode)
	}
}

func TestEditRejectsIdenticalStrings(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "a.txt", "same\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "old_string": "same", "new_string": "same"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, InvalidParameters)
	if readBack(t, path) != "same\n" {
		t.Fatalf("file was modified")
	}
}

func TestEditRejectsMissingOldString(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "content\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "new_string": "new"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, InvalidParameters)
}

func TestEditRejectsNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "content\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "old_string": "missing", "new_string": "new"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, ExecutionFailed)
}

func TestEditRejectsAmbiguousMatch(t *testing.T) {
	dir := t.TempDir()
	original := "x = 1\nx = 1\nx = 1\n"
	path := writeFixture(t, dir, "a.txt", original)
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "old_string": "x = 1", "new_string": "x = 2"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	toolErr := requireKind(t, err, ExecutionFailed)
	if !strings.Contains(toolErr.Detail, "3 times") {
		t.Fatalf("expected occurrence count in detail: %v", toolErr)
	}
	if readBack(t, path) != original {
		t.Fatalf("file was modified despite ambiguity")
	}
}

func TestEditReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "a.txt", "x = 1\nx = 1\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "old_string": "x = 1", "new_string": "x = 2", "replace_all": true})
	if _, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readBack(t, path); got != "x = 2\nx = 2\n" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestEditHashlineMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "a.txt", "alpha\nbeta\ngamma\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "line_number": 2, "hash": LineHash("beta"), "new_string": "BETA"})
	res, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readBack(t, path); got != "alpha\nBETA\ngamma" {
		t.Fatalf("unexpected content: %q", got)
	}
	out := res.Payload.(editOutput)
	if out.Mode != "hashline" {
		t.Fatalf("expected hashline mode, got %s", out.Mode)
	}
}

func TestEditHashlineStale(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "a.txt", "alpha\nbeta\ngamma\n")
	staleHash := LineHash("beta")
	// the line changes after the hash was observed
	if err := os.WriteFile(path, []byte("alpha\nbeta2\ngamma\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite fixture: %v", err)
	}
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "line_number": 2, "hash": staleHash, "new_string": "BETA"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	toolErr := requireKind(t, err, ExecutionFailed)
	if !strings.Contains(toolErr.Detail, staleHash) || !strings.Contains(toolErr.Detail, LineHash("beta2")) {
		t.Fatalf("expected both hashes in detail: %v", toolErr)
	}
	if readBack(t, path) != "alpha\nbeta2\ngamma\n" {
		t.Fatalf("file was modified despite stale hash")
	}
}

func TestEditHashlineLineOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "only\n")
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "line_number": 9, "hash": LineHash("only"), "new_string": "x"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: dir})
	toolErr := requireKind(t, err, ExecutionFailed)
	if !strings.Contains(toolErr.Detail, "1 lines") {
		t.Fatalf("expected line count in detail: %v", toolErr)
	}
}

func TestEditMissingFile(t *testing.T) {
	tool := NewEditTool()
	input, _ := json.Marshal(map[string]any{"path": "nope.txt", "old_string": "a", "new_string": "b"})
	_, err := tool.Execute(context.Background(), input, Meta{RepoRoot: t.TempDir()})
	requireKind(t, err, ExecutionFailed)
}
