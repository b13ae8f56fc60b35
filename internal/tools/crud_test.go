package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateThenInfoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := "one\ntwo\nthree\n"
	create := NewCreateTool()
	input, _ := json.Marshal(map[string]any{"path": "sub/new.txt", "content": content})
	res, err := create.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	out := res.Payload.(createOutput)
	if out.Bytes != len(content) {
		t.Fatalf("expected %d bytes, got %d", len(content), out.Bytes)
	}
	if out.Lines != 3 {
		t.Fatalf("expected 3 lines, got %d", out.Lines)
	}

	info := NewInfoTool()
	input, _ = json.Marshal(map[string]any{"path": "sub/new.txt"})
	res, err = info.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	infoOut := res.Payload.(infoOutput)
	if infoOut.Type != "file" {
		t.Fatalf("expected file type, got %s", infoOut.Type)
	}
	if infoOut.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), infoOut.Size)
	}
	if infoOut.LineCount == nil || *infoOut.LineCount != 3 {
		t.Fatalf("expected line count 3, got %v", infoOut.LineCount)
	}
	if infoOut.Extension != "txt" {
		t.Fatalf("expected txt extension, got %q", infoOut.Extension)
	}
}

func TestCreateRejectsExistingWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "old\n")
	create := NewCreateTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt", "content": "new\n"})
	_, err := create.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, ExecutionFailed)

	input, _ = json.Marshal(map[string]any{"path": "a.txt", "content": "new\n", "overwrite": true})
	if _, err := create.Execute(context.Background(), input, Meta{RepoRoot: dir}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if readBack(t, filepath.Join(dir, "a.txt")) != "new\n" {
		t.Fatalf("overwrite did not replace content")
	}
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "a.txt", "x\n")
	del := NewDeleteTool()
	input, _ := json.Marshal(map[string]any{"path": "a.txt"})
	if _, err := del.Execute(context.Background(), input, Meta{RepoRoot: dir}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists")
	}
}

func TestDeleteMissingPath(t *testing.T) {
	del := NewDeleteTool()
	input, _ := json.Marshal(map[string]any{"path": "gone.txt"})
	_, err := del.Execute(context.Background(), input, Meta{RepoRoot: t.TempDir()})
	requireKind(t, err, ExecutionFailed)
}

func TestDeleteNonEmptyDirectoryNeedsRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	inner := writeFixture(t, sub, "keep.txt", "data\n")

	del := NewDeleteTool()
	input, _ := json.Marshal(map[string]any{"path": "sub"})
	_, err := del.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, ExecutionFailed)
	if _, err := os.Stat(inner); err != nil {
		t.Fatalf("contents were removed on failed delete")
	}

	input, _ = json.Marshal(map[string]any{"path": "sub", "recursive": true})
	if _, err := del.Execute(context.Background(), input, Meta{RepoRoot: dir}); err != nil {
		t.Fatalf("recursive delete failed: %v", err)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Fatalf("directory still exists")
	}
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "payload\n")
	move := NewMoveTool()
	input, _ := json.Marshal(map[string]any{"source": "a.txt", "destination": "nested/b.txt"})
	if _, err := move.Execute(context.Background(), input, Meta{RepoRoot: dir}); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if readBack(t, filepath.Join(dir, "nested", "b.txt")) != "payload\n" {
		t.Fatalf("destination content wrong")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("source still exists")
	}
}

func TestMoveRejectsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "a\n")
	writeFixture(t, dir, "b.txt", "b\n")
	move := NewMoveTool()
	input, _ := json.Marshal(map[string]any{"source": "a.txt", "destination": "b.txt"})
	_, err := move.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, ExecutionFailed)
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "payload\n")
	cp := NewCopyTool()
	input, _ := json.Marshal(map[string]any{"source": "a.txt", "destination": "deep/copy.txt"})
	res, err := cp.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	out := res.Payload.(copyOutput)
	if out.Bytes != int64(len("payload\n")) {
		t.Fatalf("expected %d bytes copied, got %d", len("payload\n"), out.Bytes)
	}
	if readBack(t, filepath.Join(dir, "a.txt")) != "payload\n" {
		t.Fatalf("source changed")
	}
	if readBack(t, filepath.Join(dir, "deep", "copy.txt")) != "payload\n" {
		t.Fatalf("copy content wrong")
	}
}

func TestCopyMissingSource(t *testing.T) {
	cp := NewCopyTool()
	input, _ := json.Marshal(map[string]any{"source": "gone.txt", "destination": "b.txt"})
	_, err := cp.Execute(context.Background(), input, Meta{RepoRoot: t.TempDir()})
	requireKind(t, err, ExecutionFailed)
}

func TestMkdir(t *testing.T) {
	dir := t.TempDir()
	mk := NewMkdirTool()
	input, _ := json.Marshal(map[string]any{"path": "a/b/c"})
	res, err := mk.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if !res.Payload.(mkdirOutput).Created {
		t.Fatalf("expected created=true")
	}
	info, err := os.Stat(filepath.Join(dir, "a", "b", "c"))
	if err != nil || !info.IsDir() {
		t.Fatalf("directory missing")
	}

	// second call is a no-op success
	res, err = mk.Execute(context.Background(), input, Meta{RepoRoot: dir})
	if err != nil {
		t.Fatalf("repeat mkdir failed: %v", err)
	}
	if !res.Payload.(mkdirOutput).AlreadyExisted {
		t.Fatalf("expected already_existed=true")
	}
}

func TestMkdirRejectsFileCollision(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "occupied", "x\n")
	mk := NewMkdirTool()
	input, _ := json.Marshal(map[string]any{"path": "occupied"})
	_, err := mk.Execute(context.Background(), input, Meta{RepoRoot: dir})
	requireKind(t, err, ExecutionFailed)
}

func TestInfoMissingPath(t *testing.T) {
	info := NewInfoTool()
	input, _ := json.Marshal(map[string]any{"path": "gone"})
	_, err := info.Execute(context.Background(), input, Meta{RepoRoot: t.TempDir()})
	requireKind(t, err, ExecutionFailed)
}

func TestRequiredParameterValidation(t *testing.T) {
	meta := Meta{RepoRoot: t.TempDir()}
	cases := []struct {
		tool  Tool
		input map[string]any
	}{
		{NewCreateTool(), map[string]any{"content": "x"}},
		{NewCreateTool(), map[string]any{"path": "a.txt"}},
		{NewDeleteTool(), map[string]any{}},
		{NewMoveTool(), map[string]any{"source": "a"}},
		{NewCopyTool(), map[string]any{"destination": "b"}},
		{NewInfoTool(), map[string]any{}},
		{NewMkdirTool(), map[string]any{}},
	}
	for _, tc := range cases {
		input, _ := json.Marshal(tc.input)
		_, err := tc.tool.Execute(context.Background(), input, meta)
		requireKind(t, err, InvalidParameters)
	}
}
