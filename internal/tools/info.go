package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// infoLineCountCeiling bounds the best-effort line count read.
const infoLineCountCeiling = 10_000_000

// InfoTool reports metadata for a file or directory. Read-only.
type InfoTool struct{}

// NewInfoTool constructs the file info tool.
func NewInfoTool() *InfoTool {
	return &InfoTool{}
}

func (i *InfoTool) Name() string { return "file_info" }

func (i *InfoTool) Description() string {
	return "Get detailed information about a file or directory (type, size, permissions, timestamps, line count)."
}

func (i *InfoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to the file or directory"},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

type infoInput struct {
	Path string `json:"path"`
}

type infoOutput struct {
	Path              string `json:"path"`
	Type              string `json:"type"`
	Size              int64  `json:"size"`
	SizeHuman         string `json:"size_human"`
	ReadOnly          bool   `json:"readonly"`
	Extension         string `json:"extension"`
	ModifiedTimestamp *int64 `json:"modified_timestamp"`
	CreatedTimestamp  *int64 `json:"created_timestamp"`
	LineCount         *int   `json:"line_count"`
}

func (i *InfoTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args infoInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, invalidParamsf("path is required")
	}

	path := resolvePath(meta, args.Path)
	info, err := os.Lstat(path)
	if err != nil {
		return Result{}, execFailedf("cannot read metadata for %s: %v", args.Path, err)
	}

	entryType := "other"
	switch {
	case info.Mode().IsRegular():
		entryType = "file"
	case info.IsDir():
		entryType = "directory"
	case info.Mode()&os.ModeSymlink != 0:
		entryType = "symlink"
	}

	output := infoOutput{
		Path:      args.Path,
		Type:      entryType,
		Size:      info.Size(),
		SizeHuman: humanSize(info.Size()),
		ReadOnly:  info.Mode().Perm()&0o200 == 0,
		Extension: strings.TrimPrefix(filepath.Ext(path), "."),
	}
	if mod := info.ModTime(); !mod.IsZero() {
		secs := mod.Unix()
		output.ModifiedTimestamp = &secs
	}
	// Creation time is not portably available; left absent.

	if entryType == "file" && info.Size() < infoLineCountCeiling {
		if raw, err := os.ReadFile(path); err == nil && utf8.Valid(raw) {
			count := countLines(string(raw))
			output.LineCount = &count
		}
	}

	access := "read/write"
	if output.ReadOnly {
		access = "read-only"
	}
	lineNote := ""
	if output.LineCount != nil {
		lineNote = fmt.Sprintf(", %d lines", *output.LineCount)
	}
	message := fmt.Sprintf("%s: %s (%s, %s%s)", args.Path, entryType, output.SizeHuman, access, lineNote)
	return Result{ToolName: i.Name(), Payload: output, Message: message, Preview: message, ByteCount: int(info.Size())}, nil
}
