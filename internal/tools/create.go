package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CreateTool writes a new file, creating parent directories as needed.
type CreateTool struct{}

// NewCreateTool constructs the file create tool.
func NewCreateTool() *CreateTool {
	return &CreateTool{}
}

func (c *CreateTool) Name() string { return "file_create" }

func (c *CreateTool) Description() string {
	return "Create a new file with content. Fails if the file already exists unless overwrite=true. Creates parent directories automatically. " + ApprovalMarker
}

func (c *CreateTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path for the new file"},
			"content": map[string]any{"type": "string", "description": "Content to write"},
			"overwrite": map[string]any{
				"type":        "boolean",
				"description": "If true, overwrite an existing file (default: false)",
				"default":     false,
			},
		},
		"required":             []string{"path", "content"},
		"additionalProperties": false,
	}
}

type createInput struct {
	Path      string  `json:"path"`
	Content   *string `json:"content"`
	Overwrite bool    `json:"overwrite"`
}

type createOutput struct {
	Path    string `json:"path"`
	Bytes   int    `json:"bytes"`
	Lines   int    `json:"lines"`
	Created bool   `json:"created"`
}

func (c *CreateTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args createInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, invalidParamsf("path is required")
	}
	if args.Content == nil {
		return Result{}, invalidParamsf("content is required")
	}
	content := *args.Content

	path := resolvePath(meta, args.Path)
	if _, err := os.Stat(path); err == nil && !args.Overwrite {
		return Result{}, execFailedf("file %s already exists; use overwrite=true to replace it, or file_edit to modify it", args.Path)
	}
	if parent := filepath.Dir(path); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return Result{}, execFailedf("cannot create parent directory: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Result{}, execFailedf("cannot create file %s: %v", args.Path, err)
	}

	output := createOutput{Path: args.Path, Bytes: len(content), Lines: countLines(content), Created: true}
	message := fmt.Sprintf("Created %s (%d lines, %d bytes)", args.Path, output.Lines, output.Bytes)
	return Result{ToolName: c.Name(), Payload: output, Message: message, Preview: message, LineCount: output.Lines, ByteCount: output.Bytes}, nil
}
