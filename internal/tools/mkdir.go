package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// MkdirTool creates a directory hierarchy, mkdir -p style.
type MkdirTool struct{}

// NewMkdirTool constructs the directory create tool.
func NewMkdirTool() *MkdirTool {
	return &MkdirTool{}
}

func (m *MkdirTool) Name() string { return "directory_create" }

func (m *MkdirTool) Description() string {
	return "Create a directory and all missing parent directories (like mkdir -p). " + ApprovalMarker
}

func (m *MkdirTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path of the directory to create"},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

type mkdirInput struct {
	Path string `json:"path"`
}

type mkdirOutput struct {
	Path           string `json:"path"`
	Created        bool   `json:"created"`
	AlreadyExisted bool   `json:"already_existed,omitempty"`
}

func (m *MkdirTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args mkdirInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, invalidParamsf("path is required")
	}

	path := resolvePath(meta, args.Path)
	if info, err := os.Lstat(path); err == nil {
		if !info.IsDir() {
			return Result{}, execFailedf("a non-directory already exists at %s", args.Path)
		}
		output := mkdirOutput{Path: args.Path, AlreadyExisted: true}
		message := fmt.Sprintf("Directory already exists: %s", args.Path)
		return Result{ToolName: m.Name(), Payload: output, Message: message, Preview: message}, nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{}, execFailedf("cannot create directory %s: %v", args.Path, err)
	}
	output := mkdirOutput{Path: args.Path, Created: true}
	message := fmt.Sprintf("Created directory %s", args.Path)
	return Result{ToolName: m.Name(), Payload: output, Message: message, Preview: message}, nil
}
