package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MoveTool renames a file or directory, creating the destination's
// parent directories as needed.
type MoveTool struct{}

// NewMoveTool constructs the file move tool.
func NewMoveTool() *MoveTool {
	return &MoveTool{}
}

func (m *MoveTool) Name() string { return "file_move" }

func (m *MoveTool) Description() string {
	return "Move or rename a file or directory. Creates parent directories for the destination automatically. " + ApprovalMarker
}

func (m *MoveTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source":      map[string]any{"type": "string", "description": "Source path (file or directory)"},
			"destination": map[string]any{"type": "string", "description": "Destination path"},
		},
		"required":             []string{"source", "destination"},
		"additionalProperties": false,
	}
}

type moveInput struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type moveOutput struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (m *MoveTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args moveInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Source) == "" {
		return Result{}, invalidParamsf("source is required")
	}
	if strings.TrimSpace(args.Destination) == "" {
		return Result{}, invalidParamsf("destination is required")
	}

	src := resolvePath(meta, args.Source)
	dst := resolvePath(meta, args.Destination)
	if _, err := os.Lstat(src); err != nil {
		return Result{}, execFailedf("source %s does not exist", args.Source)
	}
	if _, err := os.Lstat(dst); err == nil {
		return Result{}, execFailedf("destination %s already exists", args.Destination)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, execFailedf("cannot create parent directory: %v", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return Result{}, execFailedf("cannot move %s to %s: %v", args.Source, args.Destination, err)
	}

	output := moveOutput{Source: args.Source, Destination: args.Destination}
	message := fmt.Sprintf("Moved %s -> %s", args.Source, args.Destination)
	return Result{ToolName: m.Name(), Payload: output, Message: message, Preview: message}, nil
}
