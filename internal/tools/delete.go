package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DeleteTool removes a file or directory. Non-empty directories require
// the recursive flag.
type DeleteTool struct{}

// NewDeleteTool constructs the file delete tool.
func NewDeleteTool() *DeleteTool {
	return &DeleteTool{}
}

func (d *DeleteTool) Name() string { return "file_delete" }

func (d *DeleteTool) Description() string {
	return "Delete a file or empty directory. Cannot delete non-empty directories unless recursive=true. " + ApprovalMarker
}

func (d *DeleteTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to the file or directory to delete"},
			"recursive": map[string]any{
				"type":        "boolean",
				"description": "If true, delete a directory and all its contents",
				"default":     false,
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

type deleteInput struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

type deleteOutput struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	Recursive bool   `json:"recursive,omitempty"`
}

func (d *DeleteTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args deleteInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, invalidParamsf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, invalidParamsf("path is required")
	}

	path := resolvePath(meta, args.Path)
	info, err := os.Lstat(path)
	if err != nil {
		return Result{}, execFailedf("path %s does not exist", args.Path)
	}

	if info.IsDir() {
		if args.Recursive {
			if err := os.RemoveAll(path); err != nil {
				return Result{}, execFailedf("cannot delete directory %s: %v", args.Path, err)
			}
		} else if err := os.Remove(path); err != nil {
			return Result{}, execFailedf("directory %s is not empty; use recursive=true: %v", args.Path, err)
		}
		output := deleteOutput{Path: args.Path, Type: "directory", Recursive: args.Recursive}
		message := fmt.Sprintf("Deleted directory %s", args.Path)
		return Result{ToolName: d.Name(), Payload: output, Message: message, Preview: message}, nil
	}

	if err := os.Remove(path); err != nil {
		return Result{}, execFailedf("cannot delete %s: %v", args.Path, err)
	}
	output := deleteOutput{Path: args.Path, Type: "file"}
	message := fmt.Sprintf("Deleted file %s", args.Path)
	return Result{ToolName: d.Name(), Payload: output, Message: message, Preview: message}, nil
}
