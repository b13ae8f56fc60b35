package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyTool byte-copies a file, creating the destination's parent
// directories as needed.
type CopyTool struct{}

// NewCopyTool constructs the file copy tool.
func NewCopyTool() *CopyTool {
	return &CopyTool{}
}

func (c *CopyTool) Name() string { return "file_copy" }

func (c *CopyTool) Description() string {
	return "Copy a file to a new location. Creates parent directories automatically. " + ApprovalMarker
}

func (c *CopyTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source":      map[string]any{"type": "string", "description": "Source file path"},
			"destination": map[string]any{"type": "string", "description": "Destination file path"},
		},
		"required":             []string{"source", "destination"},
		"additionalProperties": false,
	}
}

type copyInput struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type copyOutput struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Bytes       int64  `json:"bytes"`
}

func (c *CopyTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args copyInput
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
	info, err := os.Stat(src)
	if err != nil {
		return Result{}, execFailedf("source %s does not exist", args.Source)
	}
	if info.IsDir() {
		return Result{}, execFailedf("source %s is a directory; only files can be copied", args.Source)
	}

	dst := resolvePath(meta, args.Destination)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, execFailedf("cannot create parent directory: %v", err)
	}
	bytes, err := copyFile(src, dst)
	if err != nil {
		return Result{}, execFailedf("cannot copy %s to %s: %v", args.Source, args.Destination, err)
	}

	output := copyOutput{Source: args.Source, Destination: args.Destination, Bytes: bytes}
	message := fmt.Sprintf("Copied %s -> %s (%d bytes)", args.Source, args.Destination, bytes)
	return Result{ToolName: c.Name(), Payload: output, Message: message, Preview: message, ByteCount: int(bytes)}, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	bytes, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return bytes, err
}
