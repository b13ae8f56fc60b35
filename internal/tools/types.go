package tools

import (
	"context"
	"encoding/json"
	"strings"
)

// ApprovalMarker flags mutating tools in their description text. The
// agent loop gates dispatch on it; tools never prompt themselves.
const ApprovalMarker = "REQUIRES APPROVAL."

// Meta provides execution context to tools.
type Meta struct {
	RepoRoot           string
	ToolTimeoutSeconds int
	MaxBytes           int
	MaxResults         int
}

// Result is a structured tool execution result.
type Result struct {
	ToolName   string
	Payload    any
	Message    string
	Preview    string
	LineCount  int
	ByteCount  int
	Truncated  bool
	DurationMs int64
}

// Tool describes a callable tool.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error)
}

// RequiresApproval reports whether a tool's description marks it as
// approval-gated.
func RequiresApproval(t Tool) bool {
	return strings.Contains(t.Description(), ApprovalMarker)
}
