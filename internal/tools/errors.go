package tools

import "fmt"

// ErrorKind classifies tool failures.
type ErrorKind string

const (
	// InvalidParameters means the argument bundle is missing a required
	// field, has a wrong type, or violates a static constraint. Raised
	// before any I/O.
	InvalidParameters ErrorKind = "invalid_parameters"
	// ExecutionFailed means a precondition against live filesystem state
	// failed, or an underlying I/O call failed.
	ExecutionFailed ErrorKind = "execution_failed"
)

// ToolError is the failure envelope returned by tool execution. The
// detail carries enough context (counts, paths, expected vs. actual
// hashes) for the caller to self-correct and retry.
type ToolError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func invalidParamsf(format string, args ...any) *ToolError {
	return &ToolError{Kind: InvalidParameters, Detail: fmt.Sprintf(format, args...)}
}

func execFailedf(format string, args ...any) *ToolError {
	return &ToolError{Kind: ExecutionFailed, Detail: fmt.Sprintf(format, args...)}
}
