package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a deterministic client for tests and demos. It drives a
// search, then an approval-gated create, then a final answer.
type MockClient struct {
	mu    sync.Mutex
	calls int
}

// NewMockClient returns a simple mock.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Create(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	switch m.calls {
	case 1:
		return Response{Content: "- Search the repository for the target text\n- Apply the requested file changes\n- Summarize what changed"}, nil
	case 2:
		args, _ := json.Marshal(map[string]any{"query": "FSCLI", "case_sensitive": false, "max_results": 20})
		return Response{ToolCalls: []ToolCall{{ID: "call_1", Name: "file_search", Arguments: args}}}, nil
	case 3:
		args, _ := json.Marshal(map[string]any{"path": "NOTES.md", "content": "mock note\n"})
		return Response{ToolCalls: []ToolCall{{ID: "call_2", Name: "file_create", Arguments: args}}}, nil
	}
	return Response{Content: "Summary: Mock run complete. [tool:file_search] [tool:file_create]\nNext steps: Review NOTES.md."}, nil
}

func (m *MockClient) Stream(ctx context.Context, req Request, onDelta func(string)) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content := "Summary: Mock run complete. [tool:file_search] [tool:file_create]\nNext steps: Review NOTES.md."
	resp := Response{Content: content}
	if onDelta != nil {
		onDelta(resp.Content)
	}
	return resp, nil
}
