package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fs-cli/internal/config"
	"fs-cli/internal/events"
	"fs-cli/internal/llm"
	"fs-cli/internal/repo"
	"fs-cli/internal/tools"

	"go.uber.org/zap"
)

type denyAll struct{}

func (denyAll) Approve(string, any) bool { return false }

func testConfig() config.Config {
	return config.Config{
		Model:     config.DefaultModel,
		MaxSteps:  6,
		JSON:      true,
		NoHistory: true,
		ToolLimits: config.ToolLimits{
			SearchMaxResults: 10,
			SearchMaxBytes:   4096,
			WebMaxBytes:      1024,
			ContextMaxBytes:  4096,
			MaxFileBytes:     1024,
		},
	}
}

func TestAgentRunWithMock(t *testing.T) {
	logger := zap.NewNop()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "marker.txt"), []byte("FSCLI appears here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := llm.NewMockClient()
	registry := tools.NewRegistry(tools.NewSearchTool(), tools.NewCreateTool())
	repoCtx := repo.RepoContext{RepoRoot: root}
	ag := NewAgent(client, registry, nil, AutoApprover{}, logger, testConfig())

	result, err := ag.Run(context.Background(), "test question", root, repoCtx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer == "" {
		t.Fatalf("expected final answer")
	}
	if len(result.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(result.ToolCalls))
	}
	if result.ToolCalls[0].ToolName != "file_search" || result.ToolCalls[1].ToolName != "file_create" {
		t.Fatalf("unexpected tool order: %s, %s", result.ToolCalls[0].ToolName, result.ToolCalls[1].ToolName)
	}
	if result.ToolCalls[1].Status != "success" {
		t.Fatalf("expected create to succeed, got %s", result.ToolCalls[1].Status)
	}
	if _, err := os.Stat(filepath.Join(root, "NOTES.md")); err != nil {
		t.Fatalf("expected NOTES.md to be written: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("expected success status, got %s", result.Status)
	}
}

func TestAgentDeniedApproval(t *testing.T) {
	logger := zap.NewNop()
	root := t.TempDir()

	client := llm.NewMockClient()
	registry := tools.NewRegistry(tools.NewSearchTool(), tools.NewCreateTool())
	repoCtx := repo.RepoContext{RepoRoot: root}
	ag := NewAgent(client, registry, nil, denyAll{}, logger, testConfig())

	result, err := ag.Run(context.Background(), "test question", root, repoCtx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createStatus string
	for _, call := range result.ToolCalls {
		if call.ToolName == "file_create" {
			createStatus = call.Status
		}
	}
	if createStatus != "denied" {
		t.Fatalf("expected denied create, got %q", createStatus)
	}
	if _, err := os.Stat(filepath.Join(root, "NOTES.md")); !os.IsNotExist(err) {
		t.Fatalf("denied create must not write the file")
	}

	sawRequired := false
	sawDecided := false
	for _, event := range result.Events {
		switch event.Type {
		case events.ApprovalRequired:
			sawRequired = true
		case events.ApprovalDecided:
			sawDecided = true
		}
	}
	if !sawRequired || !sawDecided {
		t.Fatalf("expected approval events, required=%v decided=%v", sawRequired, sawDecided)
	}
}

func TestParsePlan(t *testing.T) {
	plan := parsePlan("- Find the file\n- Edit it\n- Report back")
	if len(plan) != 3 {
		t.Fatalf("expected 3 plan items, got %d", len(plan))
	}
	if plan[0] != "Find the file" {
		t.Fatalf("unexpected first item: %q", plan[0])
	}
}
