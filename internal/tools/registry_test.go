package tools

import "testing"

func TestRegistryCatalogue(t *testing.T) {
	reg := NewRegistry(
		NewEditTool(), NewCreateTool(), NewDeleteTool(), NewMoveTool(),
		NewCopyTool(), NewInfoTool(), NewMkdirTool(), NewSearchTool(),
	)
	for _, name := range []string{"file_edit", "file_create", "file_delete", "file_move", "file_copy", "file_info", "directory_create", "file_search"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("missing tool %s", name)
		}
	}
	if len(reg.Names()) != 8 {
		t.Fatalf("expected 8 tools, got %d", len(reg.Names()))
	}
}

func TestApprovalGatedTools(t *testing.T) {
	mutating := map[string]bool{
		"file_edit": true, "file_create": true, "file_delete": true,
		"file_move": true, "file_copy": true, "directory_create": true,
		"file_info": false, "file_search": false,
	}
	reg := NewRegistry(
		NewEditTool(), NewCreateTool(), NewDeleteTool(), NewMoveTool(),
		NewCopyTool(), NewInfoTool(), NewMkdirTool(), NewSearchTool(),
	)
	for name, want := range mutating {
		tool, ok := reg.Get(name)
		if !ok {
			t.Fatalf("missing tool %s", name)
		}
		if got := RequiresApproval(tool); got != want {
			t.Errorf("RequiresApproval(%s) = %v, want %v", name, got, want)
		}
	}
	if len(reg.MutatingNames()) != 6 {
		t.Fatalf("expected 6 approval-gated tools, got %d", len(reg.MutatingNames()))
	}
}
