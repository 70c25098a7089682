package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notecache/internal/models"
	"github.com/starford/notecache/internal/noteservice"
	"github.com/starford/notecache/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, store := testutil.TestCache(t)
	db := testutil.TestJournal(t)
	return New(noteservice.NewService(store, db, nil), db)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so dispatch to the
	// handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "recent_activity":
		result, err = srv.recentActivity(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateReadUpdateDelete(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{"name": "todo", "text": "buy milk"})
	if r.IsError || resultText(r) != "created: todo" {
		t.Fatalf("create result = %q", resultText(r))
	}

	r = callTool(t, srv, "read_note", map[string]any{"name": "todo"})
	if resultText(r) != "buy milk" {
		t.Errorf("read result = %q", resultText(r))
	}

	r = callTool(t, srv, "update_note", map[string]any{"name": "todo", "text": "buy eggs"})
	if r.IsError {
		t.Fatalf("update failed: %q", resultText(r))
	}
	r = callTool(t, srv, "read_note", map[string]any{"name": "todo"})
	if resultText(r) != "buy eggs" {
		t.Errorf("read after update = %q", resultText(r))
	}

	r = callTool(t, srv, "delete_note", map[string]any{"name": "todo"})
	if r.IsError {
		t.Fatalf("delete failed: %q", resultText(r))
	}
	r = callTool(t, srv, "read_note", map[string]any{"name": "todo"})
	if !r.IsError || resultText(r) != "not found: todo" {
		t.Errorf("read after delete = %q (error=%v)", resultText(r), r.IsError)
	}
}

func TestCreateDuplicate(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]any{"name": "dup", "text": "a"})
	r := callTool(t, srv, "create_note", map[string]any{"name": "dup", "text": "b"})
	if !r.IsError {
		t.Error("expected error for duplicate create")
	}
}

func TestMissingNameArgument(t *testing.T) {
	srv := testServer(t)
	for _, tool := range []string{"read_note", "create_note", "update_note", "delete_note"} {
		if r := callTool(t, srv, tool, map[string]any{}); !r.IsError {
			t.Errorf("%s without name should fail", tool)
		}
	}
}

func TestListNotes(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]any{"name": "a", "text": "alpha"})

	r := callTool(t, srv, "list_notes", map[string]any{})
	var notes []models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &notes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(notes) != 1 || notes[0].Name != "a.txt" || notes[0].Text != "alpha" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestRecentActivity(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]any{"name": "a"})
	_ = callTool(t, srv, "delete_note", map[string]any{"name": "a"})

	r := callTool(t, srv, "recent_activity", map[string]any{"limit": 1})
	var items []models.Activity
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Op != models.OpDelete {
		t.Errorf("activity = %+v", items)
	}
}

func TestToolsRegistered(t *testing.T) {
	srv := testServer(t)
	tools := srv.MCPServer().ListTools()
	for _, name := range []string{"read_note", "create_note", "update_note", "delete_note", "list_notes", "recent_activity"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}
