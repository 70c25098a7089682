// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the note store as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notecache/internal/apperr"
	"github.com/starford/notecache/internal/journal"
	"github.com/starford/notecache/internal/models"
	"github.com/starford/notecache/internal/noteservice"
)

// ActivityLister is the read side of the activity journal.
type ActivityLister interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// Server wraps the MCP server with the note tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *noteservice.Service
	activity ActivityLister
}

// New creates a new MCP server with all tools registered. activity may be
// nil, in which case recent_activity is not offered.
func New(svc *noteservice.Service, activity ActivityLister) *Server {
	s := &Server{svc: svc, activity: activity}

	s.mcp = server.NewMCPServer(
		"notecache",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full text of a note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, without the .txt extension")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Fails if a note with this name already exists."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, without the .txt extension")),
		mcp.WithString("text", mcp.Description("Note text (empty if omitted)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the whole text of an existing note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, without the .txt extension")),
		mcp.WithString("text", mcp.Description("New text (empty if omitted)")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, without the .txt extension")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every note with its text. Names include the .txt extension."),
	), s.listNotes)

	if activity != nil {
		s.mcp.AddTool(mcp.NewTool("recent_activity",
			mcp.WithDescription("Recent note mutations, newest first."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Max entries (default %d, max %d)", journal.DefaultLimit, journal.MaxLimit))),
		), s.recentActivity)
	}

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into an MCP error result.
func toolError(name string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name))
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", name))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.GetNote(ctx, name)
	if err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.CreateNote(ctx, name, req.GetString("text", "")); err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", name)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.UpdateNote(ctx, name, req.GetString("text", "")); err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", name)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(ctx, name); err != nil {
		return toolError(name, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", name)), nil
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.ListNotes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recentActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.activity.Recent(ctx, req.GetInt("limit", journal.DefaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
