// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lauf journaling tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lauf/internal/content"
	"github.com/starford/lauf/internal/entrystore"
	"github.com/starford/lauf/internal/index"
	"github.com/starford/lauf/internal/media"
	"github.com/starford/lauf/internal/models"
)

// Server wraps the MCP server with Lauf tools.
type Server struct {
	mcp   *server.MCPServer
	store *entrystore.Store
	db    *index.DB
	media *media.Store
}

// New creates a new MCP server with all Lauf tools registered.
func New(store *entrystore.Store, db *index.DB, md *media.Store) *Server {
	s := &Server{store: store, db: db, media: md}

	s.mcp = server.NewMCPServer(
		"Lauf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search through published journal entries."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read a single journal entry as its full content-node JSON."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("list_recent_entries",
		mcp.WithDescription("List the most recent published entries, newest first."),
		mcp.WithNumber("limit", mcp.Description("Max entries to return (default 10)")),
	), s.listRecentEntries)

	s.mcp.AddTool(mcp.NewTool("get_entry_format",
		mcp.WithDescription("Returns the canonical Lauf entry content contract. "+
			"Call this before composing entry content to ensure correct node structure."),
	), s.getEntryFormat)

	s.mcp.AddTool(mcp.NewTool("upload_media",
		mcp.WithDescription("Upload an image into the media store from an http(s) URL or a "+
			"base64 data URI. Returns the media id to embed in an image content node."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Source URL or data URI")),
		mcp.WithString("filename", mcp.Description("Optional filename hint (extension decides the stored type)")),
	), s.uploadMedia)

	// Resource: entry content contract.
	s.mcp.AddResource(
		mcp.NewResource("lauf://entry-format", "Entry Content Contract",
			mcp.WithResourceDescription("Canonical content-node JSON format for entry bodies."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

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

// entrySummary is the compact listing shape returned by search and list tools.
type entrySummary struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Preview   string    `json:"preview"`
	Words     int       `json:"words"`
}

func summarize(e *models.Entry) entrySummary {
	preview := content.PlainText(e.Content)
	if runes := []rune(preview); len(runes) > 160 {
		preview = string(runes[:160]) + "…"
	}
	return entrySummary{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		Preview:   preview,
		Words:     content.Words(e.Content),
	}
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summaries := make([]entrySummary, 0, len(ids))
	for _, id := range ids {
		if e := s.store.Get(id); e != nil {
			summaries = append(summaries, summarize(e))
		}
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e := s.store.Get(id)
	if e == nil {
		return mcp.NewToolResultError(fmt.Sprintf("entry not found: %d", id)), nil
	}
	out, _ := json.MarshalIndent(e, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRecentEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	entries := s.store.ListPublished()
	if len(entries) > limit {
		entries = entries[:limit]
	}
	summaries := make([]entrySummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, summarize(e))
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getEntryFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "lauf://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
