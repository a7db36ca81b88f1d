// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mosaic entries and navigation for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/entryservice"
)

// TokenGrammarURI is the resource URI of TokenGrammar.
const TokenGrammarURI = "mosaic://token-grammar"

// Server wraps the MCP server with mosaic tools.
type Server struct {
	mcp *server.MCPServer
	svc *entryservice.Service
}

// New creates a new MCP server with all mosaic tools registered.
func New(svc *entryservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Mosaic",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	langOpt := mcp.WithString("lang", mcp.Description("Language code, e.g. en or de (default: first catalog language)"))

	s.mcp.AddTool(mcp.NewTool("latest_entry",
		mcp.WithDescription("Today's diary entry, or the closest earlier one when today has none."),
		langOpt,
	), s.latestEntry)

	s.mcp.AddTool(mcp.NewTool("previous_entry",
		mcp.WithDescription("Yesterday's diary entry, or the closest earlier one."),
		langOpt,
	), s.previousEntry)

	s.mcp.AddTool(mcp.NewTool("entry_by_date",
		mcp.WithDescription("The diary entry for an exact date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
		langOpt,
	), s.entryByDate)

	s.mcp.AddTool(mcp.NewTool("calendar",
		mcp.WithDescription("Years, months and days that have entries of a kind."),
		mcp.WithString("kind", mcp.Description("Entry kind (default: the configured calendar kind)")),
	), s.calendar)

	s.mcp.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Press a menu button. Pass a navigation token from a previous menu; "+
			"read the grammar via the "+TokenGrammarURI+" resource. An empty token returns the top menu."),
		mcp.WithString("token", mcp.Description("Navigation token, e.g. m_ma_calendar")),
		langOpt,
	), s.dispatch)

	s.mcp.AddTool(mcp.NewTool("publish_history",
		mcp.WithDescription("Recent publish runs of the dataset, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.publishHistory)

	// Resource: navigation token grammar.
	s.mcp.AddResource(
		mcp.NewResource(TokenGrammarURI, "Navigation Token Grammar",
			mcp.WithResourceDescription("Wire form and transitions of mosaic menu tokens."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTokenGrammar,
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

func (s *Server) lang(req mcp.CallToolRequest) string {
	return s.svc.Language(req.GetString("lang", ""))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// errorResult turns domain errors into tool errors. Tool errors are results,
// not protocol failures.
func errorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err)), nil
	case errors.Is(err, apperr.ErrUnavailable):
		return mcp.NewToolResultError("dataset unavailable: nothing has been published yet"), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *Server) latestEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.svc.Latest(ctx, s.lang(req))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(e)
}

func (s *Server) previousEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.svc.Previous(ctx, s.lang(req))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(e)
}

func (s *Server) entryByDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.ByDate(ctx, date, s.lang(req))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(e)
}

func (s *Server) calendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, err := s.svc.Calendar(ctx, req.GetString("kind", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(cal)
}

func (s *Server) dispatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lang := s.lang(req)
	token := req.GetString("token", "")
	if token == "" {
		return jsonResult(s.svc.Start(ctx, lang))
	}
	resp, err := s.svc.Dispatch(ctx, token, lang)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(resp)
}

func (s *Server) publishHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.svc.History(ctx, req.GetInt("limit", 0))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(runs)
}

func (s *Server) readTokenGrammar(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TokenGrammarURI,
			MIMEType: "text/markdown",
			Text:     TokenGrammar,
		},
	}, nil
}
