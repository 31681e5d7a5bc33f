// Package mcp exposes the investigation read model as MCP tools, so agent
// tooling and MCP clients can inspect an investigation without the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/inquest/internal/db"
)

// NewServer creates an MCPServer with the read-model tools registered. All
// tools take (investigation_id, user_id) and answer exactly like the canvas
// endpoints: a foreign investigation reads as missing.
func NewServer(database *db.DB) *server.MCPServer {
	srv := server.NewMCPServer(
		"inquest",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	registerInvestigationSummary(srv, database)
	registerListSources(srv, database)
	registerListClaims(srv, database)
	registerListFactChecks(srv, database)
	registerListTimeline(srv, database)

	return srv
}

// scopeSchema is the argument shape shared by every read tool.
func scopeSchema() json.RawMessage {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"investigation_id": map[string]string{"type": "string", "description": "Investigation ID"},
			"user_id":          map[string]string{"type": "string", "description": "ID of the user the read is scoped to"},
		},
		"required": []string{"investigation_id", "user_id"},
	})
	return schema
}

type scopedRead func(investigationID, userID string) (any, error)

// registerRead wires one ownership-scoped read as a tool.
func registerRead(srv *server.MCPServer, name, description string, read scopedRead) {
	tool := mcp.NewToolWithRawSchema(name, description, scopeSchema())
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		invID := stringArg(args, "investigation_id")
		userID := stringArg(args, "user_id")
		if invID == "" || userID == "" {
			return nil, fmt.Errorf("investigation_id and user_id are required")
		}
		data, err := read(invID, userID)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(out)), nil
	})
}

func registerInvestigationSummary(srv *server.MCPServer, database *db.DB) {
	registerRead(srv, "investigation_summary",
		"Get the current summary and overall bias score of an investigation",
		func(invID, userID string) (any, error) {
			summary, bias, err := database.CanvasSummary(invID, userID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"summary": summary, "overall_bias_score": bias}, nil
		})
}

func registerListSources(srv *server.MCPServer, database *db.DB) {
	registerRead(srv, "list_sources",
		"List an investigation's sources, most credible first",
		func(invID, userID string) (any, error) {
			return database.CanvasSources(invID, userID)
		})
}

func registerListClaims(srv *server.MCPServer, database *db.DB) {
	registerRead(srv, "list_claims",
		"List an investigation's extracted claims with verification status",
		func(invID, userID string) (any, error) {
			return database.CanvasClaims(invID, userID)
		})
}

func registerListFactChecks(srv *server.MCPServer, database *db.DB) {
	registerRead(srv, "list_fact_checks",
		"List fact-check evidence for an investigation's claims",
		func(invID, userID string) (any, error) {
			return database.CanvasFactChecks(invID, userID)
		})
}

func registerListTimeline(srv *server.MCPServer, database *db.DB) {
	registerRead(srv, "list_timeline",
		"List an investigation's timeline events in chronological order",
		func(invID, userID string) (any, error) {
			return database.CanvasTimeline(invID, userID)
		})
}

func stringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}
