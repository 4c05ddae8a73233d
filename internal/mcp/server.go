package mcp

import (
	"context"

	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "ragengine"
	ServerVersion = "0.1.0"
)

// Searcher runs a document search and returns the text handed to agents.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// NewServer builds an MCP server exposing the document search tool.
func NewServer(searcher Searcher) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	RegisterTools(server, searcher)
	return server
}

// RegisterTools adds the document search tool to server.
func RegisterTools(server *mcpserver.MCPServer, searcher Searcher) {
	h := &handlers{searcher: searcher}

	server.AddTool(mcp.Tool{
		Name:        service.SearchToolName,
		Description: service.SearchToolDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query used to find relevant document passages.",
				},
			},
			Required: []string{"query"},
		},
	}, h.searchFiles)
}

// Serve runs server on stdio until stdin closes.
func Serve(server *mcpserver.MCPServer) error {
	return mcpserver.ServeStdio(server)
}

type handlers struct {
	searcher Searcher
}

func (h *handlers) searchFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	return mcp.NewToolResultText(h.searcher.Search(ctx, query)), nil
}
