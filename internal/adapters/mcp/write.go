package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"lexshelf/internal/application"
	"lexshelf/internal/application/commands"
)

// RegisterWriteTools adds the tools that change the repository to the MCP server.
func RegisterWriteTools(s *server.MCPServer, svc Services) {
	s.AddTool(storeTool(), storeHandler(svc))
	s.AddTool(reindexTool(), reindexHandler(svc))
	if svc.Dedup != nil {
		s.AddTool(resyncTool(), resyncHandler(svc))
	}
}

// --- store ---

func storeTool() mcp.Tool {
	return mcp.NewTool("store",
		mcp.WithDescription("Store a document in the repository. It is classified, bucketed by year and written to the first leaf with spare capacity. Duplicate ids and duplicate content are rejected."),
		mcp.WithString("document",
			mcp.Description("Document as a JSON object. A missing id is generated."),
			mcp.Required(),
		),
		mcp.WithString("hint",
			mcp.Description("Origin filename, used for the year when the document has no filing date"),
		),
	)
}

func storeHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := parseDocument(req)
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewStoreCommand(svc.Placer, doc, req.GetString("hint", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- reindex ---

func reindexTool() mcp.Tool {
	return mcp.NewTool("reindex",
		mcp.WithDescription("Rebuild repository_index.json, search_catalog.json and README.md from the documents on disk."),
	)
}

func reindexHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewReindexCommand(svc.Indexer).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- resync_dedup ---

func resyncTool() mcp.Tool {
	return mcp.NewTool("resync_dedup",
		mcp.WithDescription("Rebuild the duplicate index from the documents on disk, after files were added or removed by hand."),
	)
}

func resyncHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := application.ResyncDedup(ctx, svc.Store, svc.Dedup, svc.Log)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Indexed %d documents (%d corrupt skipped)",
			stats.Documents, stats.CorruptSkipped)), nil
	}
}
