package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"lexshelf/internal/application"
	"lexshelf/internal/application/commands"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// Services are the repository collaborators the tools work on.
// Dedup may be nil.
type Services struct {
	Store   ports.LeafStore
	Dedup   ports.DedupIndex
	Placer  *application.Placer
	Indexer *application.IndexBuilder
	Log     logrus.FieldLogger
}

// RegisterReadTools adds all read-only repository tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, svc Services) {
	s.AddTool(statsTool(), statsHandler(svc))
	s.AddTool(searchTool(), searchHandler(svc))
	s.AddTool(showTool(), showHandler(svc))
	s.AddTool(classifyTool(), classifyHandler(svc))
	s.AddTool(verifyTool(), verifyHandler(svc))
	s.AddTool(treeTool(), treeHandler(svc))
}

// --- stats ---

func statsTool() mcp.Tool {
	return mcp.NewTool("stats",
		mcp.WithDescription("Repository statistics: total documents, leaves, and counts by date range, category, jurisdiction, legal domain, document type and source."),
		mcp.WithBoolean("fresh",
			mcp.Description("Scan the tree instead of reading the last index"),
		),
	)
}

func statsHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewStatsCommand(svc.Store, svc.Indexer, req.GetBool("fresh", false)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatIndex(result.Index)), nil
	}
}

// --- search ---

func searchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Search the document catalog by id, title, jurisdiction, legal domain or type. Returns matching documents with their paths."),
		mcp.WithString("query",
			mcp.Description("Search query (at least 2 characters)"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 20)"),
		),
	)
}

func searchHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}

		results, err := commands.NewSearchCommand(svc.Store, query, req.GetInt("limit", 20)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("No results."), nil
		}

		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "%s  %s  [%s, %s]  %s\n", r.ID, r.Title, r.Jurisdiction, r.DocumentType, r.FilePath)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- show ---

func showTool() mcp.Tool {
	return mcp.NewTool("show",
		mcp.WithDescription("Return a stored document as JSON, with its path in the repository."),
		mcp.WithString("id",
			mcp.Description("Document id"),
			mcp.Required(),
		),
	)
}

func showHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewShowCommand(svc.Store, svc.Dedup, req.GetString("id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		data, err := result.Document.Encode()
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Path: %s\n\n%s", result.RelPath, data)), nil
	}
}

// --- classify ---

func classifyTool() mcp.Tool {
	return mcp.NewTool("classify",
		mcp.WithDescription("Dry run: classify a document and resolve the leaf directory it would be stored in. Nothing is written."),
		mcp.WithString("document",
			mcp.Description("Document as a JSON object"),
			mcp.Required(),
		),
		mcp.WithString("hint",
			mcp.Description("Origin filename, used for the year when the document has no filing date"),
		),
	)
}

func classifyHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := parseDocument(req)
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewClassifyCommand(svc.Placer, doc, req.GetString("hint", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- verify ---

func verifyTool() mcp.Tool {
	return mcp.NewTool("verify",
		mcp.WithDescription("Check that no directory holds more documents than the capacity and report the file count distribution."),
	)
}

func verifyHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewVerifyCommand(svc.Store, svc.Placer.Rules().Capacity).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message + "\n")
		for _, v := range result.Violations {
			fmt.Fprintf(&sb, "  over capacity: %s (%d)\n", v.Path, v.Count)
		}
		sb.WriteString("Distribution:\n")
		for _, n := range result.DistributionKeys() {
			fmt.Fprintf(&sb, "  %d files: %d directories\n", n, result.Distribution[n])
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- tree ---

func treeTool() mcp.Tool {
	return mcp.NewTool("tree",
		mcp.WithDescription("Show the repository hierarchy (date range > category > subcategory > batch) with document counts per leaf."),
		mcp.WithString("date_range",
			mcp.Description("Only show this date range (e.g. 2021-2022)"),
		),
	)
}

func treeHandler(svc Services) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		only := req.GetString("date_range", "")

		root, err := svc.Store.BuildTree()
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, dr := range root.Children {
			if only != "" && dr.Name != only {
				continue
			}
			if err := writeTree(&sb, svc.Store, dr); err != nil {
				return toolError(err)
			}
		}
		if sb.Len() == 0 {
			return mcp.NewToolResultText("Repository is empty."), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func writeTree(sb *strings.Builder, store ports.LeafStore, node *domain.TreeNode) error {
	indent := strings.Repeat("  ", node.Depth()-1)
	switch node.Kind {
	case domain.NodeSubcategory, domain.NodeBatch:
		fmt.Fprintf(sb, "%s%s (%d)\n", indent, node.Name, node.Count)
	default:
		fmt.Fprintf(sb, "%s%s/\n", indent, node.Name)
	}
	if node.Kind == domain.NodeBatch {
		return nil
	}

	if err := store.LoadChildren(node); err != nil {
		return err
	}
	for _, child := range node.Children {
		if child.Kind == domain.NodeDocument {
			continue
		}
		if err := writeTree(sb, store, child); err != nil {
			return err
		}
	}
	return nil
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func parseDocument(req mcp.CallToolRequest) (*domain.Document, error) {
	raw := req.GetString("document", "")
	if raw == "" {
		return nil, fmt.Errorf("document is required")
	}
	var doc domain.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid document JSON: %w", err)
	}
	return &doc, nil
}

func formatIndex(idx *domain.RepositoryIndex) string {
	var sb strings.Builder
	info := idx.RepositoryInfo
	fmt.Fprintf(&sb, "Documents: %d\nLeaves: %d\nCapacity: %d\nCorrupt skipped: %d\nIndexed at: %s\n",
		info.TotalDocuments, info.Leaves, info.Capacity, info.CorruptSkipped, info.CreatedAt)

	sections := []struct {
		title  string
		counts map[string]int
	}{
		{"Date ranges", idx.Statistics.ByDateRange},
		{"Categories", idx.Statistics.ByCategory},
		{"Jurisdictions", idx.Statistics.ByJurisdiction},
		{"Legal domains", idx.Statistics.ByLegalDomain},
		{"Document types", idx.Statistics.ByDocumentType},
		{"Sources", idx.Statistics.BySource},
	}
	for _, s := range sections {
		if len(s.counts) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n", s.title)
		for _, k := range domain.SortedKeys(s.counts) {
			fmt.Fprintf(&sb, "  %s: %d\n", k, s.counts[k])
		}
	}
	return sb.String()
}
