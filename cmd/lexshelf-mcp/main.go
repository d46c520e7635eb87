package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "lexshelf/internal/adapters/mcp"
	"lexshelf/internal/app"
)

func main() {
	rootFlag := flag.String("root", "", "repository root (default $LEXSHELF_ROOT or the XDG data dir)")
	configFlag := flag.String("config", "", "rules file (default <root>/.lexshelf.toml)")
	flag.Parse()

	ctx := context.Background()

	// stdout carries the protocol, logs go to stderr
	a, err := app.Open(ctx, app.Options{Root: *rootFlag, ConfigPath: *configFlag, LogOutput: os.Stderr})
	if err != nil {
		log.Fatalf("lexshelf-mcp: %v", err)
	}
	defer a.Close()

	mcpServer := server.NewMCPServer(
		"lexshelf-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	svc := mcpadapter.Services{
		Store:   a.Store,
		Dedup:   a.Dedup,
		Placer:  a.Placer,
		Indexer: a.Indexer,
		Log:     a.Log,
	}
	mcpadapter.RegisterReadTools(mcpServer, svc)
	mcpadapter.RegisterWriteTools(mcpServer, svc)

	if err := server.ServeStdio(mcpServer); err != nil {
		a.Close()
		log.Fatalf("lexshelf-mcp: %v", err)
	}
}
