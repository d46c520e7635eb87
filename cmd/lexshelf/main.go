package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"lexshelf/internal/adapters/tui"
	"lexshelf/internal/app"
)

func main() {
	rootFlag := flag.String("root", "", "repository root (default $LEXSHELF_ROOT or the XDG data dir)")
	configFlag := flag.String("config", "", "rules file (default <root>/.lexshelf.toml)")
	logFile := flag.String("log-file", "", "write logs to this file (the screen belongs to the TUI)")
	flag.Parse()

	var logOutput io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOutput = f
	}

	a, err := app.Open(context.Background(), app.Options{
		Root:       *rootFlag,
		ConfigPath: *configFlag,
		LogOutput:  logOutput,
		SkipResync: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(tui.NewApp(a.Store, a.Indexer, a.Rules.Capacity), tea.WithAltScreen())

	_, runErr := p.Run()
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
