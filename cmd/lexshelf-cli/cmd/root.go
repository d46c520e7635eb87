package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lexshelf/internal/app"
)

var (
	rootPath   string
	configPath string
	logLevel   string
	logFormat  string

	current *app.App
)

var rootCmd = &cobra.Command{
	Use:   "lexshelf-cli",
	Short: "Store legal documents in a capacity-bounded repository",
	Long: `lexshelf-cli places JSON legal documents into a directory tree
organized by date range, category and subcategory. No directory ever holds
more documents than the configured capacity: full leaves overflow into
batch_NNN subdirectories.

It provides commands to store, ingest, reorganize, verify, index, search
and browse the repository.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		a, err := app.Open(cmd.Context(), app.Options{
			Root:       rootPath,
			ConfigPath: configPath,
			LogLevel:   logLevel,
			LogFormat:  logFormat,
			LogOutput:  cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		err := current.Close()
		current = nil
		return err
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so bulk runs stop between documents.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if current != nil {
		_ = current.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", "", "repository root (default $LEXSHELF_ROOT or the XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "rules file (default <root>/.lexshelf.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// GetApp returns the opened repository
func GetApp() *app.App {
	return current
}
