package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var reindexDedup bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the repository index and search catalog",
	Long: `Rebuild repository_index.json, search_catalog.json and README.md by
scanning the tree. Corrupt documents are skipped and reported.

With --dedup the duplicate index is rebuilt from disk as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := GetApp()

		if reindexDedup {
			stats, err := a.ResyncDedup(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dedup index rebuilt: %d documents (%d corrupt skipped)\n",
				stats.Documents, stats.CorruptSkipped)
		}

		result, err := commands.NewReindexCommand(a.Indexer).Execute(ctx)
		if err != nil {
			return err
		}
		for _, c := range result.Corrupt {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", c)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexDedup, "dedup", false, "also rebuild the duplicate index")
	rootCmd.AddCommand(reindexCmd)
}
