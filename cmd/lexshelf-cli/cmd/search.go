package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the document catalog",
	Long: `Search the catalog by id, title, jurisdiction, legal domain or type.

Results are ranked by relevance using fuzzy matching. The catalog is
written by reindex.

Examples:
  lexshelf-cli search miranda
  lexshelf-cli search scotus_2021`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()

		results, err := commands.NewSearchCommand(a.Store, args[0], searchLimit).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No results found")
			return nil
		}

		t := newTable(cmd)
		t.AppendHeader(table.Row{"ID", "Title", "Jurisdiction", "Type", "Path"})
		for _, r := range results {
			t.AppendRow(table.Row{r.ID, truncate(r.Title, 48), r.Jurisdiction, r.DocumentType, r.FilePath})
		}
		t.Render()
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "maximum number of results (0 for all)")
	rootCmd.AddCommand(searchCmd)
}
