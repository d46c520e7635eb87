package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var statsFresh bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show repository statistics",
	Long: `Show document counts from the last index. The tree is scanned when
no index exists yet or --fresh is given; the index file is not rewritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()

		result, err := commands.NewStatsCommand(a.Store, a.Indexer, statsFresh).Execute(cmd.Context())
		if err != nil {
			return err
		}
		idx := result.Index
		info := idx.RepositoryInfo

		t := newTable(cmd)
		t.AppendRows([]table.Row{
			{"Documents", info.TotalDocuments},
			{"Leaves", info.Leaves},
			{"Capacity", info.Capacity},
			{"Corrupt skipped", info.CorruptSkipped},
			{"Indexed at", info.CreatedAt},
		})
		t.Render()

		countTable(cmd, "Date ranges", idx.Statistics.ByDateRange)
		countTable(cmd, "Categories", idx.Statistics.ByCategory)
		countTable(cmd, "Jurisdictions", idx.Statistics.ByJurisdiction)
		countTable(cmd, "Legal domains", idx.Statistics.ByLegalDomain)
		countTable(cmd, "Document types", idx.Statistics.ByDocumentType)
		countTable(cmd, "Sources", idx.Statistics.BySource)
		countTable(cmd, "Batches", idx.Statistics.ByBatch)

		if result.Fresh {
			fmt.Fprintln(cmd.OutOrStdout(), "Computed by scanning; run reindex to save it")
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsFresh, "fresh", false, "scan the tree instead of reading the index")
	rootCmd.AddCommand(statsCmd)
}
