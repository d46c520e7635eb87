package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexshelf/internal/adapters/producer"
	"lexshelf/internal/application/commands"
)

var (
	generateCount   int
	generateSeed    uint64
	generateFrom    int
	generateTo      int
	generateUndated float64
	generateWorkers int
	generateRate    float64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Store synthetic legal documents for load testing",
	Long: `Generate template legal documents across jurisdictions, domains and
years and store them. The same seed always produces the same documents, so
running the command twice reports the second batch as duplicates.

Example:
  lexshelf-cli generate --count 5000 --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := GetApp()

		synthetic := producer.NewSyntheticProducer(generateCount, generateSeed)
		synthetic.FromYear = generateFrom
		synthetic.ToYear = generateTo
		synthetic.Undated = generateUndated

		ingest := commands.NewIngestCommand(a.Placer, synthetic, a.Log)
		ingest.Workers = generateWorkers
		ingest.Rate = generateRate

		report, err := ingest.Execute(ctx)
		if err != nil {
			return err
		}
		printReport(cmd, report, false)

		if !report.Interrupted {
			result, err := commands.NewReindexCommand(a.Indexer).Execute(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1000, "number of documents")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 1, "random seed")
	generateCmd.Flags().IntVar(&generateFrom, "from", 2015, "first filing year")
	generateCmd.Flags().IntVar(&generateTo, "to", 2025, "last filing year")
	generateCmd.Flags().Float64Var(&generateUndated, "undated", 0, "share of documents without a filing date (0-1)")
	addBulkFlags(generateCmd, &generateWorkers, &generateRate)
	rootCmd.AddCommand(generateCmd)
}
