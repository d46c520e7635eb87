package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"lexshelf/internal/adapters/producer"
	"lexshelf/internal/application/commands"
)

var (
	ingestWorkers int
	ingestRate    float64
	ingestReindex bool
	ingestVerbose bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Store every JSON document found under a path",
	Long: `Walk a file or directory and store every JSON document found.

Documents are independent: duplicates and failures are counted and the run
goes on. An interrupted run can be resumed by running it again, documents
already stored are reported as duplicates.

Examples:
  lexshelf-cli ingest ./scraped --workers 8
  lexshelf-cli ingest ./scraped --rate 50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := GetApp()

		ingest := commands.NewIngestCommand(a.Placer, producer.NewFileProducer(args[0]), a.Log)
		ingest.Workers = ingestWorkers
		ingest.Rate = ingestRate

		report, err := ingest.Execute(ctx)
		if err != nil {
			return err
		}
		printReport(cmd, report, ingestVerbose)

		if ingestReindex && !report.Interrupted {
			result, err := commands.NewReindexCommand(a.Indexer).Execute(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		}
		if report.Failed() > 0 {
			return fmt.Errorf("%d documents failed", report.Failed())
		}
		return nil
	},
}

func addBulkFlags(cmd *cobra.Command, workers *int, rate *float64) {
	cmd.Flags().IntVarP(workers, "workers", "w", runtime.NumCPU(), "number of concurrent writers")
	cmd.Flags().Float64Var(rate, "rate", 0, "maximum documents per second (0 for unlimited)")
}

func init() {
	addBulkFlags(ingestCmd, &ingestWorkers, &ingestRate)
	ingestCmd.Flags().BoolVar(&ingestReindex, "reindex", true, "rebuild the index after the run")
	ingestCmd.Flags().BoolVar(&ingestVerbose, "verbose", false, "list every document")
	rootCmd.AddCommand(ingestCmd)
}
