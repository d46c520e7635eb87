package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lexshelf/internal/adapters/producer"
	"lexshelf/internal/application/commands"
)

var (
	watchWorkers int
	watchRate    float64
	watchReindex bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <inbox-dir>",
	Short: "Store documents dropped into an inbox directory",
	Long: `Watch an inbox directory and store every JSON document written to it.
Stored and duplicate documents are removed from the inbox; failed ones stay
for inspection. Runs until interrupted.

Example:
  lexshelf-cli watch ~/inbox`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := GetApp()

		inbox := producer.NewWatchProducer(args[0], a.Log)
		ingest := commands.NewIngestCommand(a.Placer, inbox, a.Log)
		ingest.Workers = watchWorkers
		ingest.Rate = watchRate
		ingest.OnResult = func(item commands.ItemResult) {
			done := item.Status == commands.StatusStored || item.Status == commands.StatusDuplicate
			inbox.Settle(item.Origin, done)
			if item.Status == commands.StatusStored {
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s at %s\n", item.ID, item.RelPath)
			}
		}

		a.Log.WithField("path", args[0]).Info("watching inbox")
		report, err := ingest.Execute(ctx)
		if err != nil {
			return err
		}
		printReport(cmd, report, false)

		if watchReindex && report.Stored > 0 {
			// the watch context is already cancelled
			result, err := commands.NewReindexCommand(a.Indexer).Execute(context.WithoutCancel(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		}
		return nil
	},
}

func init() {
	addBulkFlags(watchCmd, &watchWorkers, &watchRate)
	watchCmd.Flags().BoolVar(&watchReindex, "reindex", true, "rebuild the index when the watch stops")
	rootCmd.AddCommand(watchCmd)
}
