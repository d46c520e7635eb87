package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexshelf/internal/adapters/producer"
	"lexshelf/internal/application/commands"
)

var (
	reorganizeWorkers int
	reorganizeRate    float64
)

var reorganizeCmd = &cobra.Command{
	Use:   "reorganize <legacy-dir>",
	Short: "Copy a legacy document tree into the repository",
	Long: `Copy every JSON document of an arbitrarily nested legacy directory
into the organized repository, then rebuild the index and verify capacity.

The legacy directory is not modified. Source filenames are used for the
year when a document has no filing date.

Example:
  lexshelf-cli reorganize ./legal_documents_repository`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()

		reorganize := commands.NewReorganizeCommand(a.Placer, a.Indexer, a.Store,
			producer.NewFileProducer(args[0]), args[0], a.Log)
		reorganize.Workers = reorganizeWorkers
		reorganize.Rate = reorganizeRate

		result, err := reorganize.Execute(cmd.Context())
		if result != nil && result.Ingest != nil {
			printReport(cmd, result.Ingest, false)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		if !result.Verify.Valid {
			return fmt.Errorf("capacity verification failed")
		}
		return nil
	},
}

func init() {
	addBulkFlags(reorganizeCmd, &reorganizeWorkers, &reorganizeRate)
	rootCmd.AddCommand(reorganizeCmd)
}
