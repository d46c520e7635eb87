package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var storeCmd = &cobra.Command{
	Use:   "store <file.json>...",
	Short: "Store documents in the repository",
	Long: `Store one or more JSON documents. Each document is classified,
bucketed by year and written to the first leaf with spare capacity.

Use - to read a single document from stdin.

Examples:
  lexshelf-cli store scotus_20210615.json
  cat doc.json | lexshelf-cli store -`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := GetApp()

		var failed int
		for _, path := range args {
			doc, err := readDocument(cmd, path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
				failed++
				continue
			}

			result, err := commands.NewStoreCommand(a.Placer, doc, hintOf(path)).Execute(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed++
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d documents not stored", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
}
