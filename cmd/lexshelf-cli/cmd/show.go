package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var showPath bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored document",
	Long: `Print a stored document as JSON. The duplicate index is consulted
first, then the search catalog.

Examples:
  lexshelf-cli show scotus_20210615
  lexshelf-cli show scotus_20210615 --path`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()

		result, err := commands.NewShowCommand(a.Store, a.Dedup, args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if showPath {
			fmt.Fprintln(cmd.OutOrStdout(), result.AbsPath)
			return nil
		}

		data, err := result.Document.Encode()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", result.RelPath)
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVarP(&showPath, "path", "p", false, "print only the absolute file path")
	rootCmd.AddCommand(showCmd)
}
