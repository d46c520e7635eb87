package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var verifyAll bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that no directory exceeds the capacity",
	Long: `Count the documents of every directory and report those above the
capacity, with the distribution of file counts. Exits non-zero when any
directory is over capacity.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()

		result, err := commands.NewVerifyCommand(a.Store, a.Rules.Capacity).Execute(cmd.Context())
		if err != nil {
			return err
		}

		rows := result.Violations
		if verifyAll {
			rows = result.Directories
		}
		if len(rows) > 0 {
			t := newTable(cmd)
			t.AppendHeader(table.Row{"Directory", "Documents", "Status"})
			for _, d := range rows {
				status := "ok"
				if d.Count > result.Capacity {
					status = "OVER"
				}
				t.AppendRow(table.Row{d.Path, d.Count, status})
			}
			t.Render()
		}

		t := newTable(cmd)
		t.SetTitle("Distribution")
		t.AppendHeader(table.Row{"Files", "Directories"})
		for _, n := range result.DistributionKeys() {
			t.AppendRow(table.Row{n, result.Distribution[n]})
		}
		t.Render()

		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		if !result.Valid {
			return fmt.Errorf("%d directories over capacity", len(result.Violations))
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVarP(&verifyAll, "all", "a", false, "list every directory, not only violations")
	rootCmd.AddCommand(verifyCmd)
}
