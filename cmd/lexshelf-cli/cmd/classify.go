package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file.json>",
	Short: "Show how a document would be classified",
	Long: `Classify a document and resolve its leaf without writing anything.

Example:
  lexshelf-cli classify scotus_20210615.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := plan(cmd, args[0])
		if err != nil {
			return err
		}
		p := result.Plan

		year := fmt.Sprint(p.Year)
		if !p.Dated {
			year += " (fallback)"
		}
		leaf := p.Leaf.RelDir()
		if p.Exhausted {
			leaf = "none: bucket is full"
		}

		t := newTable(cmd)
		t.AppendRows([]table.Row{
			{"ID", p.ID},
			{"Category", p.Placement.Category},
			{"Subcategory", p.Placement.Subcategory},
			{"Year", year},
			{"Date range", p.Key.DateRange},
			{"Leaf", leaf},
			{"Occupancy", fmt.Sprintf("%d/%d", p.Leaf.Occupancy, GetApp().Rules.Capacity)},
		})
		t.Render()
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <file.json>",
	Short: "Print the path a document would be stored at",
	Long: `Print the repository-relative path a document would be written to
if it were stored now. Nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := plan(cmd, args[0])
		if err != nil {
			return err
		}
		if result.Plan.Exhausted {
			return fmt.Errorf("bucket %s is full", result.Plan.Key)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Plan.Leaf.DocumentPath(result.Plan.ID))
		return nil
	},
}

func plan(cmd *cobra.Command, path string) (*commands.ClassifyResult, error) {
	doc, err := readDocument(cmd, path)
	if err != nil {
		return nil, err
	}
	return commands.NewClassifyCommand(GetApp().Placer, doc, hintOf(path)).Execute(cmd.Context())
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(resolveCmd)
}
