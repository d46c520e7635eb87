package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"lexshelf/internal/application/commands"
	"lexshelf/internal/domain"
)

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	return t
}

// countTable renders one statistics group sorted by key
func countTable(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	t := newTable(cmd)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Value", "Documents"})
	for _, k := range domain.SortedKeys(counts) {
		t.AppendRow(table.Row{k, counts[k]})
	}
	t.Render()
}

func printReport(cmd *cobra.Command, report *commands.IngestReport, verbose bool) {
	if verbose {
		t := newTable(cmd)
		t.AppendHeader(table.Row{"Status", "ID", "Origin", "Path / Error"})
		for _, item := range report.Items {
			detail := item.RelPath
			if item.Err != nil {
				detail = item.Err.Error()
			}
			t.AppendRow(table.Row{item.Status, item.ID, item.Origin, truncate(detail, 80)})
		}
		t.Render()
	}

	t := newTable(cmd)
	t.AppendHeader(table.Row{"Attempted", "Stored", "Duplicates", "IO failures", "Encoding failures", "Other failures", "Corrupt skipped"})
	t.AppendRow(table.Row{report.Attempted, report.Stored, report.Duplicates, report.IOFailures,
		report.EncodingFailures, report.OtherFailures, report.CorruptSkipped})
	t.Render()

	if report.Interrupted {
		fmt.Fprintln(cmd.OutOrStdout(), "Interrupted: run the same command again to resume")
	}
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// readDocument reads a document from a file, or from stdin when path is "-"
func readDocument(cmd *cobra.Command, path string) (*domain.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func hintOf(path string) string {
	if path == "-" {
		return ""
	}
	return path
}
