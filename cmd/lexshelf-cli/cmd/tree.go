package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

var treeDocuments bool

var treeCmd = &cobra.Command{
	Use:   "tree [date-range]",
	Short: "Display the repository tree",
	Long: `Display the hierarchy of date ranges, categories, subcategories and
batches with the number of documents in each leaf.

Examples:
  lexshelf-cli tree
  lexshelf-cli tree 2021-2022 --documents`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := GetApp().Store

		root, err := store.BuildTree()
		if err != nil {
			return err
		}
		for _, dr := range root.Children {
			if len(args) == 1 && dr.Name != args[0] {
				continue
			}
			if err := printTree(cmd, store, dr); err != nil {
				return err
			}
		}
		return nil
	},
}

func printTree(cmd *cobra.Command, store ports.LeafStore, node *domain.TreeNode) error {
	indent := strings.Repeat("  ", node.Depth()-1)
	switch node.Kind {
	case domain.NodeDocument:
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", indent, node.Name)
		return nil
	case domain.NodeSubcategory, domain.NodeBatch:
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%d)\n", indent, node.Name, node.Count)
		if !treeDocuments && node.Kind == domain.NodeBatch {
			return nil
		}
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s/\n", indent, node.Name)
	}

	if err := store.LoadChildren(node); err != nil {
		return err
	}
	for _, child := range node.Children {
		if child.Kind == domain.NodeDocument && !treeDocuments {
			continue
		}
		if err := printTree(cmd, store, child); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	treeCmd.Flags().BoolVarP(&treeDocuments, "documents", "d", false, "list document files too")
	rootCmd.AddCommand(treeCmd)
}
