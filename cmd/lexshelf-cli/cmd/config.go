package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration in use: the rules file merged over the
defaults, with environment overrides applied. Credentials are omitted.

The output is a valid rules file and can be saved as .lexshelf.toml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetApp().Config

		data, err := cfg.Encode()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# root: %s\n# rules file: %s\n\n%s", cfg.Root, cfg.Path, data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
