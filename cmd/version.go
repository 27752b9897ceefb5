package cmd

import (
	"fmt"

	"github.com/meysamhadeli/guidescan/config"
	"github.com/meysamhadeli/guidescan/constants/lipgloss"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of guidescan",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), lipgloss.Info.Render("guidescan "+config.DefaultConfig.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
