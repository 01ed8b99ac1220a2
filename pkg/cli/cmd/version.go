package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dashforge/dashforge/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Dashforge CLI version",
	Example: `
dashforge version
`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CLI version: %s\n", version.Version())
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
