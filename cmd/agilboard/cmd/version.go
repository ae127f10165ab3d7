package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"agilboard/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of agilboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "agilboard %s (built %s)\n", app.Version, app.BuildTime)
		return nil
	},
}
