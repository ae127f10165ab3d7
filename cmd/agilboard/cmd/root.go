package cmd

import (
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

// webAssets is set by main before the command runs.
var webAssets fs.FS

// rootCmd runs the server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "agilboard",
	Short: "Dashboard and notification gateway for the Agil management system",
	Long: `agilboard aggregates the user and problem services into dashboard views.
- Serves the dashboard, problems and map pages
- Joins problems with user names and computes dashboard statistics
- Relays email notifications through SendGrid`,
	SilenceUsage: true,
	RunE:         runServe,
}

// NewRootCommand returns the command tree with web as the embedded page assets.
func NewRootCommand(web fs.FS) *cobra.Command {
	webAssets = web
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(web fs.FS) {
	if err := NewRootCommand(web).Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)
}
