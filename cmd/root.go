package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the habitat application.
var rootCmd = &cobra.Command{
	Use:   "habitat",
	Short: "Provision on-demand development environments",
	Long: `habitat manages on-demand development environments: create them from
templates, watch their health, scale them on load, and reclaim them
when they go stale.`,
	// Handled errors should not re-print usage.
	SilenceUsage: true,
}

var (
	flagConfigDir string
	flagOutput    string
	flagQuiet     bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Configuration directory (default ~/.config/habitat)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress decorative output")
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "habitat version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
