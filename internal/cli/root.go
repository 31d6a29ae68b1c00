package cli

import (
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	logLevel   string
)

// NewRootCmd builds the vg command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vg",
		Short: "Variant Goat - a self-hosted experimentation engine",
		Long: `Variant Goat runs A/B tests: weighted, sticky visitor assignment,
conversion tracking and significance-tested results.

Use the subcommands to manage tests locally, or 'vg serve' to expose the
engine over HTTP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path or postgres:// URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getEnvOrDefault("VG_CONFIG", ""), "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newCreateCmd(),
		newListCmd(),
		newShowCmd(),
		newStartCmd(),
		newPauseCmd(),
		newStopCmd(),
		newReweightCmd(),
		newDeleteCmd(),
		newAssignCmd(),
		newConvertCmd(),
		newResultsCmd(),
		newServeCmd(),
		newTokenCmd(),
	)

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
