package cli

import (
	"github.com/spf13/cobra"

	"github.com/halyard-dev/halyard/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "halyard",
	Short: "Halyard: web deployments on infrastructure you control",
	Long: `Halyard provisions and wires the infrastructure behind self-hosted web
deployments: servers at VPS vendors, DNS records, outbound tunnels, and
object storage buckets, all driven from local integration credentials.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func Execute() error {
	return rootCmd.Execute()
}
