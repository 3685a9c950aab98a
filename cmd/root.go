// Package cmd provides the command-line interface of the SAP Business One
// query assistant: the HTTP server and a one-shot ask command.
package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/b1-query-assistant/pkg/config"
)

var configPath string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "b1qa",
	Short: "Natural-language query assistant for SAP Business One",
	Long: `b1qa turns business questions into SAP HANA SQL for SAP Business One,
optionally runs the query and suggests how to visualize the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile,
		"Path to the YAML config file (environment variables override it)")
}
