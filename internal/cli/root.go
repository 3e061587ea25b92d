// Package cli implements the shopmate command-line interface.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/freshcart/shopmate/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	log *logging.Logger
)

// configPath returns the effective config file path.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "shopmate.yaml"
	}
	return filepath.Join(home, ".shopmate", "config.yaml")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopmate",
		Short: "Shopmate — storefront AI shopping assistant",
		Long:  "Shopmate runs the FreshCart shopping-assistant chat core: the edge relay the storefront UI streams completions through, plus local tooling.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.shopmate/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newCatalogCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
