// Package config implements the "gatehouse config" subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent of the configuration subcommands.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gatehouse configuration",
	Long: `Create, inspect and validate the gatehouse configuration file.

The configuration file defaults to $XDG_CONFIG_HOME/gatehouse/config.yaml;
use --config to point at another file.`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
}

// configPath returns the --config flag, or the default location.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
