// Package commands implements the gatehouse CLI.
package commands

import (
	configcmd "github.com/marmos91/gatehouse/cmd/gatehouse/commands/config"
	directorycmd "github.com/marmos91/gatehouse/cmd/gatehouse/commands/directory"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gatehouse",
	Short: "gatehouse - LDAP-authenticated gateway to a private S3 bucket",
	Long: `gatehouse is a small HTTP gateway that logs users in against an LDAP
directory, keeps them logged in with a signed session cookie, and lets them
browse and download objects from one S3 bucket.

Use "gatehouse [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return configFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/gatehouse/config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(directorycmd.Cmd)
}
