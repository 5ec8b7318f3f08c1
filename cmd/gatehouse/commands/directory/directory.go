// Package directory implements the "gatehouse directory" subcommands.
package directory

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent of the directory subcommands.
var Cmd = &cobra.Command{
	Use:   "directory",
	Short: "Inspect the LDAP directory",
}

func init() {
	Cmd.AddCommand(checkCmd)
}
