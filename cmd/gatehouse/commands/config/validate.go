package config

import (
	"fmt"
	"strings"

	"github.com/marmos91/gatehouse/internal/cli/output"
	"github.com/marmos91/gatehouse/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the gatehouse configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  gatehouse config validate

  # Validate specific config file
  gatehouse config validate --config /etc/gatehouse/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	// Load and validate configuration
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	displayPath := path
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Session.CookieInsecure {
		warnings = append(warnings, "session.cookie_insecure is set - cookies will travel over plain HTTP")
	}
	if cfg.Directory.InsecureSkipVerify {
		warnings = append(warnings, "directory.insecure_skip_verify is set - the directory certificate is not checked")
	}
	if !cfg.Directory.StartTLS && strings.HasPrefix(cfg.Directory.URL, "ldap://") {
		warnings = append(warnings, "directory uses plain ldap:// without start_tls - passwords cross the network in clear text")
	}
	if cfg.Session.Revocation.Enabled && cfg.Session.Revocation.Backend == "memory" {
		warnings = append(warnings, "session revocation uses the memory backend - revocations are lost on restart")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	return output.KeyValues(out, [][2]string{
		{"  API port", fmt.Sprintf("%d", cfg.Server.Port)},
		{"  Directory", cfg.Directory.URL},
		{"  Bucket", cfg.ObjectStore.Bucket},
		{"  Session TTL", cfg.Session.TTL.String()},
		{"  Log level", cfg.Logging.Level},
	})
}
