package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/marmos91/gatehouse/internal/cli/prompt"
	"github.com/marmos91/gatehouse/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce        bool
	initBucket       string
	initRegion       string
	initDirectoryURL string
	initBindTemplate string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Write a starter configuration with defaults and a freshly generated
session secret. Edit the directory and object store sections before starting
the server.

Examples:
  # Create the default config
  gatehouse config init

  # Create a config for a given bucket and directory
  gatehouse config init --bucket photos --directory-url ldaps://ldap.example.org:636

  # Overwrite an existing file without asking
  gatehouse config init --config ./gatehouse.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file without confirmation")
	initCmd.Flags().StringVar(&initBucket, "bucket", "my-bucket", "S3 bucket to serve")
	initCmd.Flags().StringVar(&initRegion, "region", "us-east-1", "S3 region")
	initCmd.Flags().StringVar(&initDirectoryURL, "directory-url", "ldap://localhost:389", "LDAP directory URL")
	initCmd.Flags().StringVar(&initBindTemplate, "bind-dn-template", "uid=%s,ou=people,dc=example,dc=org", "Template turning a username into a bind DN")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("%s exists. Overwrite", path), initForce)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	cfg := config.GetDefaultConfig()
	cfg.Session.Secret = secret
	cfg.ObjectStore.Bucket = initBucket
	cfg.ObjectStore.Region = initRegion
	cfg.Directory.URL = initDirectoryURL
	cfg.Directory.BindDNTemplate = initBindTemplate

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("starter configuration is invalid: %w", err)
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration written to %s\n", path)
	_, _ = fmt.Fprintln(out, "A random session secret was generated. Keep the file private (mode 0600).")
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintf(out, "  gatehouse directory check --config %s\n", path)
	_, _ = fmt.Fprintf(out, "  gatehouse start --config %s\n", path)
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
