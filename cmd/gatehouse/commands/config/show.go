package config

import (
	"fmt"
	"sort"

	"github.com/marmos91/gatehouse/internal/cli/output"
	"github.com/marmos91/gatehouse/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration gatehouse would run with: the config file merged
with environment overrides, the secrets file and defaults. Secrets are masked.

Examples:
  # Show as YAML
  gatehouse config show

  # Show as a flat key/value table
  gatehouse config show -o table`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "output", "o", "yaml", "Output format (table|json|yaml)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}
	redacted := cfg.Redacted()

	if format != output.FormatTable {
		return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(redacted)
	}

	rows, err := flatten(redacted)
	if err != nil {
		return err
	}
	table := output.NewTableData("KEY", "VALUE")
	for _, row := range rows {
		table.AddRow(row[0], row[1])
	}
	return output.PrintTable(cmd.OutOrStdout(), table)
}

// flatten turns the YAML form of cfg into sorted dotted-key rows.
func flatten(cfg *config.Config) ([][2]string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	var rows [][2]string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		if m, ok := v.(map[string]any); ok {
			for k, child := range m {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
			return
		}
		rows = append(rows, [2]string{prefix, fmt.Sprint(v)})
	}
	walk("", tree)

	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows, nil
}
