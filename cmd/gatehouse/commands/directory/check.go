package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/gatehouse/internal/cli/output"
	"github.com/marmos91/gatehouse/internal/cli/prompt"
	"github.com/marmos91/gatehouse/pkg/config"
	"github.com/marmos91/gatehouse/pkg/directory"
	"github.com/spf13/cobra"
)

var (
	checkUsername string
	checkFormat   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Try one bind against the configured directory",
	Long: `Bind once against the configured LDAP directory with the given username
and a password read from an interactive prompt, then report the outcome.
The password is never echoed or logged.

Examples:
  # Prompt for username and password
  gatehouse directory check

  # Check a given user with JSON output
  gatehouse directory check --username alice -o json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkUsername, "username", "u", "", "Username to bind as (prompted when empty)")
	checkCmd.Flags().StringVarP(&checkFormat, "output", "o", "table", "Output format (table|json|yaml)")
}

// CheckResult is the outcome of one bind attempt.
type CheckResult struct {
	URL        string `json:"url" yaml:"url"`
	BindDN     string `json:"bind_dn" yaml:"bind_dn"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	ResultCode uint16 `json:"result_code" yaml:"result_code"`
	Duration   string `json:"duration" yaml:"duration"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r CheckResult) Headers() []string {
	return []string{"URL", "BIND DN", "OUTCOME", "RESULT CODE", "DURATION"}
}

func (r CheckResult) Rows() [][]string {
	return [][]string{{r.URL, r.BindDN, r.Outcome, fmt.Sprintf("%d", r.ResultCode), r.Duration}}
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(checkFormat)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	client, err := directory.New(directory.Config{
		URL:                cfg.Directory.URL,
		BindDNTemplate:     cfg.Directory.BindDNTemplate,
		Timeout:            cfg.Directory.Timeout,
		StartTLS:           cfg.Directory.StartTLS,
		InsecureSkipVerify: cfg.Directory.InsecureSkipVerify,
	})
	if err != nil {
		return err
	}

	username := checkUsername
	if username == "" {
		if username, err = prompt.Input("Username", ""); err != nil {
			return abortedOr(cmd, err)
		}
	}
	password, err := prompt.Password("Password")
	if err != nil {
		return abortedOr(cmd, err)
	}

	result := check(cmd.Context(), client, username, password)
	if err := output.NewPrinter(cmd.OutOrStdout(), format, false).Print(result); err != nil {
		return err
	}
	if result.Outcome != outcomeAccepted {
		return fmt.Errorf("bind %s", result.Outcome)
	}
	return nil
}

const (
	outcomeAccepted    = "accepted"
	outcomeRejected    = "rejected"
	outcomeUnreachable = "unreachable"
)

// Binder is the part of the directory client check needs.
type Binder interface {
	URL() string
	BindDN(username string) string
	Bind(ctx context.Context, username, password string) (*directory.BindOutcome, error)
}

func check(ctx context.Context, client Binder, username, password string) CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	result := CheckResult{URL: client.URL(), BindDN: client.BindDN(username)}

	start := time.Now()
	outcome, err := client.Bind(ctx, username, password)
	result.Duration = time.Since(start).Round(time.Millisecond).String()

	var rejected *directory.BindRejectedError
	switch {
	case err == nil:
		result.Outcome = outcomeAccepted
		result.ResultCode = outcome.ResultCode
		result.BindDN = outcome.DN
	case errors.As(err, &rejected):
		result.Outcome = outcomeRejected
		result.ResultCode = rejected.ResultCode
	case errors.Is(err, directory.ErrEmptyCredentials):
		result.Outcome = outcomeRejected
		result.Error = err.Error()
	default:
		result.Outcome = outcomeUnreachable
		result.Error = err.Error()
	}
	return result
}

func abortedOr(cmd *cobra.Command, err error) error {
	if prompt.IsAborted(err) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}
	return err
}
