package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calendar-agent/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		cfg  *Config
		code string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to your Google Calendar",
		Long: `Authorize calendar-agent to manage your Google Calendar.

Prints the consent URL for the OAuth client in the credentials file. Open it,
grant access and paste the authorization code back (or pass it with --code).
The resulting token is written to the token file and refreshed automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				return err
			}
			return runAuth(cmd.Context(), cfg, code, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cfg = addConfigFlags(cmd)
	cmd.Flags().StringVar(&code, "code", "", "Authorization code or the redirected localhost URL; read from stdin when empty")
	return cmd
}

func runAuth(ctx context.Context, cfg *Config, code string, in io.Reader, out io.Writer) error {
	conf, err := google.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	code = authCodeFromInput(code)
	if code == "" {
		fmt.Fprintf(out, "Go to the following link in your browser:\n\n%s\n\n", google.GetAuthURL(conf))
		fmt.Fprint(out, "After granting access the browser is sent to a localhost page that may fail to load.\n"+
			"Copy the address from the address bar (or just its code= value) and paste it here: ")
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = authCodeFromInput(line)
	}
	if code == "" {
		return errors.New("authorization code is required")
	}

	if _, err := google.ExchangeAuthCode(ctx, conf, code, cfg.TokenFile); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", cfg.TokenFile)
	return nil
}

// authCodeFromInput accepts either the bare code or the whole redirect URL.
func authCodeFromInput(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "code=") {
		return input
	}
	u, err := url.Parse(input)
	if err != nil {
		return input
	}
	query := u.Query()
	if u.RawQuery == "" {
		query, _ = url.ParseQuery(input)
	}
	if code := query.Get("code"); code != "" {
		return code
	}
	return input
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
