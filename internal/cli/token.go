package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Show the API token of the running server",
		Long: `Show the management API token written by 'vg serve'.

Use this when you've scrolled past the startup message.

Example:
  vg token`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(getTokenFilePath(cfg.Database.DSN))
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no server running. Start with: vg serve")
				}
				return fmt.Errorf("failed to read token file: %w", err)
			}

			token := strings.TrimSpace(string(data))
			if token == "" {
				return fmt.Errorf("token file is empty. Restart the server with: vg serve")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API token: %s\n", token)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Example:\n  curl -H \"Authorization: Bearer %s\" http://localhost:%d/v1/projects/default/tests\n",
				token, cfg.Server.Port)
			return nil
		},
	}
}
