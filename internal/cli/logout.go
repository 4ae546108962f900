package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogout() error {
	if getAPIKey() == "" {
		fmt.Println("Not logged in.")
		return nil
	}

	if err := newAPIClient().Logout(); err != nil {
		// Revocation is best-effort; still clear the local key.
		fmt.Fprintf(os.Stderr, "warning: revoking key on server: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.APIKey = ""
	cfg.Email = ""

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("✓ Logged out.")
	return nil
}
