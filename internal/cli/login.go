package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karimzahran/sakan/internal/client"
)

func newLoginCmd() *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in with a magic link",
		Long:  "Emails a one-time sign-in link. Paste the token from the email to finish; the resulting API key is stored in the CLI config.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(args[0], device)
		},
	}

	cmd.Flags().StringVar(&device, "device", "cli", "device name shown on the key")

	return cmd
}

func runLogin(email, device string) error {
	c := client.New(getServerURL(), "")

	token, err := c.Login(email)
	if err != nil {
		return fmt.Errorf("starting login: %w", err)
	}

	if token == "" {
		// Production flow: the token arrives by email.
		fmt.Printf("A sign-in link was emailed to %s.\n", email)
		fmt.Print("Paste the token from the link: ")
		reader := bufio.NewReader(os.Stdin)
		token, err = reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return fmt.Errorf("no token provided")
		}
	}

	result, err := c.Verify(token, device)
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.APIKey = result.APIKey
	cfg.Email = result.User.Email
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("✓ Logged in as %s\n", result.User.Email)
	return nil
}
