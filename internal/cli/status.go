package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karimzahran/sakan/internal/auth"
)

func newStatusCmd() *cobra.Command {
	var name, phone, role string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show or update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("name") || cmd.Flags().Changed("phone") || cmd.Flags().Changed("role") {
				return runStatusUpdate(name, phone, role,
					cmd.Flags().Changed("name"), cmd.Flags().Changed("phone"))
			}
			return runStatus()
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "set display name")
	cmd.Flags().StringVar(&phone, "phone", "", "set phone number")
	cmd.Flags().StringVar(&role, "role", "", "set role (buyer or seller)")

	return cmd
}

func runStatus() error {
	if getAPIKey() == "" {
		fmt.Println("Not logged in. Run: sakan login <email>")
		return nil
	}

	me, err := newAPIClient().Me()
	if err != nil {
		return fmt.Errorf("checking login: %w", err)
	}

	if isJSON() {
		return printJSON(me)
	}

	printProfile(me)
	fmt.Printf("  Server: %s\n", getServerURL())
	return nil
}

func runStatusUpdate(name, phone, role string, nameSet, phoneSet bool) error {
	c := newAPIClient()

	// Unset fields keep their current values.
	me, err := c.Me()
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	if !nameSet {
		name = me.Name
	}
	if !phoneSet {
		phone = me.Phone
	}

	updated, err := c.UpdateMe(name, phone, role)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	if isJSON() {
		return printJSON(updated)
	}
	printProfile(updated)
	return nil
}

func printProfile(u *auth.User) {
	fmt.Printf("Logged in as %s (%s)\n", u.Email, u.Role)
	if u.Name != "" {
		fmt.Printf("  Name:  %s\n", u.Name)
	}
	if u.Phone != "" {
		fmt.Printf("  Phone: %s\n", u.Phone)
	}
}
