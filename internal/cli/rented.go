package cli

import (
	"github.com/spf13/cobra"
)

func newRentedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rented",
		Short: "List your concluded rentals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := newAPIClient().Rented()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(records)
			}
			return printRentedTable(records)
		},
	}
}
