package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "File and decide rental requests",
	}

	cmd.AddCommand(
		newRequestsListCmd(),
		newRequestsFileCmd(),
		newRequestsApproveCmd(),
		newRequestsDeclineCmd(),
	)

	return cmd
}

func newRequestsListCmd() *cobra.Command {
	var incoming bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rental requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := newAPIClient().Requests(incoming)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(reqs)
			}
			return printRequestTable(reqs)
		},
	}

	cmd.Flags().BoolVar(&incoming, "incoming", false, "pending requests on your listings")

	return cmd
}

func newRequestsFileCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "file <listing-id>",
		Short: "Ask to rent a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := newAPIClient().CreateRequest(args[0], note)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(req)
			}
			fmt.Printf("✓ Request #%d filed.\n", req.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note to the seller")

	return cmd
}

func newRequestsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a request on your listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecision(args[0], true)
		},
	}
}

func newRequestsDeclineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decline <id>",
		Short: "Decline a request on your listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecision(args[0], false)
		},
	}
}

func runDecision(idArg string, approve bool) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request ID: %s", idArg)
	}

	c := newAPIClient()
	if approve {
		req, err := c.ApproveRequest(id)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Request #%d approved; listing marked rented.\n", req.ID)
		return nil
	}

	req, err := c.DeclineRequest(id)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Request #%d declined.\n", req.ID)
	return nil
}
