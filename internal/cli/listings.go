package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karimzahran/sakan/internal/client"
	"github.com/karimzahran/sakan/internal/debounce"
	"github.com/karimzahran/sakan/internal/media"
)

func newListingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Browse, search, and manage listings",
	}

	cmd.AddCommand(
		newListingsListCmd(),
		newListingsSearchCmd(),
		newListingsAddCmd(),
		newListingsShowCmd(),
		newListingsStatusCmd(),
		newListingsRemoveCmd(),
	)

	return cmd
}

func newListingsListCmd() *cobra.Command {
	var mine bool
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := newAPIClient().Listings(client.ListingsOptions{
				Mine:   mine,
				Status: status,
			})
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(listings)
			}
			return printListingTable(listings)
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "only your own listings")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")

	return cmd
}

func newListingsSearchCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search listings",
		Long:  "Search listings with free-text terms: locations, features, bedroom counts, exact rents, or under-N rent caps. With -i, type queries interactively; results refresh as you pause.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return runInteractiveSearch()
			}
			if len(args) == 0 {
				return fmt.Errorf("provide a query or use --interactive")
			}
			return runSearch(args[0])
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "interactive search")

	return cmd
}

func runSearch(query string) error {
	listings, err := newAPIClient().Listings(client.ListingsOptions{Query: query})
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(listings)
	}
	return printListingTable(listings)
}

// runInteractiveSearch re-runs the search as the user types, waiting for a
// pause in input before each fetch so keystrokes don't become requests.
func runInteractiveSearch() error {
	c := newAPIClient()

	d := debounce.New(debounce.DefaultQuiescence, func(query string) {
		listings, err := c.Listings(client.ListingsOptions{Query: query})
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
			return
		}
		fmt.Printf("\n> %s\n", query)
		if err := printListingTable(listings); err != nil {
			fmt.Fprintf(os.Stderr, "printing results: %v\n", err)
		}
	})
	defer d.Stop()

	fmt.Println("Type a query and press enter (empty line to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		d.Set(line)
	}
	d.Flush()

	return scanner.Err()
}

func newListingsAddCmd() *cobra.Command {
	var in client.ListingInput
	var images []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Post a new listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Location == "" {
				return fmt.Errorf("--location is required")
			}

			// Image flags are local file selections; validate them the
			// same way the app validates gallery picks.
			picked, err := media.PickFromGallery(images)
			if err != nil {
				return err
			}
			for _, a := range picked {
				in.Images = append(in.Images, "file://"+a.Path)
			}

			l, err := newAPIClient().CreateListing(in)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(l)
			}
			fmt.Printf("✓ Listing posted: %s\n", l.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Location, "location", "", "location (required)")
	cmd.Flags().StringVar(&in.Features, "features", "", "free-text feature description")
	cmd.Flags().StringVar(&in.Floor, "floor", "", "floor")
	cmd.Flags().StringVar(&in.Bedrooms, "bedrooms", "", "bedroom count")
	cmd.Flags().StringVar(&in.Rent, "rent", "", "monthly rent")
	cmd.Flags().StringSliceVar(&in.Keywords, "keyword", nil, "search keyword (repeatable)")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image file (repeatable)")
	cmd.Flags().StringVar(&in.AvailableFrom, "available-from", "", "availability date")

	return cmd
}

func newListingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newAPIClient().Listing(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(l)
			}
			printListingDetail(l)
			return nil
		},
	}
}

func newListingsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a listing's availability",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newAPIClient().SetListingStatus(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s is now %s\n", l.ID, l.Status)
			return nil
		},
	}
}

func newListingsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().DeleteListing(args[0]); err != nil {
				return err
			}
			fmt.Println("✓ Listing removed.")
			return nil
		},
	}
}
