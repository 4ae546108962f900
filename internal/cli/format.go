package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/karimzahran/sakan/internal/chat"
	"github.com/karimzahran/sakan/internal/listing"
	"github.com/karimzahran/sakan/internal/rented"
	"github.com/karimzahran/sakan/internal/request"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingTable prints listings as a formatted table.
func printListingTable(listings []*listing.Listing) error {
	if len(listings) == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tLOCATION\tBEDS\tRENT\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, l := range listings {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(l.ID), l.Location, l.Bedrooms, l.Rent, l.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printListingDetail prints one listing in text format.
func printListingDetail(l *listing.Listing) {
	fmt.Printf("Listing %s\n", l.ID)
	fmt.Printf("  Location:  %s\n", l.Location)
	fmt.Printf("  Status:    %s\n", l.Status)
	fmt.Printf("  Owner:     %s\n", l.OwnerEmail)
	if l.Features != "" {
		fmt.Printf("  Features:  %s\n", l.Features)
	}
	if l.Bedrooms != "" {
		fmt.Printf("  Bedrooms:  %s\n", l.Bedrooms)
	}
	if l.Floor != "" {
		fmt.Printf("  Floor:     %s\n", l.Floor)
	}
	if l.Rent != "" {
		fmt.Printf("  Rent:      %s\n", l.Rent)
	}
	if len(l.Keywords) > 0 {
		fmt.Printf("  Keywords:  %s\n", strings.Join(l.Keywords, ", "))
	}
	if l.AvailableFrom != "" {
		fmt.Printf("  Available: %s\n", l.AvailableFrom)
	}
	for _, img := range l.Images {
		fmt.Printf("  Image:     %s\n", img)
	}
}

// printConversationTable prints conversations as a formatted table.
func printConversationTable(convs []*chat.Conversation) error {
	if len(convs) == 0 {
		fmt.Println("No conversations.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tLISTING\tBUYER\tSELLER\tLAST ACTIVITY"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, c := range convs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(c.ID), shortID(c.ListingID), c.BuyerEmail, c.SellerEmail,
			c.ActivityTime().Format("2006-01-02 15:04")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printMessage prints one chat message line.
func printMessage(m *chat.Message) {
	marker := ""
	switch m.Status {
	case chat.StatusSending, chat.StatusUploading:
		marker = " …"
	case chat.StatusFailed:
		marker = " ✗"
	}

	body := m.Body
	if m.ImageURL != "" {
		if body != "" {
			body += " "
		}
		body += "[image: " + m.ImageURL + "]"
	}

	fmt.Printf("[%s] %s: %s%s\n",
		m.EffectiveTime().Format("15:04"), m.SenderEmail, body, marker)
}

// printRequestTable prints rental requests as a formatted table.
func printRequestTable(reqs []*request.Request) error {
	if len(reqs) == 0 {
		fmt.Println("No requests.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tLISTING\tBUYER\tSTATUS\tNOTE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range reqs {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, shortID(r.ListingID), r.BuyerEmail, r.Status, r.Note); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printRentedTable prints rental records as a formatted table.
func printRentedTable(records []*rented.Record) error {
	if len(records) == 0 {
		fmt.Println("No rentals yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tLISTING\tBUYER\tSELLER\tDATE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, shortID(r.ListingID), r.BuyerEmail, r.SellerEmail,
			r.CreatedAt.Format("2006-01-02")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// shortID truncates UUIDs for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
