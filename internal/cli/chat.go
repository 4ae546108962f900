package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/karimzahran/sakan/internal/chat"
	"github.com/karimzahran/sakan/internal/chatui"
	"github.com/karimzahran/sakan/internal/logging"
	"github.com/karimzahran/sakan/internal/media"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with sellers and buyers",
	}

	cmd.AddCommand(
		newChatListCmd(),
		newChatOpenCmd(),
		newChatSendCmd(),
		newChatWatchCmd(),
	)

	return cmd
}

func newChatListCmd() *cobra.Command {
	var latestPerListing bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			convs, err := newAPIClient().Chats(latestPerListing)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(convs)
			}
			return printConversationTable(convs)
		},
	}

	cmd.Flags().BoolVar(&latestPerListing, "latest-per-listing", false, "one conversation per listing (most recent)")

	return cmd
}

func newChatOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <listing-id>",
		Short: "Open a conversation about a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := newAPIClient().OpenChat(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(conv)
			}
			fmt.Printf("✓ Chat %s with %s\n", conv.ID, conv.SellerEmail)
			return nil
		},
	}
}

func newChatSendCmd() *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:   "send <chat-id> [message]",
		Short: "Send a message",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := ""
			if len(args) > 1 {
				body = args[1]
			}
			return runChatSend(args[0], body, image)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "attach an image file")

	return cmd
}

func runChatSend(chatID, body, imagePath string) error {
	imageURL := ""
	if imagePath != "" {
		a, err := media.Capture(imagePath)
		if err != nil {
			return err
		}
		if a == nil {
			fmt.Println("Cancelled.")
			return nil
		}
		imageURL = "file://" + a.Path
	}
	if body == "" && imageURL == "" {
		return fmt.Errorf("nothing to send")
	}

	session := chatui.NewSession(chatID, getEmail(), newAPIClient(), logging.Component("chat"))
	if imageURL != "" {
		session.SendImage(imageURL)
	} else {
		session.Send(body)
	}
	session.Wait()

	tl := session.Timeline()
	last := tl[len(tl)-1]
	if last.Status == chat.StatusFailed {
		return fmt.Errorf("message failed to send")
	}
	fmt.Printf("✓ Sent (%s)\n", last.ID)
	return nil
}

func newChatWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <chat-id>",
		Short: "Follow a conversation live",
		Long:  "Prints the conversation so far, then streams new messages until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatWatch(args[0])
		},
	}
}

func runChatWatch(chatID string) error {
	c := newAPIClient()
	session := chatui.NewSession(chatID, getEmail(), c, logging.Component("chat"))

	msgs, err := c.Messages(chatID)
	if err != nil {
		return err
	}
	session.ApplyFeed(msgs)
	for _, m := range session.Timeline() {
		printMessage(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	feed, err := c.SubscribeFeed(ctx, chatID)
	if err != nil {
		return err
	}

	for m := range feed.C {
		session.Append(m)
		printMessage(&m)
	}

	if err := feed.Err(); err != nil {
		return fmt.Errorf("feed closed: %w", err)
	}
	return nil
}
