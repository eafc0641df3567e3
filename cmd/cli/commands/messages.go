package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

func printMessages(s *session.Session, messages []db.Message) {
	if len(messages) == 0 {
		fmt.Printf("\nNo messages yet\n\n")
		return
	}

	fmt.Println()
	for _, m := range messages {
		who := "Them"
		if m.SenderID == s.ProfileID {
			who = "You"
		}
		fmt.Printf("  [%s] %-4s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, m.Body)
	}
	fmt.Println()
}

// MessagesCmd creates the messages command
func MessagesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <booking_id>",
		Short: "Show the chat for a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			messages, err := services.ListMessages(app.Ctx, app.Database, app.Logger, s, args[0])
			if err != nil {
				return err
			}
			printMessages(s, messages)
			return nil
		},
	}
}

// SendCmd creates the send command
func SendCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send <booking_id> <message...>",
		Short: "Send a chat message on a booking",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			messages, err := services.SendMessage(app.Ctx, app.Database, app.Gate, app.Logger, s, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printMessages(s, messages)
			return nil
		},
	}
}
