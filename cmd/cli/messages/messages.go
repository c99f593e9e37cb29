package messages

import (
	"fmt"
	"strconv"

	"github.com/crucial707/messagely/cmd/cli/api"
	"github.com/crucial707/messagely/cmd/cli/config"
	"github.com/crucial707/messagely/cmd/cli/output"
	"github.com/crucial707/messagely/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Messages
// ==========================
func InitMessages(rootCmd *cobra.Command) {
	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "Send and read messages",
	}

	messagesCmd.AddCommand(
		sendCmd(),
		showCmd(),
		readCmd(),
	)

	rootCmd.AddCommand(messagesCmd)
}

// ==========================
// SEND
// ==========================
func sendCmd() *cobra.Command {
	var to, body string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message as the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return err
			}
			from, err := api.CurrentUser(token)
			if err != nil {
				return err
			}

			var msg models.Message
			payload := models.NewMessage{FromUsername: from, ToUsername: to, Body: body}
			if err := api.Call("POST", "/messages", token, payload, &msg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Message %d sent to %s.\n", msg.ID, msg.ToUsername)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient username")
	cmd.Flags().StringVar(&body, "body", "", "message text")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

// ==========================
// SHOW
// ==========================
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a message you sent or received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, id, err := tokenAndID(args[0])
			if err != nil {
				return err
			}

			var resp struct {
				Message models.MessageDetail `json:"message"`
			}
			if err := api.Call("GET", "/messages/"+id, token, nil, &resp); err != nil {
				return err
			}
			return output.RenderJSON(cmd.OutOrStdout(), resp.Message)
		},
	}
}

// ==========================
// READ
// ==========================
func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a message sent to you as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, id, err := tokenAndID(args[0])
			if err != nil {
				return err
			}

			var resp struct {
				Message models.ReadReceipt `json:"message"`
			}
			if err := api.Call("POST", "/messages/"+id+"/read", token, nil, &resp); err != nil {
				return err
			}

			if resp.Message.ReadAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Message %d marked read at %s.\n",
					resp.Message.ID, resp.Message.ReadAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Message %d marked read.\n", resp.Message.ID)
			}
			return nil
		},
	}
}

func tokenAndID(arg string) (string, string, error) {
	if _, err := strconv.ParseInt(arg, 10, 32); err != nil {
		return "", "", fmt.Errorf("invalid message id %q", arg)
	}
	token, err := config.LoadToken()
	if err != nil {
		return "", "", err
	}
	return token, arg, nil
}
