package users

import (
	"net/url"
	"time"

	"github.com/crucial707/messagely/cmd/cli/api"
	"github.com/crucial707/messagely/cmd/cli/config"
	"github.com/crucial707/messagely/cmd/cli/output"
	"github.com/crucial707/messagely/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// CLI Command Init
// ==========================
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Browse users and their mailboxes",
	}

	usersCmd.AddCommand(
		listUsersCmd(),
		showUserCmd(),
		inboxCmd(),
		outboxCmd(),
	)

	rootCmd.AddCommand(usersCmd)
}

// ==========================
// LIST
// ==========================
func listUsersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			var resp struct {
				Users []models.UserSummary `json:"users"`
			}
			if err := api.Call("GET", "/users", token, nil, &resp); err != nil {
				return err
			}

			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), resp.Users)
			}

			rows := make([][]interface{}, 0, len(resp.Users))
			for _, u := range resp.Users {
				rows = append(rows, []interface{}{u.Username, u.FirstName, u.LastName, u.Phone})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Username", "First Name", "Last Name", "Phone"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// SHOW
// ==========================
func showUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [username]",
		Short: "Show a user's profile (your own by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, username, err := identity(args)
			if err != nil {
				return err
			}

			var resp struct {
				User models.User `json:"user"`
			}
			if err := api.Call("GET", "/users/"+url.PathEscape(username), token, nil, &resp); err != nil {
				return err
			}
			return output.RenderJSON(cmd.OutOrStdout(), resp.User)
		},
	}
}

// ==========================
// INBOX / OUTBOX
// ==========================
func inboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox [username]",
		Short: "List messages sent to you",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, username, err := identity(args)
			if err != nil {
				return err
			}

			var resp struct {
				Messages []models.InboxMessage `json:"messages"`
			}
			if err := api.Call("GET", "/users/"+url.PathEscape(username)+"/to", token, nil, &resp); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(resp.Messages))
			for _, m := range resp.Messages {
				rows = append(rows, []interface{}{m.ID, m.FromUser.Username, m.Body, formatSent(m.SentAt), readMark(m.ReadAt != nil)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "From", "Body", "Sent", "Read"}, rows)
			return nil
		},
	}
}

func outboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outbox [username]",
		Short: "List messages you have sent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, username, err := identity(args)
			if err != nil {
				return err
			}

			var resp struct {
				Messages []models.OutboxMessage `json:"messages"`
			}
			if err := api.Call("GET", "/users/"+url.PathEscape(username)+"/from", token, nil, &resp); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(resp.Messages))
			for _, m := range resp.Messages {
				rows = append(rows, []interface{}{m.ID, m.ToUser.Username, m.Body, formatSent(m.SentAt), readMark(m.ReadAt != nil)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "To", "Body", "Sent", "Read"}, rows)
			return nil
		},
	}
}

// identity returns the saved token and the username to act on: args[0] when
// given, otherwise the token's own username.
func identity(args []string) (string, string, error) {
	token, err := config.LoadToken()
	if err != nil {
		return "", "", err
	}
	if len(args) == 1 {
		return token, args[0], nil
	}
	username, err := api.CurrentUser(token)
	if err != nil {
		return "", "", err
	}
	return token, username, nil
}

func readMark(read bool) string {
	if read {
		return "yes"
	}
	return "no"
}

func formatSent(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
