package auth

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/crucial707/messagely/cmd/cli/api"
	"github.com/crucial707/messagely/cmd/cli/config"
	"github.com/crucial707/messagely/internal/models"
	"github.com/spf13/cobra"
)

// InitAuth registers register, login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd())
}

type tokenResponse struct {
	Token string `json:"token"`
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var reg models.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.Password == "" {
				p, err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return err
				}
				reg.Password = p
			}

			var resp tokenResponse
			if err := api.Call("POST", "/register", "", reg, &resp); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			if err := saveToken(resp.Token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Token stored locally.\n", reg.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.Username, "username", "", "username")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a token for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return err
				}
				password = p
			}

			var resp tokenResponse
			payload := map[string]string{"username": username, "password": password}
			if err := api.Call("POST", "/login", "", payload, &resp); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := saveToken(resp.Token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func saveToken(token string) error {
	if token == "" {
		return fmt.Errorf("server returned no token")
	}
	if err := config.SaveToken(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
