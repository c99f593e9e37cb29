package main

import (
	"fmt"
	"os"

	"github.com/crucial707/messagely/cmd/cli/auth"
	"github.com/crucial707/messagely/cmd/cli/messages"
	"github.com/crucial707/messagely/cmd/cli/root"
	"github.com/crucial707/messagely/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	users.InitUsers(rootCmd)
	messages.InitMessages(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
