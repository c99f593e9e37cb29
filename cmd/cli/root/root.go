package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the top-level "messagely" command.
var RootCmd = &cobra.Command{
	Use:           "messagely",
	Short:         "Messagely CLI",
	Long:          "Command line interface for sending and reading messages through the Messagely API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func GetRoot() *cobra.Command {
	return RootCmd
}
