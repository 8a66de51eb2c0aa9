// dailyfixctl is the operator CLI: seed trust data, trigger syncs,
// import mbox archives, inspect messages and drive the task lifecycle.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dailyfixctl",
		Short:         "Operate the dailyfix triage service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSyncCmd(),
		newUserCmd(),
		newSenderCmd(),
		newWhitelistCmd(),
		newImportCmd(),
		newTasksCmd(),
		newMessagesCmd(),
		newReprocessCmd(),
		newInteractionCmd(),
		newReplyCmd(),
		newOutboxCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
