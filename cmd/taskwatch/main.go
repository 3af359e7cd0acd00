package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskwatch",
		Short: "Watch and probe a tasksync server",
		Long: `taskwatch connects to a tasksync server from the terminal.

It can follow task changes live, reconnecting whenever the connection
drops, and fire recorded API probes at the server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(probeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
