package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "weather-diary",
		Short:         "Diary service that tags each entry with the day's weather",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := newServeCmd()
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, newRefreshCmd(), newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
