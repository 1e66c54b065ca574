package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"contentproc/internal/logger"
)

// rootCmd is the base command, grounded on the teacher's cmd/cmd
// root.go (a bare cobra.Command whose subcommands carry all real
// behavior) and cmd/handlers/serve.go (the serve subcommand's
// flag/RunE shape).
var rootCmd = &cobra.Command{
	Use:   "processingd",
	Short: "Content processing service: crawl, summarize, generate Q&A, embed, and serve over HTTP.",
}

func main() {
	logger.Init()
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newHealthcheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
