package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/retain/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌┬┐┌─┐┬┌┐┌
  ├┬┘├┤  │ ├─┤││││
  ┴└─└─┘ ┴ ┴ ┴┴┘└┘
`

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "retain",
		Short: "A retained-mode reconciliation engine",
		Long: `Retain keeps a virtual tree of element types in sync with a native
element tree, touching only the native elements whose properties changed.

Commands in this binary drive the engine against an in-memory host:

  • demo: mount the demo types and print the native tree
  • serve: run the engine behind the HTTP/WebSocket inspector
  • snapshot: decode a persisted snapshot from the configured store
  • bench: measure reconcile and paint cost`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to retain.yaml (default ./retain.yaml)")

	rootCmd.AddCommand(
		initCmd(&configPath),
		demoCmd(),
		serveCmd(&configPath),
		snapshotCmd(&configPath),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
