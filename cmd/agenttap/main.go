// Command agenttap drives an agent CLI in one-shot streaming mode and prints
// its progress.
//
// Commands:
//   - run: Run a free-text session and print the streamed response
//   - review: Run a structured code-review session with a validated report
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes: 0 success, 1 session failure, 2 usage errors.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agenttap",
		Short: "Consume an agent CLI's event stream",
		Long: `agenttap spawns an agent CLI in one-shot streaming mode, classifies its
event stream, tracks tool usage and cost, and reports a single outcome.

Use 'run' for a free-text session.
Use 'review' for a structured code review with a schema-validated report.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReviewCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUsage)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	return ctx, cancel
}

// checkCredential fails fast when no API key is available, before spawning
// the CLI.
func checkCredential() {
	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("CLAUDE_CODE_OAUTH_TOKEN") == "" {
		fmt.Fprintln(os.Stderr, "Error: ANTHROPIC_API_KEY is not set")
		os.Exit(exitUsage)
	}
}

// resolveWorkDir picks the optional positional directory argument, defaulting
// to the current directory.
func resolveWorkDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(exitUsage)
	}
	return cwd
}
