package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazelment/agenttap/logging"
	"github.com/bazelment/agenttap/review"
	"github.com/bazelment/agenttap/session"
)

type reviewFlags struct {
	goal        string
	model       string
	minSeverity string
	maxTurns    int
	timeout     time.Duration
	verbose     bool
	noColor     bool
}

func newReviewCmd() *cobra.Command {
	flags := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "review [flags] [dir]",
		Short: "Run a structured code review with a schema-validated report",
		Long: `Review runs an agent session that must answer with a JSON report of
severity-ranked issues. The payload is validated against the report contract;
a success that fails validation counts as a session failure.`,
		Example: `  agenttap review --goal "Harden the login flow"
  agenttap review --min-severity high --model opus ./service`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runReview(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.goal, "goal", "", "Review goal (default: infer from branch)")
	cmd.Flags().StringVar(&flags.model, "model", "sonnet", "Model to use: haiku, sonnet, opus")
	cmd.Flags().IntVar(&flags.maxTurns, "max-turns", 50, "Max tool invocations before the session fails")
	cmd.Flags().StringVar(&flags.minSeverity, "min-severity", "high", "Lowest severity that fails the review: critical, high, medium, low")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Show tool invocations as they happen")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable ANSI colors")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Minute, "Review timeout")

	return cmd
}

func runReview(cmd *cobra.Command, args []string, flags *reviewFlags) {
	checkCredential()

	minSeverity, ok := review.ParseSeverity(flags.minSeverity)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown severity %q (supported: critical, high, medium, low)\n", flags.minSeverity)
		os.Exit(exitUsage)
	}

	opts := []session.Option{
		session.WithModel(flags.model),
		session.WithWorkDir(resolveWorkDir(args)),
		session.WithMaxTurns(flags.maxTurns),
		session.WithContract(review.ReportContract()),
		session.WithLogger(logging.New("review", logging.Level(flags.verbose))),
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, flags.timeout)
	defer timeoutCancel()

	outcome := streamSession(ctx, review.BuildPrompt(flags.goal), flags.verbose, flags.noColor, opts)
	if !outcome.Success() {
		fmt.Fprintf(os.Stderr, "Review failed: %v\n", outcome.Err())
		os.Exit(exitFailure)
	}

	// The contract already held during finalization; ParseReport re-decodes
	// into the typed report and orders issues most severe first.
	report, err := review.ParseReport(outcome.Structured)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding report: %v\n", err)
		os.Exit(exitFailure)
	}

	printReport(report)

	if report.HasBlocking(minSeverity) {
		fmt.Fprintf(os.Stderr, "\nReview gate failed: issues at or above %s severity\n", minSeverity)
		os.Exit(exitFailure)
	}
	os.Exit(exitOK)
}

// printReport prints the review findings grouped by severity.
func printReport(report review.Report) {
	fmt.Printf("\n=== Review Report (score %.1f/10) ===\n", report.OverallScore)
	if report.Summary != "" {
		fmt.Println(report.Summary)
	}

	if len(report.Issues) == 0 {
		fmt.Println("\nNo issues found.")
		return
	}

	counts := review.CountBySeverity(report.Issues)
	fmt.Printf("\n%d issue(s): %d critical, %d high, %d medium, %d low\n",
		len(report.Issues),
		counts[review.SeverityCritical], counts[review.SeverityHigh],
		counts[review.SeverityMedium], counts[review.SeverityLow])

	for _, issue := range report.Issues {
		location := issue.File
		if issue.Line > 0 {
			location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
		fmt.Printf("\n[%s] %s\n  %s\n", issue.Severity, location, issue.Message)
		if issue.Suggestion != "" {
			fmt.Printf("  Suggestion: %s\n", issue.Suggestion)
		}
	}
}
