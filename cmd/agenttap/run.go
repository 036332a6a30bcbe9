package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazelment/agenttap/logging"
	"github.com/bazelment/agenttap/render"
	"github.com/bazelment/agenttap/session"
)

type runFlags struct {
	prompt       string
	model        string
	agentsFile   string
	recordDir    string
	allowedTools []string
	maxTurns     int
	timeout      time.Duration
	verbose      bool
	noColor      bool
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] [dir]",
		Short: "Run a free-text session and print the streamed response",
		Example: `  agenttap run -p "Summarize this repository"
  agenttap run -p "Find TODOs" --allowed-tools Read,Glob,Grep --max-turns 20 ./src
  agenttap run -p "Audit dependencies" --agents agents.yaml --verbose`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runRun(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.prompt, "prompt", "p", "", "Prompt for the session (required)")
	cmd.Flags().StringVar(&flags.model, "model", "sonnet", "Model to use: haiku, sonnet, opus")
	cmd.Flags().StringSliceVar(&flags.allowedTools, "allowed-tools", nil, "Tools the agent may invoke")
	cmd.Flags().IntVar(&flags.maxTurns, "max-turns", 0, "Max tool invocations before the session fails (0 = unlimited)")
	cmd.Flags().StringVar(&flags.agentsFile, "agents", "", "YAML file declaring sub-agents")
	cmd.Flags().StringVar(&flags.recordDir, "record", "", "Directory for raw transcript recordings")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Show tool invocations as they happen")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable ANSI colors")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Minute, "Session timeout")
	cmd.MarkFlagRequired("prompt")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, flags *runFlags) {
	checkCredential()

	opts := []session.Option{
		session.WithModel(flags.model),
		session.WithWorkDir(resolveWorkDir(args)),
		session.WithLogger(logging.New("session", logging.Level(flags.verbose))),
	}
	if len(flags.allowedTools) > 0 {
		opts = append(opts, session.WithAllowedTools(flags.allowedTools...))
	}
	if flags.maxTurns > 0 {
		opts = append(opts, session.WithMaxTurns(flags.maxTurns))
	}
	if flags.recordDir != "" {
		opts = append(opts, session.WithRecording(flags.recordDir))
	}
	if flags.agentsFile != "" {
		agents, err := session.LoadSubAgents(flags.agentsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading sub-agents: %v\n", err)
			os.Exit(exitUsage)
		}
		opts = append(opts, session.WithSubAgents(agents...))
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, flags.timeout)
	defer timeoutCancel()

	outcome := streamSession(ctx, flags.prompt, flags.verbose, flags.noColor, opts)
	if outcome.Success() {
		os.Exit(exitOK)
	}
	os.Exit(exitFailure)
}

// streamSession runs one session end to end, rendering events as they
// arrive, and returns the decided outcome. Exits on startup failure or
// cancellation.
func streamSession(ctx context.Context, prompt string, verbose, noColor bool, opts []session.Option) *session.Outcome {
	r := render.NewRenderer(os.Stdout, verbose, noColor)

	s := session.New(prompt, opts...)
	if err := s.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting session: %v\n", err)
		os.Exit(exitFailure)
	}
	defer s.Stop()

	// Render in the foreground so the terminal summary is printed before the
	// process exits.
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "Session cancelled")
			os.Exit(exitFailure)
		case event, ok := <-s.Events():
			if ok {
				r.Handle(event)
			}
			outcome, done := s.Outcome()
			if !ok && !done {
				fmt.Fprintln(os.Stderr, "Error: event stream closed without an outcome")
				os.Exit(exitFailure)
			}
			if done && (!ok || event.Type() == session.EventTypeComplete) {
				if path := s.RecordingPath(); path != "" {
					fmt.Fprintf(os.Stderr, "\nSession recorded to: %s\n", path)
				}
				return outcome
			}
		}
	}
}
