package session

import (
	"log/slog"

	"github.com/bazelment/agenttap/contract"
)

// Config holds session configuration.
type Config struct {
	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// StderrHandler is an optional handler for CLI stderr output.
	StderrHandler func([]byte)

	// Contract, when set, requires the terminal payload to carry structured
	// output satisfying it. A missing or invalid payload turns an otherwise
	// successful session into a schema failure.
	Contract *contract.Contract

	// Env adds environment variables for the CLI process.
	Env map[string]string

	// Model to use: "haiku", "sonnet", "opus".
	Model string

	// WorkDir is the working directory for the CLI process.
	WorkDir string

	// CLIPath is the path to the agent CLI binary (uses "claude" in PATH if empty).
	CLIPath string

	// SystemPrompt overrides the default system prompt.
	SystemPrompt string

	// RecordingDir is the directory for raw transcript recordings.
	RecordingDir string

	// AllowedTools restricts which tools the agent may invoke. Invocations
	// outside this set (and outside the init-declared tool list) are flagged
	// as warnings, never rejected.
	AllowedTools []string

	// SubAgents are delegate definitions forwarded to the CLI.
	SubAgents []SubAgent

	// ExtraArgs are appended to the CLI invocation verbatim (escape hatch).
	ExtraArgs []string

	// MaxTurns bounds tool invocations per session. When a recorded
	// invocation pushes the count past this limit before a terminal message,
	// the session fails fast instead of waiting for the service-side cap.
	// Zero means unlimited.
	MaxTurns int

	// EventBufferSize is the event channel buffer size (default: 100).
	EventBufferSize int

	// RecordMessages enables raw transcript recording.
	RecordMessages bool
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithModel sets the model to use.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithWorkDir sets the working directory.
func WithWorkDir(dir string) Option {
	return func(c *Config) {
		c.WorkDir = dir
	}
}

// WithCLIPath sets a custom CLI binary path.
func WithCLIPath(path string) Option {
	return func(c *Config) {
		c.CLIPath = path
	}
}

// WithSystemPrompt sets a custom system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) {
		c.SystemPrompt = prompt
	}
}

// WithEnv adds environment variables for the CLI process.
func WithEnv(env map[string]string) Option {
	return func(c *Config) {
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.Env[k] = v
		}
	}
}

// WithAllowedTools restricts the tools the agent may invoke.
func WithAllowedTools(tools ...string) Option {
	return func(c *Config) {
		c.AllowedTools = append(c.AllowedTools, tools...)
	}
}

// WithMaxTurns bounds tool invocations per session.
func WithMaxTurns(n int) Option {
	return func(c *Config) {
		c.MaxTurns = n
	}
}

// WithContract requires the terminal payload to satisfy a structured-output
// contract.
func WithContract(ct *contract.Contract) Option {
	return func(c *Config) {
		c.Contract = ct
	}
}

// WithSubAgents declares delegate agents available to the session.
func WithSubAgents(agents ...SubAgent) Option {
	return func(c *Config) {
		c.SubAgents = append(c.SubAgents, agents...)
	}
}

// WithEventBufferSize sets the event channel buffer size.
func WithEventBufferSize(size int) Option {
	return func(c *Config) {
		c.EventBufferSize = size
	}
}

// WithStderrHandler sets a handler for CLI stderr output.
func WithStderrHandler(h func([]byte)) Option {
	return func(c *Config) {
		c.StderrHandler = h
	}
}

// WithLogger sets the structured logger for session diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithRecording enables raw transcript recording.
func WithRecording(dir string) Option {
	return func(c *Config) {
		c.RecordMessages = true
		if dir != "" {
			c.RecordingDir = dir
		}
	}
}

// WithExtraArgs appends raw CLI arguments.
func WithExtraArgs(args ...string) Option {
	return func(c *Config) {
		c.ExtraArgs = append(c.ExtraArgs, args...)
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Model:           "sonnet",
		EventBufferSize: 100,
		RecordingDir:    ".agenttap-sessions",
	}
}
