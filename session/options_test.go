package session

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bazelment/agenttap/contract"
)

func TestDefaultConfig(t *testing.T) {
	s := New("test prompt")
	assert.Equal(t, "test prompt", s.prompt)
	assert.Equal(t, "sonnet", s.config.Model)
	assert.Equal(t, 100, s.config.EventBufferSize)
	assert.Equal(t, ".agenttap-sessions", s.config.RecordingDir)
	assert.Zero(t, s.config.MaxTurns)
	assert.False(t, s.config.RecordMessages)
	assert.Nil(t, s.config.Contract)
}

func TestOptions(t *testing.T) {
	ct := contract.New("x", []byte(`{"type":"object"}`))
	logger := slog.Default()

	s := New("test",
		WithModel("opus"),
		WithWorkDir("/tmp/proj"),
		WithCLIPath("/usr/local/bin/claude"),
		WithSystemPrompt("be terse"),
		WithAllowedTools("Read", "Glob"),
		WithAllowedTools("Grep"),
		WithMaxTurns(12),
		WithContract(ct),
		WithSubAgents(SubAgent{Name: "scanner", Description: "d", Prompt: "p"}),
		WithEnv(map[string]string{"FOO": "1"}),
		WithEnv(map[string]string{"BAR": "2"}),
		WithEventBufferSize(5),
		WithLogger(logger),
		WithRecording("/tmp/rec"),
		WithExtraArgs("--debug"),
	)

	assert.Equal(t, "opus", s.config.Model)
	assert.Equal(t, "/tmp/proj", s.config.WorkDir)
	assert.Equal(t, "/usr/local/bin/claude", s.config.CLIPath)
	assert.Equal(t, "be terse", s.config.SystemPrompt)
	assert.Equal(t, []string{"Read", "Glob", "Grep"}, s.config.AllowedTools)
	assert.Equal(t, 12, s.config.MaxTurns)
	assert.Same(t, ct, s.config.Contract)
	assert.Len(t, s.config.SubAgents, 1)
	assert.Equal(t, map[string]string{"FOO": "1", "BAR": "2"}, s.config.Env)
	assert.Equal(t, 5, s.config.EventBufferSize)
	assert.Same(t, logger, s.config.Logger)
	assert.True(t, s.config.RecordMessages)
	assert.Equal(t, "/tmp/rec", s.config.RecordingDir)
	assert.Equal(t, []string{"--debug"}, s.config.ExtraArgs)
}

func TestWithRecording_KeepsDefaultDir(t *testing.T) {
	s := New("test", WithRecording(""))
	assert.True(t, s.config.RecordMessages)
	assert.Equal(t, ".agenttap-sessions", s.config.RecordingDir)
}
