// Package session consumes the event stream of an agent CLI run in one-shot
// streaming mode. A Session owns the CLI subprocess and a single read loop; a
// Consumer classifies each parsed message, tracks tool usage and cost, and
// decides the run's one terminal Outcome.
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/bazelment/agenttap/protocol"
)

// Session manages a one-shot interaction with the agent CLI.
type Session struct {
	events   chan Event
	consumer *Consumer
	process  *processManager
	recorder *sessionRecorder
	log      *slog.Logger
	done     chan struct{}
	complete chan struct{}
	config   Config
	prompt   string
	mu       sync.RWMutex
	doneOnce sync.Once
	started  bool
	stopped  bool
}

// New creates a session for the given prompt. Nothing runs until Start.
func New(prompt string, opts ...Option) *Session {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Session{
		prompt:   prompt,
		config:   config,
		log:      log,
		consumer: newConsumer(config),
		events:   make(chan Event, config.EventBufferSize),
		done:     make(chan struct{}),
		complete: make(chan struct{}),
	}
}

// Start spawns the CLI process and begins reading its stream. The context
// bounds the whole run: cancelling it kills the process, which ends the read
// loop between events.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.stopped {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	if s.config.RecordMessages {
		recorder, err := newSessionRecorder(s.config.RecordingDir)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.recorder = recorder
	}

	s.process = newProcessManager(s.prompt, s.config)
	if err := s.process.Start(ctx); err != nil {
		if s.recorder != nil {
			s.recorder.Close()
		}
		s.mu.Unlock()
		return err
	}

	go s.readLoop(ctx)

	if s.config.StderrHandler != nil {
		go s.stderrLoop()
	}

	s.started = true
	s.mu.Unlock()

	s.log.Debug("session started", "model", s.config.Model, "max_turns", s.config.MaxTurns)
	return nil
}

// Events returns a read-only channel for receiving events. The channel is
// closed by Stop. Events may be dropped if the buffer fills; the Outcome is
// never lost, use Wait or Outcome for it.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Wait blocks until the session's outcome is decided or ctx is done. In-stream
// failures (protocol violations, schema violations, upstream errors, limits)
// come back inside the Outcome, not as a Go error; the error return is for
// conditions outside the stream, like cancellation.
func (s *Session) Wait(ctx context.Context) (*Outcome, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.complete:
		outcome, _ := s.consumer.Outcome()
		return outcome, nil
	}
}

// Outcome returns the final outcome once it has been decided.
func (s *Session) Outcome() (*Outcome, bool) {
	return s.consumer.Outcome()
}

// Info returns session metadata, or nil before the init message.
func (s *Session) Info() *Info {
	return s.consumer.Info()
}

// Tools returns the tool usage log, safe to read mid-stream.
func (s *Session) Tools() *ToolLog {
	return s.consumer.Tools()
}

// Snapshot returns a point-in-time view of session progress.
func (s *Session) Snapshot() Snapshot {
	return s.consumer.Snapshot()
}

// RecordingPath returns the transcript file path, or "" when recording is off.
func (s *Session) RecordingPath() string {
	if s.recorder == nil {
		return ""
	}
	return s.recorder.Path()
}

// CLIArgs returns the CLI arguments the session spawns (or spawned) the
// process with. Useful for debugging flag composition before Start.
func (s *Session) CLIArgs() ([]string, error) {
	pm := newProcessManager(s.prompt, s.config)
	return pm.BuildCLIArgs()
}

// Stop shuts the session down: terminates the process, decides the outcome if
// the stream never did, and closes the event channel. Idempotent; safe on
// every exit path.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.stopped = true
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)

	if s.process != nil {
		s.process.Stop()
	}

	// A session stopped before its terminal result is a premature close; the
	// events cannot be delivered at this point, only the outcome.
	s.consumer.FinishStream()
	s.noteDone()

	if s.recorder != nil {
		s.recorder.Close()
	}

	close(s.events)
	return nil
}

// readLoop reads NDJSON lines from the CLI and feeds the consumer. It exits
// on terminal outcome, source close, read error, cancellation, or Stop. The
// only suspension point is ReadLine; cancellation kills the process, which
// unblocks it.
func (s *Session) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
			line, err := s.process.ReadLine()
			if err != nil {
				if err == io.EOF {
					s.emitAll(s.consumer.FinishStream())
					s.noteDone()
					return
				}
				if !s.isStopped() {
					s.emit(ErrorEvent{Error: err, Context: "read_line"})
					s.emitAll(s.consumer.Abort(FailureStreamClosed, err, "transport error"))
					s.noteDone()
				}
				return
			}

			s.handleLine(line)

			if s.consumer.Done() {
				// Outcome decided (terminal result, limit, or fatal violation):
				// tear the process down instead of draining the source.
				s.noteDone()
				s.Stop()
				return
			}
		}
	}
}

// stderrLoop forwards CLI stderr to the configured handler.
func (s *Session) stderrLoop() {
	stderr := s.process.Stderr()
	if stderr == nil {
		return
	}

	buf := make([]byte, 4096)
	for {
		select {
		case <-s.done:
			return
		default:
			n, err := stderr.Read(buf)
			if err != nil {
				return
			}
			if n > 0 && s.config.StderrHandler != nil {
				s.config.StderrHandler(buf[:n])
			}
		}
	}
}

// handleLine records, parses, and feeds a single NDJSON line.
func (s *Session) handleLine(line []byte) {
	// Record raw line before parsing — preserves unknown message types.
	if s.recorder != nil {
		s.recorder.RecordReceived(line)
	}

	msg, err := protocol.ParseMessage(line)
	if err != nil {
		perr := &ProtocolError{
			Message: "failed to parse message",
			Line:    string(line),
			Cause:   err,
		}
		s.emit(ErrorEvent{Error: perr, Context: "parse_message"})
		s.emitAll(s.consumer.Abort(FailureProtocol, perr, "unparseable line"))
		return
	}

	if msg == nil {
		return // unknown type — already recorded above
	}

	events, err := s.consumer.Feed(msg)
	if err != nil {
		s.emit(ErrorEvent{Error: err, Context: "classify_message"})
	}
	s.emitAll(events)
}

// noteDone unblocks Wait once the consumer's outcome is decided.
func (s *Session) noteDone() {
	if !s.consumer.Done() {
		return
	}
	s.doneOnce.Do(func() { close(s.complete) })
}

// emit sends an event to the events channel. Events are dropped once the
// session is stopping or when the buffer is full.
func (s *Session) emit(event Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- event:
	case <-s.done:
	default:
		// Channel full, drop event
	}
}

func (s *Session) emitAll(events []Event) {
	for _, event := range events {
		s.emit(event)
	}
}

// isStopped returns whether the session has been stopped.
func (s *Session) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}
