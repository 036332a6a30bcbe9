package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/bazelment/agenttap/internal/ndjson"
)

// sessionRecorder appends the raw NDJSON transcript to a per-session file so
// runs can be replayed and inspected offline. Lines are recorded before
// parsing, so a transcript survives even when a line fails to parse.
type sessionRecorder struct {
	path   string
	file   *os.File
	writer *ndjson.Writer
	mu     sync.Mutex
	closed bool
}

func newSessionRecorder(dir string) (*sessionRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+".ndjson")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}

	return &sessionRecorder{
		path:   path,
		file:   file,
		writer: ndjson.NewWriter(file),
	}, nil
}

// RecordReceived appends one raw line received from the CLI. Write failures
// disable further recording rather than disturb the session.
func (r *sessionRecorder) RecordReceived(line []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.writer == nil {
		return
	}
	if err := r.writer.WriteRaw(line); err != nil {
		r.writer = nil
	}
}

// Path returns the transcript file path.
func (r *sessionRecorder) Path() string {
	return r.path
}

// Close flushes and closes the transcript file.
func (r *sessionRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.writer = nil
	return r.file.Close()
}
