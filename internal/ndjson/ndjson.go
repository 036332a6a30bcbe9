// Package ndjson implements newline-delimited JSON framing over byte streams.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// Reader reads newline-delimited JSON values from an underlying stream.
// Blank lines are skipped; there is no upper bound on line length, since
// agent CLIs can emit very large single-line payloads.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates a Reader wrapping r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next non-empty line with trailing CR/LF removed.
// It returns io.EOF once the stream is exhausted. A final line without a
// trailing newline is still returned before EOF.
func (r *Reader) ReadLine() ([]byte, error) {
	for {
		line, err := r.br.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 {
			return line, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Writer writes newline-delimited JSON values to an underlying stream.
// It is safe for concurrent use.
type Writer struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriter creates a Writer wrapping w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRaw writes a single pre-encoded JSON value followed by a newline.
// The value must not contain embedded newlines.
func (w *Writer) WriteRaw(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.Write(line); err != nil {
		return err
	}
	_, err := w.w.Write([]byte{'\n'})
	return err
}

// Write marshals v and writes it as a single line.
func (w *Writer) Write(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteRaw(b)
}
