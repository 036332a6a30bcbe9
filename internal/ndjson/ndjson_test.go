package ndjson

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestReader_SkipsBlankLines(t *testing.T) {
	input := "{\"a\":1}\n\n\n{\"b\":2}\n"
	r := NewReader(strings.NewReader(input))

	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != `{"a":1}` {
		t.Errorf("expected first line, got %q", line)
	}

	line, err = r.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != `{"b":2}` {
		t.Errorf("expected second line, got %q", line)
	}

	if _, err = r.ReadLine(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReader_TrimsCRLF(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\r\n"))

	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != `{"a":1}` {
		t.Errorf("expected CR stripped, got %q", line)
	}
}

func TestReader_FinalLineWithoutNewline(t *testing.T) {
	r := NewReader(strings.NewReader(`{"a":1}`))

	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != `{"a":1}` {
		t.Errorf("expected final partial line, got %q", line)
	}

	if _, err = r.ReadLine(); err != io.EOF {
		t.Errorf("expected io.EOF after final line, got %v", err)
	}
}

func TestReader_LongLine(t *testing.T) {
	// Longer than the initial buffer size to exercise growth.
	payload := `{"data":"` + strings.Repeat("x", 256*1024) + `"}`
	r := NewReader(strings.NewReader(payload + "\n"))

	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(line) != len(payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), len(line))
	}
}

func TestWriter_WriteRaw(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteRaw([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteRaw([]byte(`{"b":2}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "{\"a\":1}\n{\"b\":2}\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "{\"a\":1}\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	lines := []string{`{"type":"system"}`, `{"type":"result"}`}
	for _, l := range lines {
		if err := w.WriteRaw([]byte(l)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	r := NewReader(&buf)
	for i, want := range lines {
		got, err := r.ReadLine()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("line %d: expected %q, got %q", i, want, got)
		}
	}
}
