package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRecorder_WritesRawLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")

	rec, err := newSessionRecorder(dir)
	require.NoError(t, err)

	rec.RecordReceived([]byte(`{"type":"system","subtype":"init","session_id":"s1"}`))
	rec.RecordReceived([]byte(`{"type":"unknown_future_kind","payload":1}`))
	require.NoError(t, rec.Close())

	assert.True(t, strings.HasSuffix(rec.Path(), ".ndjson"))
	assert.Equal(t, dir, filepath.Dir(rec.Path()))

	data, err := os.ReadFile(rec.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"init"`)
	assert.Contains(t, lines[1], "unknown_future_kind", "raw lines survive even for unparseable kinds")
}

func TestSessionRecorder_CloseIsIdempotentAndStopsWrites(t *testing.T) {
	rec, err := newSessionRecorder(t.TempDir())
	require.NoError(t, err)

	rec.RecordReceived([]byte(`{"a":1}`))
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	// Writes after close are silently dropped.
	rec.RecordReceived([]byte(`{"b":2}`))

	data, err := os.ReadFile(rec.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))
}

func TestSessionRecorder_DistinctFilesPerSession(t *testing.T) {
	dir := t.TempDir()

	a, err := newSessionRecorder(dir)
	require.NoError(t, err)
	b, err := newSessionRecorder(dir)
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	assert.NotEqual(t, a.Path(), b.Path())
}
