package sink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamAppendsNewlineFramedLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)

	require.NoError(t, s.Append([]byte(`{"a":1}`)))
	require.NoError(t, s.Append([]byte(`{"b":2}`)))

	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestStreamWriteFailureSurfaces(t *testing.T) {
	s := NewStream(failingWriter{})

	err := s.Append([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
