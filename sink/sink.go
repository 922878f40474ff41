// Package sink delivers encoded record lines to their destination. Every
// destination receives exactly one line per call to Append; framing (the
// trailing newline) is owned by the sink so callers never split a record
// across writes.
package sink

import (
	"fmt"
	"io"
)

// Sink appends one encoded record line to a destination. Implementations must
// treat line as a complete record without a trailing newline.
type Sink interface {
	Append(line []byte) error
}

// Stream writes lines to a caller-supplied writer. No locking is added beyond
// what the writer itself guarantees; serializing concurrent writers to a
// shared stream is the caller's responsibility.
type Stream struct {
	w io.Writer
}

// NewStream creates a Sink around an already-open writer.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// Append implements Sink.
func (s *Stream) Append(line []byte) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write record to stream: %w", err)
	}
	return nil
}
