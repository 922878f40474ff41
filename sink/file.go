package sink

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// File appends records to a file path. The file is opened with O_APPEND and
// the whole line (newline included) is issued as a single write, then closed,
// so concurrent pipeline invocations targeting the same path never interleave
// mid-line.
type File struct {
	path   string
	logger *zap.Logger
}

// NewFile creates a file sink for path. The file is created on first append.
func NewFile(path string, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{path: path, logger: logger}
}

// Path returns the destination path.
func (f *File) Path() string {
	return f.path
}

// Append implements Sink. Open/write/close happen as one unit per record.
func (f *File) Append(line []byte) error {
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open results file %s: %w", f.path, err)
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := fh.Write(buf); err != nil {
		fh.Close()
		return fmt.Errorf("failed to append record to %s: %w", f.path, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("failed to close results file %s: %w", f.path, err)
	}

	f.logger.Debug("record appended", zap.String("path", f.path), zap.Int("bytes", len(buf)))
	return nil
}
