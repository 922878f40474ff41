package bench

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"runtime/pprof"
	"sync"
)

// The runtime supports one active CPU profile per process; profiled-mode calls
// are serialized here so concurrent pipelines do not race for it.
var profileMu sync.Mutex

// runProfiled executes one call under the CPU profiler and returns the profile
// as an encoded blob alongside the call's result.
func (p *Pipeline) runProfiled(ctx context.Context, call func(context.Context) (any, error)) (string, any, error) {
	profileMu.Lock()
	defer profileMu.Unlock()

	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err != nil {
		return "", nil, NewBenchError(ErrorTypeConfiguration,
			"failed to start CPU profiler", err)
	}

	result, fnErr := call(ctx)
	pprof.StopCPUProfile()

	blob, err := encodeProfile(buf.Bytes())
	if err != nil {
		// The call itself succeeded; losing the profile is reported, not fatal.
		p.logger.Warn("failed to encode CPU profile")
		return "", result, fnErr
	}
	return blob, result, fnErr
}

// encodeProfile compresses raw pprof data and wraps it in base64 so the
// profile travels inside a JSON record as an opaque string.
func encodeProfile(raw []byte) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("failed to compress profile: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress profile: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeProfile reverses the encoding applied by profiled mode, returning the
// raw pprof protobuf bytes for use with `go tool pprof`.
func DecodeProfile(blob string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile blob: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress profile blob: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress profile blob: %w", err)
	}
	return raw, nil
}
