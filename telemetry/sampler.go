// Package telemetry runs the background sampler that snapshots process state
// while a wrapped call is in flight. One sampler serves exactly one call: it
// is started at pre-run, stopped at post-run, and joined with a bounded wait
// so slow teardown can never hang a benchmark.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/upb/microbench/models"
)

// Defaults for the sampler configuration.
const (
	DefaultInterval    = 60 * time.Second
	DefaultJoinTimeout = 30 * time.Second
)

// ErrJoinTimeout is returned by Join when the sampler goroutine does not stop
// within the configured timeout. The samples collected so far remain valid.
var ErrJoinTimeout = errors.New("telemetry sampler did not stop within timeout")

// SampleFunc produces one telemetry snapshot. It receives a handle to the
// current process and returns the fields to store alongside the sample
// timestamp. An error is treated as the terminal failure of the whole
// benchmarked call.
type SampleFunc func(proc *process.Process) (map[string]any, error)

// Config holds the sampler configuration attached to a pipeline.
type Config struct {
	Sample      SampleFunc
	Interval    time.Duration // default DefaultInterval
	JoinTimeout time.Duration // default DefaultJoinTimeout
}

// State is the sampler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Sampler collects timestamped snapshots on a dedicated goroutine. The sample
// slice is owned by the sampler while running and handed off through Join once
// stopped; no other component reads it concurrently.
type Sampler struct {
	cfg    Config
	proc   *process.Process
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	samples []models.Sample
	err     error

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSampler creates a sampler for the current process. A nil logger is
// replaced with a no-op logger.
func NewSampler(cfg Config, logger *zap.Logger) (*Sampler, error) {
	if cfg.Sample == nil {
		return nil, fmt.Errorf("telemetry sampling function is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current process handle: %w", err)
	}

	return &Sampler{
		cfg:    cfg,
		proc:   proc,
		logger: logger,
		state:  StateIdle,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start takes one sample synchronously, so even a call faster than the
// interval yields at least one data point, then launches the background loop.
// A sampling error during the first sample fails the start.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("sampler already started (state %s)", s.state)
	}
	s.state = StateRunning
	s.mu.Unlock()

	if err := s.takeSample(); err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.err = err
		s.mu.Unlock()
		close(s.doneCh)
		return err
	}

	go s.loop(ctx)
	return nil
}

func (s *Sampler) loop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		// A pending tick must not win over a stop already requested.
		select {
		case <-s.stopCh:
			s.finish()
			return
		default:
		}

		select {
		case <-ticker.C:
			if err := s.takeSample(); err != nil {
				s.mu.Lock()
				s.err = err
				s.state = StateStopped
				s.mu.Unlock()
				return
			}
		case <-s.stopCh:
			s.finish()
			return
		case <-ctx.Done():
			s.finish()
			return
		case <-interruptCh():
			s.logger.Warn("telemetry sampler stopping on process interrupt")
			s.finish()
			return
		}
	}
}

func (s *Sampler) finish() {
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
}

func (s *Sampler) takeSample() error {
	fields, err := s.cfg.Sample(s.proc)
	if err != nil {
		return fmt.Errorf("telemetry sampling function failed: %w", err)
	}

	s.mu.Lock()
	s.samples = append(s.samples, models.Sample{
		Timestamp: time.Now(),
		Fields:    fields,
	})
	s.mu.Unlock()
	return nil
}

// Stop requests the sampler to stop. The sampler never takes another sample
// once stop is requested; a sample already in progress completes. Safe to call
// more than once.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.state == StateRunning {
			s.state = StateStopping
		}
		s.mu.Unlock()
		close(s.stopCh)
	})
}

// Join waits for the sampler goroutine to finish, bounded by the configured
// join timeout, and hands off the collected samples. On timeout it returns
// whatever samples exist along with ErrJoinTimeout; the benchmark completes
// either way. A sampling-function failure is returned as a distinct error.
func (s *Sampler) Join() ([]models.Sample, error) {
	timer := time.NewTimer(s.cfg.JoinTimeout)
	defer timer.Stop()

	select {
	case <-s.doneCh:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.err != nil {
			return s.samples, s.err
		}
		return s.samples, nil
	case <-timer.C:
		s.mu.Lock()
		defer s.mu.Unlock()
		snapshot := make([]models.Sample, len(s.samples))
		copy(snapshot, s.samples)
		s.logger.Warn("telemetry sampler join timed out",
			zap.Duration("timeout", s.cfg.JoinTimeout),
			zap.Int("samples", len(snapshot)))
		return snapshot, ErrJoinTimeout
	}
}
