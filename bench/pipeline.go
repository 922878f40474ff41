// Package bench wraps function calls with the capture-and-emit pipeline: each
// invocation of a wrapped function assembles one record around the timed call,
// runs the configured capture hooks and telemetry sampler, and appends the
// record as a single JSON line to the configured sink. The wrapped function's
// result and error always pass through unchanged.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/upb/microbench/hooks"
	"github.com/upb/microbench/models"
	"github.com/upb/microbench/serializer"
	"github.com/upb/microbench/sink"
	"github.com/upb/microbench/telemetry"
)

// ExecutionMode selects how the wrapped function is invoked.
type ExecutionMode int

const (
	// ModeSingle times one plain call.
	ModeSingle ExecutionMode = iota
	// ModeRepeated calls the function Iterations times, recording a
	// per-iteration duration sequence and returning the last result.
	ModeRepeated
	// ModeProfiled wraps the single call with a CPU profile and stores the
	// profile as an opaque encoded blob.
	ModeProfiled
)

// String returns the mode name.
func (m ExecutionMode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeRepeated:
		return "repeated"
	case ModeProfiled:
		return "profiled"
	}
	return fmt.Sprintf("unknown(%d)", int(m))
}

// Config holds the per-pipeline configuration. A Pipeline is constructed once
// and holds no state between calls beyond this configuration.
type Config struct {
	// Static fields merged into every record, in sorted key order.
	Static map[string]any

	// EnvVars lists environment variables captured into "env_<NAME>" keys.
	EnvVars []string

	// Packages lists module paths whose versions are captured into the
	// "package_versions" mapping.
	Packages []string

	// CaptureReturn persists the wrapped call's return value under "result".
	CaptureReturn bool

	// PersistOnError persists a record (with an "error" key) even when the
	// wrapped function fails. Off by default: a call that never returns
	// normally leaves no partial record.
	PersistOnError bool

	// Mode selects the execution mode; Iterations applies to ModeRepeated.
	Mode       ExecutionMode
	Iterations int

	// Telemetry enables the background sampler when non-nil.
	Telemetry *telemetry.Config

	// Policy overrides the serializer's default encoding policy.
	Policy serializer.Policy
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeSingle,
		Iterations: 1,
	}
}

// Pipeline orchestrates one record per wrapped call. It is safe for concurrent
// use: each invocation owns its record and sampler, and the file sink
// guarantees whole-line appends.
type Pipeline struct {
	cfg    Config
	reg    *hooks.Registry
	sink   sink.Sink
	ser    *serializer.Serializer
	logger *zap.Logger
}

// New creates a Pipeline. Configuration problems are reported here rather than
// at call time. A nil registry means no user hooks; a nil logger is replaced
// with a no-op logger.
func New(cfg Config, reg *hooks.Registry, sk sink.Sink, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = hooks.NewRegistry(logger)
	}
	if sk == nil {
		return nil, ErrNoSink
	}

	switch cfg.Mode {
	case ModeSingle, ModeProfiled:
	case ModeRepeated:
		if cfg.Iterations < 1 {
			return nil, NewBenchError(ErrorTypeConfiguration,
				"iteration count must be positive", nil).WithDetail("iterations", cfg.Iterations)
		}
	default:
		return nil, NewBenchError(ErrorTypeConfiguration,
			"unknown execution mode", nil).WithDetail("mode", int(cfg.Mode))
	}

	if cfg.Telemetry != nil && cfg.Telemetry.Sample == nil {
		return nil, NewBenchError(ErrorTypeConfiguration,
			"telemetry configured without a sampling function", nil)
	}

	var opts []serializer.Option
	if cfg.Policy != nil {
		opts = append(opts, serializer.WithPolicy(cfg.Policy))
	}

	return &Pipeline{
		cfg:    cfg,
		reg:    reg,
		sink:   sk,
		ser:    serializer.New(logger, opts...),
		logger: logger,
	}, nil
}

// Wrap instruments a function. The returned function has the same call
// signature and passes the original result and error through unchanged; every
// invocation persists one record.
func Wrap[T any](p *Pipeline, name string, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		res, err := p.run(ctx, name, nil, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
		return coerce[T](res), err
	}
}

// WrapArgs instruments a variadic function and makes the call arguments
// available to the CallArgs capture hook.
func WrapArgs[T any](p *Pipeline, name string, fn func(context.Context, ...any) (T, error)) func(context.Context, ...any) (T, error) {
	return func(ctx context.Context, args ...any) (T, error) {
		res, err := p.run(ctx, name, args, func(ctx context.Context) (any, error) {
			return fn(ctx, args...)
		})
		return coerce[T](res), err
	}
}

func coerce[T any](v any) T {
	if t, ok := v.(T); ok {
		return t
	}
	var zero T
	return zero
}

// run executes the per-call protocol in its fixed order: build record, pre-run
// capture, start telemetry, timed call, finish stamp, telemetry join, post-run
// capture, strip, serialize, append.
func (p *Pipeline) run(ctx context.Context, name string, args []any, call func(context.Context) (any, error)) (any, error) {
	rec := p.buildRecord(name, args)

	if err := p.preRun(ctx, rec); err != nil {
		return nil, err
	}

	rec.Set(models.KeyStartTime, time.Now())

	sampler, err := p.startTelemetry(ctx)
	if err != nil {
		return nil, err
	}

	result, fnErr := p.invoke(ctx, rec, call)

	rec.Set(models.KeyFinishTime, time.Now())

	if sampler != nil {
		samples, terr := p.joinTelemetry(sampler)
		rec.Set(models.KeyTelemetry, samples)
		if terr != nil {
			if fnErr != nil {
				// The original failure wins; the sampler failure is logged.
				p.logger.Error("telemetry sampler failed during a failing call", zap.Error(terr))
			} else {
				// A sampling failure fails the call, so the usual
				// persistence rules apply to it.
				fnErr = terr
			}
		}
	}

	if fnErr != nil && !p.cfg.PersistOnError {
		return result, fnErr
	}
	if fnErr != nil {
		rec.Set(models.KeyError, fnErr.Error())
	} else if p.cfg.CaptureReturn {
		rec.Set(models.KeyResult, result)
	}

	rec.StripTransient()

	if err := p.sink.Append(p.ser.Encode(rec)); err != nil {
		// The caller still receives the result, but an unpersisted benchmark
		// is a failed run and must not pass silently.
		return result, NewBenchError(ErrorTypeSink, "failed to persist benchmark record", err)
	}

	return result, fnErr
}

func (p *Pipeline) buildRecord(name string, args []any) *models.Record {
	rec := models.NewRecord()

	keys := make([]string, 0, len(p.cfg.Static))
	for k := range p.cfg.Static {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.Set(k, p.cfg.Static[k])
	}

	rec.Set(models.KeyFuncName, name)
	if args != nil {
		rec.Set(models.KeyCallArgs, args)
	}
	return rec
}

func (p *Pipeline) preRun(ctx context.Context, rec *models.Record) error {
	if len(p.cfg.EnvVars) > 0 {
		if err := hooks.EnvVars(p.cfg.EnvVars...)(ctx, rec); err != nil {
			return fmt.Errorf("environment capture failed: %w", err)
		}
	}
	if len(p.cfg.Packages) > 0 {
		if err := hooks.PackageVersions(p.cfg.Packages...)(ctx, rec); err != nil {
			return p.translateHookErr(err)
		}
	}
	if err := p.reg.Run(ctx, rec); err != nil {
		return p.translateHookErr(err)
	}
	return nil
}

func (p *Pipeline) translateHookErr(err error) error {
	if errors.Is(err, hooks.ErrMissingDependency) {
		return NewBenchError(ErrorTypeMissingDependency, "capture hook dependency missing", err)
	}
	if errors.Is(err, hooks.ErrNotCallable) || errors.Is(err, hooks.ErrDuplicate) {
		return NewBenchError(ErrorTypeConfiguration, "capture hook misconfigured", err)
	}
	return fmt.Errorf("capture hook failed: %w", err)
}

func (p *Pipeline) startTelemetry(ctx context.Context) (*telemetry.Sampler, error) {
	if p.cfg.Telemetry == nil {
		return nil, nil
	}
	sampler, err := telemetry.NewSampler(*p.cfg.Telemetry, p.logger)
	if err != nil {
		return nil, NewBenchError(ErrorTypeConfiguration, "invalid telemetry configuration", err)
	}
	if err := sampler.Start(ctx); err != nil {
		return nil, NewBenchError(ErrorTypeTelemetry, "telemetry sampling function failed", err)
	}
	return sampler, nil
}

// joinTelemetry stops the sampler and waits with the configured bound. A join
// timeout keeps whatever samples exist and is not fatal; a sampling-function
// failure is.
func (p *Pipeline) joinTelemetry(sampler *telemetry.Sampler) ([]models.Sample, error) {
	sampler.Stop()
	samples, err := sampler.Join()
	if err != nil {
		if errors.Is(err, telemetry.ErrJoinTimeout) {
			return samples, nil
		}
		return samples, NewBenchError(ErrorTypeTelemetry, "telemetry sampling function failed", err)
	}
	return samples, nil
}

func (p *Pipeline) invoke(ctx context.Context, rec *models.Record, call func(context.Context) (any, error)) (any, error) {
	switch p.cfg.Mode {
	case ModeRepeated:
		var (
			result any
			err    error
		)
		durations := make([]any, 0, p.cfg.Iterations)
		for i := 0; i < p.cfg.Iterations; i++ {
			t0 := time.Now()
			result, err = call(ctx)
			durations = append(durations, time.Since(t0).Seconds())
			if err != nil {
				break
			}
		}
		rec.Set(models.KeyRunDurations, durations)
		return result, err

	case ModeProfiled:
		blob, result, err := p.runProfiled(ctx, call)
		if blob != "" {
			rec.Set(models.KeyProfile, blob)
		}
		return result, err

	default:
		return call(ctx)
	}
}
