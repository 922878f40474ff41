package hooks

import (
	"context"
	"os"
	"runtime"

	"github.com/google/uuid"

	"github.com/upb/microbench/models"
)

// FunctionName copies the transient function identity set by the pipeline into
// the persisted "function_name" key.
func FunctionName() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		if name, ok := rec.Get(models.KeyFuncName); ok {
			rec.Set("function_name", name)
		}
		return nil
	}
}

// CallArgs persists the transient call arguments under "args". Values that the
// serializer cannot encode come out as its placeholder sentinel, never as an
// error.
func CallArgs() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		if args, ok := rec.Get(models.KeyCallArgs); ok {
			rec.Set("args", args)
		}
		return nil
	}
}

// Hostname records the machine hostname.
func Hostname() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		name, err := os.Hostname()
		if err != nil {
			return err
		}
		rec.Set("hostname", name)
		return nil
	}
}

// OperatingSystem records the target operating system.
func OperatingSystem() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		rec.Set("operating_system", runtime.GOOS)
		return nil
	}
}

// RuntimeVersion records the Go runtime version the benchmark ran under.
func RuntimeVersion() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		rec.Set("go_version", runtime.Version())
		return nil
	}
}

// RunID assigns a fresh UUID to each record so rows collected from many hosts
// into a shared destination stay distinguishable.
func RunID() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		rec.Set("run_id", uuid.New().String())
		return nil
	}
}
