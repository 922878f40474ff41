// Command example wraps a sample workload with the full capture pipeline:
// host and version hooks, process telemetry, and a JSON-lines results file.
// Run it and inspect the outfile (microbench.jsonl by default).
package main

import (
	"context"
	"log"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/upb/microbench/app"
	"github.com/upb/microbench/bench"
	"github.com/upb/microbench/config"
	"github.com/upb/microbench/hooks"
	"github.com/upb/microbench/telemetry"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	uninstall := telemetry.InstallInterruptHandler()
	defer uninstall()

	reg := hooks.NewRegistry(nil).
		MustRegister("function_name", hooks.FunctionName()).
		MustRegister("hostname", hooks.Hostname()).
		MustRegister("operating_system", hooks.OperatingSystem()).
		MustRegister("go_version", hooks.RuntimeVersion()).
		MustRegister("cpu_cores", hooks.CPUCores()).
		MustRegister("ram_total", hooks.RAMTotal()).
		MustRegister("packages", hooks.GlobalPackages()).
		MustRegister("run_id", hooks.RunID())

	benchCfg := bench.DefaultConfig()
	benchCfg.Static = map[string]any{"suite": "example"}
	benchCfg.CaptureReturn = true
	benchCfg.EnvVars = []string{"HOME", "MICROBENCH_EXAMPLE_UNSET"}
	benchCfg.Telemetry = &telemetry.Config{
		Sample: func(proc *process.Process) (map[string]any, error) {
			mi, err := proc.MemoryInfo()
			if err != nil {
				return nil, err
			}
			return map[string]any{"rss": mi.RSS, "vms": mi.VMS}, nil
		},
		Interval: time.Second,
	}

	deps, err := app.NewDependencies(context.Background(), cfg, benchCfg, reg)
	if err != nil {
		log.Fatalf("wiring error: %v", err)
	}
	defer deps.Close()

	wrapped := bench.Wrap(deps.Pipeline, "my_function", func(context.Context) (int64, error) {
		var acc int64
		for i := int64(0); i < 1000000; i++ {
			acc += i
		}
		time.Sleep(2500 * time.Millisecond)
		return acc, nil
	})

	for i := 0; i < 3; i++ {
		res, err := wrapped(context.Background())
		if err != nil {
			log.Fatalf("benchmark error: %v", err)
		}
		deps.Logger.Sugar().Infof("run %d: result=%d", i, res)
	}
}
