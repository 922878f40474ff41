package hooks

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/upb/microbench/models"
)

// execCommand is swapped out in tests.
var execCommand = exec.CommandContext

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// NvidiaSMI captures GPU name and memory stats by invoking the nvidia-smi
// command. One entry per GPU is recorded under "nvidia_gpu_name",
// "nvidia_memory.total" and "nvidia_memory.free" (memory in MiB). A missing
// nvidia-smi binary is a missing-dependency failure; a non-zero exit or
// malformed output is a fatal error for this hook only.
func NvidiaSMI() CaptureFunc {
	return func(ctx context.Context, rec *models.Record) error {
		if _, err := lookPath("nvidia-smi"); err != nil {
			return fmt.Errorf("nvidia-smi: %w", ErrMissingDependency)
		}

		out, err := execCommand(ctx, "nvidia-smi",
			"--query-gpu=name,memory.total,memory.free",
			"--format=csv,noheader,nounits").Output()
		if err != nil {
			return fmt.Errorf("nvidia-smi query failed: %w", err)
		}

		var names, totals, frees []any
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			if line == "" {
				continue
			}
			parts := strings.Split(line, ",")
			if len(parts) != 3 {
				return fmt.Errorf("unexpected nvidia-smi output line: %q", line)
			}
			names = append(names, strings.TrimSpace(parts[0]))
			totals = append(totals, strings.TrimSpace(parts[1]))
			frees = append(frees, strings.TrimSpace(parts[2]))
		}
		if len(names) == 0 {
			return fmt.Errorf("nvidia-smi reported no GPUs")
		}

		rec.Set("nvidia_gpu_name", names)
		rec.Set("nvidia_memory.total", totals)
		rec.Set("nvidia_memory.free", frees)
		return nil
	}
}

// InstalledPackages captures the output of a package-manager listing command
// (for example "dpkg-query -W" or "pip list --format=freeze") as a list of
// lines under "installed_packages". A missing command is a missing-dependency
// failure; a non-zero exit is fatal for this hook only.
func InstalledPackages(command string, args ...string) CaptureFunc {
	return func(ctx context.Context, rec *models.Record) error {
		if command == "" {
			return fmt.Errorf("installed-packages command not configured: %w", ErrNotCallable)
		}
		if _, err := lookPath(command); err != nil {
			return fmt.Errorf("%s: %w", command, ErrMissingDependency)
		}

		out, err := execCommand(ctx, command, args...).Output()
		if err != nil {
			return fmt.Errorf("%s failed: %w", command, err)
		}

		var lines []any
		for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
		rec.Set("installed_packages", lines)
		return nil
	}
}
