package hooks

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/upb/microbench/models"
)

// CPUCores records the number of logical CPU cores under "cpu_cores_logical".
func CPUCores() CaptureFunc {
	return func(ctx context.Context, rec *models.Record) error {
		count, err := cpu.CountsWithContext(ctx, true)
		if err != nil {
			return fmt.Errorf("cpu core count unavailable on this platform: %w (%v)", ErrMissingDependency, err)
		}
		rec.Set("cpu_cores_logical", count)
		return nil
	}
}

// RAMTotal records total physical memory in bytes under "ram_total".
func RAMTotal() CaptureFunc {
	return func(ctx context.Context, rec *models.Record) error {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return fmt.Errorf("memory stats unavailable on this platform: %w (%v)", ErrMissingDependency, err)
		}
		rec.Set("ram_total", vm.Total)
		return nil
	}
}
