package hooks

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/microbench/models"
)

// stubCommands redirects hook subprocess invocations to a fixed local command
// so tests do not depend on nvidia-smi or a package manager being installed.
func stubCommands(t *testing.T, name string, args ...string) {
	t.Helper()
	origExec, origLook := execCommand, lookPath
	execCommand = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, name, args...)
	}
	lookPath = func(string) (string, error) { return "/usr/bin/stub", nil }
	t.Cleanup(func() {
		execCommand, lookPath = origExec, origLook
	})
}

func TestNvidiaSMIParsesPerGPULines(t *testing.T) {
	stubCommands(t, "printf", "RTX 3090, 24576, 20011\nRTX 3060, 12288, 11520\n")

	rec := models.NewRecord()
	require.NoError(t, NvidiaSMI()(context.Background(), rec))

	names, _ := rec.Get("nvidia_gpu_name")
	assert.Equal(t, []any{"RTX 3090", "RTX 3060"}, names)

	totals, _ := rec.Get("nvidia_memory.total")
	assert.Equal(t, []any{"24576", "12288"}, totals)

	frees, _ := rec.Get("nvidia_memory.free")
	assert.Equal(t, []any{"20011", "11520"}, frees)
}

func TestNvidiaSMIMissingBinaryIsMissingDependency(t *testing.T) {
	origLook := lookPath
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { lookPath = origLook })

	err := NvidiaSMI()(context.Background(), models.NewRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestNvidiaSMINonZeroExitIsFatalForHook(t *testing.T) {
	stubCommands(t, "false")

	err := NvidiaSMI()(context.Background(), models.NewRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nvidia-smi query failed")
}

func TestNvidiaSMIMalformedOutput(t *testing.T) {
	stubCommands(t, "printf", "not a csv line\n")

	err := NvidiaSMI()(context.Background(), models.NewRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected nvidia-smi output")
}

func TestInstalledPackagesCapturesLines(t *testing.T) {
	stubCommands(t, "printf", "pkg-a 1.0\npkg-b 2.3\n")

	rec := models.NewRecord()
	require.NoError(t, InstalledPackages("dpkg-query", "-W")(context.Background(), rec))

	v, ok := rec.Get("installed_packages")
	require.True(t, ok)
	assert.Equal(t, []any{"pkg-a 1.0", "pkg-b 2.3"}, v)
}

func TestInstalledPackagesMissingCommand(t *testing.T) {
	origLook := lookPath
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { lookPath = origLook })

	err := InstalledPackages("definitely-not-a-package-manager")(context.Background(), models.NewRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestInstalledPackagesEmptyCommandIsConfigError(t *testing.T) {
	err := InstalledPackages("")(context.Background(), models.NewRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCallable)
}
