package hooks

import (
	"context"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/microbench/models"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	t.Cleanup(func() { readBuildInfo = orig })
}

func testBuildInfo() *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/upb/microbench", Version: "v1.4.0"},
		Deps: []*debug.Module{
			{Path: "go.uber.org/zap", Version: "v1.27.0"},
			{
				Path:    "github.com/google/uuid",
				Version: "v1.5.0",
				Replace: &debug.Module{Path: "github.com/google/uuid", Version: "v1.6.0"},
			},
		},
	}
}

func TestPackageVersionsCapturesListedModules(t *testing.T) {
	stubBuildInfo(t, testBuildInfo(), true)

	rec := models.NewRecord()
	hook := PackageVersions("go.uber.org/zap", "github.com/not/a/dep")
	require.NoError(t, hook(context.Background(), rec))

	v, ok := rec.Get(PackageVersionsKey)
	require.True(t, ok)
	versions := v.(map[string]any)
	assert.Equal(t, "v1.27.0", versions["go.uber.org/zap"])
	assert.Nil(t, versions["github.com/not/a/dep"])
}

func TestPackageVersionsHonorsReplaceDirectives(t *testing.T) {
	stubBuildInfo(t, testBuildInfo(), true)

	rec := models.NewRecord()
	require.NoError(t, PackageVersions("github.com/google/uuid")(context.Background(), rec))

	v, _ := rec.Get(PackageVersionsKey)
	assert.Equal(t, "v1.6.0", v.(map[string]any)["github.com/google/uuid"])
}

func TestGlobalPackagesCapturesEverything(t *testing.T) {
	stubBuildInfo(t, testBuildInfo(), true)

	rec := models.NewRecord()
	require.NoError(t, GlobalPackages()(context.Background(), rec))

	v, _ := rec.Get(PackageVersionsKey)
	versions := v.(map[string]any)
	assert.Equal(t, "v1.4.0", versions["github.com/upb/microbench"])
	assert.Equal(t, "v1.27.0", versions["go.uber.org/zap"])
	assert.Equal(t, "v1.6.0", versions["github.com/google/uuid"])
}

func TestPackageVersionsWithoutBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil, false)

	err := PackageVersions("go.uber.org/zap")(context.Background(), models.NewRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDependency)
}
