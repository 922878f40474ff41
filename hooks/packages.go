package hooks

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/upb/microbench/models"
)

// PackageVersionsKey is the record key holding the captured module versions.
const PackageVersionsKey = "package_versions"

// readBuildInfo is swapped out in tests; binaries built without module support
// (or test binaries on some toolchains) report no build info.
var readBuildInfo = debug.ReadBuildInfo

// PackageVersions captures the versions of the given module paths from the
// binary's embedded build info as a nested mapping. A listed module that is
// not a dependency of the binary is recorded as null. The main module itself
// can be listed by its path.
func PackageVersions(paths ...string) CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		info, ok := readBuildInfo()
		if !ok {
			return fmt.Errorf("build info: %w", ErrMissingDependency)
		}
		byPath := indexBuildInfo(info)

		versions := make(map[string]any, len(paths))
		for _, p := range paths {
			if v, ok := byPath[p]; ok {
				versions[p] = v
			} else {
				versions[p] = nil
			}
		}
		rec.Set(PackageVersionsKey, versions)
		return nil
	}
}

// GlobalPackages captures the version of every module dependency of the
// running binary, the main module included, as a nested mapping.
func GlobalPackages() CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		info, ok := readBuildInfo()
		if !ok {
			return fmt.Errorf("build info: %w", ErrMissingDependency)
		}

		byPath := indexBuildInfo(info)
		versions := make(map[string]any, len(byPath))
		for p, v := range byPath {
			versions[p] = v
		}
		rec.Set(PackageVersionsKey, versions)
		return nil
	}
}

func indexBuildInfo(info *debug.BuildInfo) map[string]string {
	byPath := make(map[string]string, len(info.Deps)+1)
	if info.Main.Path != "" {
		byPath[info.Main.Path] = info.Main.Version
	}
	for _, dep := range info.Deps {
		mod := dep
		if dep.Replace != nil {
			mod = dep.Replace
		}
		byPath[dep.Path] = mod.Version
	}
	return byPath
}
