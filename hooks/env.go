package hooks

import (
	"context"
	"os"

	"github.com/upb/microbench/models"
)

// EnvPrefix namespaces environment-variable keys in the record.
const EnvPrefix = "env_"

// EnvVars captures the named environment variables under "env_<NAME>" keys.
// An unset variable is recorded as null, not an error: absence of an
// environment variable is data, not a failure.
func EnvVars(names ...string) CaptureFunc {
	return func(_ context.Context, rec *models.Record) error {
		for _, name := range names {
			if v, ok := os.LookupEnv(name); ok {
				rec.Set(EnvPrefix+name, v)
			} else {
				rec.Set(EnvPrefix+name, nil)
			}
		}
		return nil
	}
}
