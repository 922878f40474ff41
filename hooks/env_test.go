package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/microbench/models"
)

func TestEnvVarsCapturesSetVariable(t *testing.T) {
	t.Setenv("MB_TEST_VAR", "hello")

	rec := models.NewRecord()
	require.NoError(t, EnvVars("MB_TEST_VAR")(context.Background(), rec))

	v, ok := rec.Get("env_MB_TEST_VAR")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestEnvVarsUnsetVariableIsNullNotError(t *testing.T) {
	rec := models.NewRecord()
	require.NoError(t, EnvVars("MB_TEST_DEFINITELY_UNSET")(context.Background(), rec))

	v, ok := rec.Get("env_MB_TEST_DEFINITELY_UNSET")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestEnvVarsCapturesMultiple(t *testing.T) {
	t.Setenv("MB_A", "1")
	t.Setenv("MB_B", "2")

	rec := models.NewRecord()
	require.NoError(t, EnvVars("MB_A", "MB_B", "MB_C")(context.Background(), rec))

	assert.Equal(t, 3, rec.Len())
}
