package bench

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchErrorMatchesByType(t *testing.T) {
	err := NewBenchError(ErrorTypeSink, "write failed", errors.New("disk full"))

	assert.ErrorIs(t, err, ErrSinkWrite)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestBenchErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewBenchError(ErrorTypeSink, "write failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBenchErrorWrappedThroughFmt(t *testing.T) {
	inner := NewBenchError(ErrorTypeMissingDependency, "nvidia-smi not found", nil)
	outer := fmt.Errorf("pre-run failed: %w", inner)

	assert.ErrorIs(t, outer, ErrMissingDependency)
	assert.True(t, IsMissingDependency(outer))
}

func TestBenchErrorWithDetail(t *testing.T) {
	err := NewBenchError(ErrorTypeConfiguration, "bad iterations", nil).
		WithDetail("iterations", 0)

	require.Contains(t, err.Details, "iterations")
	assert.Equal(t, 0, err.Details["iterations"])
}
