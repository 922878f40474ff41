package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Name     string `validate:"required"`
	Interval int    `validate:"gt=0"`
	Format   string `validate:"oneof=json text"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(sampleConfig{Name: "bench", Interval: 5, Format: "json"})
	assert.NoError(t, err)
}

func TestValidateStructReportsFields(t *testing.T) {
	err := ValidateStruct(sampleConfig{Interval: 0, Format: "xml"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "Name")
	assert.Contains(t, verr.Fields, "Interval")
	assert.Contains(t, verr.Fields, "Format")
	assert.Contains(t, verr.Fields["Name"], "required")
}
