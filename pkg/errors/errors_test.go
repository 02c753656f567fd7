package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationErrorMessage(t *testing.T) {
	err := NewConfigurationError("road_network.capacities", "invalid integer: true", nil)
	assert.Equal(t, "configuration error: road_network.capacities: invalid integer: true", err.Error())
}

func TestSchemaErrorUnwrap(t *testing.T) {
	root := errors.New("duplicate id")
	err := NewSchemaError("ZonesFile", "column `id` has duplicate values", root)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, root, schemaErr.Unwrap())
	assert.Equal(t, "schema error: ZonesFile: column `id` has duplicate values", err.Error())
}

func TestStepRuntimeErrorWrapsStepName(t *testing.T) {
	root := errors.New("exit status 1")
	err := NewStepRuntimeError("RunSimulation", root)
	assert.Equal(t, "step runtime error: RunSimulation: exit status 1", err.Error())
	assert.ErrorIs(t, err, root)
}

func TestPlanningErrorWithoutSubject(t *testing.T) {
	err := NewPlanningError("", "cycle detected", nil)
	assert.Equal(t, "planning error: cycle detected", err.Error())
}
