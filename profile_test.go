package elevationprofile

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb"
)

// flatGrid returns a grid of constant elevation 50 covering x in [-50, 150)
// and y in (-50, 50] with 10-unit cells.
func flatGrid(t *testing.T) *MemoryGrid {
	t.Helper()
	values := make([][]float64, 10)
	for r := range values {
		values[r] = make([]float64, 20)
		for c := range values[r] {
			values[r][c] = 50
		}
	}
	grid, err := NewMemoryGrid(values, -50, 50, 10, 10, 3035)
	assert.NoError(t, err)
	return grid
}

func TestProfileBuilder_Build(t *testing.T) {
	grid := flatGrid(t)
	builder, err := NewProfileBuilder(NewRasterSampler(grid), 10, false)
	assert.NoError(t, err)

	path, err := NewPath(orb.LineString{{0, 0}, {100, 0}}, 3035)
	assert.NoError(t, err)

	profile, err := builder.Build(t.Context(), path)
	assert.NoError(t, err)

	assert.Equal(t, 11, profile.Len())
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, profile.Distances)
	for i, elevation := range profile.Elevations {
		assert.Equal(t, 50.0, elevation)
		assert.Equal(t, profile.Distances[i], profile.X[i])
		assert.Equal(t, 0.0, profile.Y[i])
	}
}

func TestProfileBuilder_BuildShortFinalSegment(t *testing.T) {
	grid := flatGrid(t)
	builder, err := NewProfileBuilder(NewRasterSampler(grid), 10, false)
	assert.NoError(t, err)

	path, err := NewPath(orb.LineString{{0, 0}, {95, 0}}, 3035)
	assert.NoError(t, err)

	profile, err := builder.Build(t.Context(), path)
	assert.NoError(t, err)

	assert.Equal(t, 11, profile.Len())
	assert.Equal(t, 95.0, profile.Distances[profile.Len()-1])
	for i := 1; i < profile.Len(); i++ {
		assert.True(t, profile.Distances[i] > profile.Distances[i-1])
	}
}

func TestProfileBuilder_BuildReferenceMismatch(t *testing.T) {
	grid := flatGrid(t)
	builder, err := NewProfileBuilder(NewRasterSampler(grid), 10, false)
	assert.NoError(t, err)

	path, err := NewPath(orb.LineString{{0, 0}, {100, 0}}, 4326)
	assert.NoError(t, err)

	_, err = builder.Build(t.Context(), path)
	var referenceMismatchError *ReferenceMismatchError
	assert.True(t, errors.As(err, &referenceMismatchError))
}

func TestNewProfileBuilder_InvalidStep(t *testing.T) {
	_, err := NewProfileBuilder(NewRasterSampler(flatGrid(t)), 0, false)
	var domainError *DomainError
	assert.True(t, errors.As(err, &domainError))
}
