package elevationprofile

import (
	"errors"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

// constantGridWithPeak returns a 5x5 grid of 10-unit cells, all 50 except
// cell (2, 2) which is 100, with its top-left corner at (0, 50).
func constantGridWithPeak(t *testing.T) *MemoryGrid {
	t.Helper()
	values := make([][]float64, 5)
	for r := range values {
		values[r] = []float64{50, 50, 50, 50, 50}
	}
	values[2][2] = 100
	grid, err := NewMemoryGrid(values, 0, 50, 10, 10, 3035)
	assert.NoError(t, err)
	return grid
}

// planeGrid returns a grid sampled from the plane z = a + b*x + c*y.
func planeGrid(t *testing.T, rows, cols int, a, b, c float64) *MemoryGrid {
	t.Helper()
	values := make([][]float64, rows)
	for r := range rows {
		values[r] = make([]float64, cols)
	}
	grid, err := NewMemoryGrid(values, 0, float64(rows)*10, 10, 10, 3035)
	assert.NoError(t, err)
	for r := range rows {
		for col := range cols {
			x, y := grid.CellCenter(Cell{Row: r, Col: col})
			values[r][col] = a + b*x + c*y
		}
	}
	return grid
}

func TestRasterSampler_SampleCellCenter(t *testing.T) {
	grid := constantGridWithPeak(t)
	sampler := NewRasterSampler(grid)

	x, y := grid.CellCenter(Cell{Row: 2, Col: 2})
	elevation, err := sampler.Sample(t.Context(), x, y, false)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, elevation)

	x, y = grid.CellCenter(Cell{Row: 1, Col: 3})
	elevation, err = sampler.Sample(t.Context(), x, y, false)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, elevation)
}

func TestRasterSampler_SampleInterpolatedPlane(t *testing.T) {
	// The bicubic interpolant through samples of a plane is the plane, so
	// interpolated sampling must reproduce it exactly at any interior point.
	grid := planeGrid(t, 8, 8, 7, 2, 3)
	sampler := NewRasterSampler(grid)

	for _, tc := range []struct {
		name string
		x    float64
		y    float64
	}{
		{name: "cell_center", x: 35, y: 45},
		{name: "northwest_of_center", x: 33.1, y: 47.9},
		{name: "northeast_of_center", x: 38.6, y: 46.2},
		{name: "southwest_of_center", x: 31.7, y: 41.3},
		{name: "southeast_of_center", x: 39.9, y: 43.4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			elevation, err := sampler.Sample(t.Context(), tc.x, tc.y, true)
			assert.NoError(t, err)
			expected := 7 + 2*tc.x + 3*tc.y
			assert.True(t, math.Abs(elevation-expected) < 1e-6)
		})
	}
}

func TestRasterSampler_SampleNearEdge(t *testing.T) {
	grid := constantGridWithPeak(t)
	sampler := NewRasterSampler(grid)

	// The 4x4 neighborhood of a point in a corner cell extends beyond the
	// grid.
	_, err := sampler.Sample(t.Context(), 5, 45, true)
	var boundsError *BoundsError
	assert.True(t, errors.As(err, &boundsError))

	// The same point samples fine without interpolation.
	elevation, err := sampler.Sample(t.Context(), 5, 45, false)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, elevation)
}

func TestNeighborhoodOffsets(t *testing.T) {
	for _, tc := range []struct {
		east     bool
		north    bool
		expected [4]int
	}{
		{east: false, north: false, expected: [4]int{-1, 2, -2, 1}},
		{east: true, north: false, expected: [4]int{-1, 2, -1, 2}},
		{east: true, north: true, expected: [4]int{-2, 1, -1, 2}},
		{east: false, north: true, expected: [4]int{-2, 1, -2, 1}},
	} {
		rowFrom, rowTo, colFrom, colTo := neighborhoodOffsets(tc.east, tc.north)
		assert.Equal(t, tc.expected, [4]int{rowFrom, rowTo, colFrom, colTo})
		// Two rows/cols on one side of the containing cell, one on the other.
		assert.Equal(t, 3, rowTo-rowFrom)
		assert.Equal(t, 3, colTo-colFrom)
	}
}
