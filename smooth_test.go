package elevationprofile

import (
	"errors"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSavitzkyGolayWeights(t *testing.T) {
	// Window 5, order 2 has the classic weights (-3, 12, 17, 12, -3)/35.
	weights, err := savitzkyGolayWeights(5, 2)
	assert.NoError(t, err)
	expected := []float64{-3.0 / 35, 12.0 / 35, 17.0 / 35, 12.0 / 35, -3.0 / 35}
	for i := range expected {
		assert.True(t, math.Abs(weights[i]-expected[i]) < 1e-12)
	}
}

func TestProfileSmoother_SmoothConstant(t *testing.T) {
	smoother, err := NewProfileSmoother(
		WithSmoothingWindowSize(5),
		WithSmoothingPolyOrder(2),
	)
	assert.NoError(t, err)

	elevations := make([]float64, 20)
	for i := range elevations {
		elevations[i] = 123.25
	}
	smoothed, err := smoother.Smooth(elevations)
	assert.NoError(t, err)
	for _, elevation := range smoothed {
		assert.True(t, math.Abs(elevation-123.25) < 1e-9)
	}
}

func TestProfileSmoother_SmoothLinearInterior(t *testing.T) {
	// A Savitzky-Golay filter of order >= 1 passes linear signals through
	// unchanged away from the boundary.
	smoother, err := NewProfileSmoother(
		WithSmoothingWindowSize(7),
		WithSmoothingPolyOrder(2),
	)
	assert.NoError(t, err)

	elevations := make([]float64, 20)
	for i := range elevations {
		elevations[i] = 5 + 2*float64(i)
	}
	smoothed, err := smoother.Smooth(elevations)
	assert.NoError(t, err)
	for i := 3; i < len(smoothed)-3; i++ {
		assert.True(t, math.Abs(smoothed[i]-elevations[i]) < 1e-9)
	}
}

func TestNewProfileSmoother_Invalid(t *testing.T) {
	var domainError *DomainError

	_, err := NewProfileSmoother(WithSmoothingWindowSize(4))
	assert.True(t, errors.As(err, &domainError))

	_, err = NewProfileSmoother(WithSmoothingWindowSize(3), WithSmoothingPolyOrder(3))
	assert.True(t, errors.As(err, &domainError))

	_, err = NewProfileSmoother(WithBoundaryMode("wrap"))
	assert.True(t, errors.As(err, &domainError))
}

func TestProfileSmoother_WindowTooLarge(t *testing.T) {
	smoother, err := NewProfileSmoother(WithSmoothingWindowSize(5), WithSmoothingPolyOrder(2))
	assert.NoError(t, err)

	_, err = smoother.Smooth([]float64{1, 2, 3})
	var domainError *DomainError
	assert.True(t, errors.As(err, &domainError))
}

func TestResample(t *testing.T) {
	distances := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95}
	elevations := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95}

	newDistances, newElevations, err := Resample(elevations, distances, 10)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95}, newDistances)
	assert.Equal(t, len(newDistances), len(newElevations))
	// The input is linear, so linear resampling reproduces it.
	for i := range newDistances {
		assert.True(t, math.Abs(newElevations[i]-newDistances[i]) < 1e-9)
	}
}

func TestResample_EndpointPreserved(t *testing.T) {
	distances := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95}
	elevations := make([]float64, len(distances))
	for i := range elevations {
		elevations[i] = 7
	}

	for _, step := range []float64{3, 7, 10, 13, 100} {
		newDistances, newElevations, err := Resample(elevations, distances, step)
		assert.NoError(t, err)
		assert.Equal(t, 95.0, newDistances[len(newDistances)-1])
		assert.Equal(t, 7.0, newElevations[len(newElevations)-1])
		assert.Equal(t, 0.0, newDistances[0])
		for i := 1; i < len(newDistances); i++ {
			assert.True(t, newDistances[i] > newDistances[i-1])
		}
	}
}

func TestResample_NonMonotonicDistances(t *testing.T) {
	_, _, err := Resample([]float64{1, 2, 3}, []float64{0, 20, 10}, 10)
	var domainError *DomainError
	assert.True(t, errors.As(err, &domainError))
}
