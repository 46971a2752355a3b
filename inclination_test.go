package elevationprofile

import (
	"errors"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestInclinations(t *testing.T) {
	elevations := []float64{0, 10, 10, 5}
	distances := []float64{0, 100, 200, 300}

	slopes, err := Inclinations(elevations, distances, false)
	assert.NoError(t, err)
	assert.Equal(t, len(elevations)-1, len(slopes))
	assert.Equal(t, []float64{100, 0, -50}, slopes)
}

func TestInclinations_Angles(t *testing.T) {
	slopes, err := Inclinations([]float64{0, 10}, []float64{0, 100}, true)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(slopes))
	assert.True(t, math.Abs(slopes[0]-math.Atan(0.1)) < 1e-12)
}

func TestInclinations_LengthLaw(t *testing.T) {
	for n := 2; n < 20; n++ {
		elevations := make([]float64, n)
		distances := make([]float64, n)
		for i := range n {
			distances[i] = float64(i)
			elevations[i] = float64(i % 3)
		}
		slopes, err := Inclinations(elevations, distances, false)
		assert.NoError(t, err)
		assert.Equal(t, n-1, len(slopes))
	}
}

func TestInclinations_ZeroRun(t *testing.T) {
	_, err := Inclinations([]float64{0, 1, 2}, []float64{0, 10, 10}, false)
	var domainError *DomainError
	assert.True(t, errors.As(err, &domainError))
}
