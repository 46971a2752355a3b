package elevationprofile

import (
	"gonum.org/v1/gonum/stat"
)

// A ForestHeightAdjuster removes canopy bias from a profile. Tall, variable
// tree canopy locally inflates the apparent ground elevation variance;
// wherever the trailing rolling standard deviation exceeds a threshold, a
// bounded multiple of it is subtracted.
type ForestHeightAdjuster struct {
	windowSize int
	stdThresh  float64
	subFactor  float64
	clip       float64
}

// A ForestHeightAdjusterOption sets an option on a ForestHeightAdjuster.
type ForestHeightAdjusterOption func(*ForestHeightAdjuster)

// NewForestHeightAdjuster returns a new ForestHeightAdjuster.
func NewForestHeightAdjuster(options ...ForestHeightAdjusterOption) (*ForestHeightAdjuster, error) {
	a := &ForestHeightAdjuster{
		windowSize: 12,
		stdThresh:  3,
		subFactor:  3,
		clip:       20,
	}
	for _, option := range options {
		option(a)
	}
	if a.windowSize < 2 {
		return nil, domainErrorf("window size %d too small for a standard deviation", a.windowSize)
	}
	return a, nil
}

// WithForestWindowSize sets the rolling standard deviation window.
func WithForestWindowSize(windowSize int) ForestHeightAdjusterOption {
	return func(a *ForestHeightAdjuster) {
		a.windowSize = windowSize
	}
}

// WithForestStdThresh sets the standard deviation above which elevation is
// subtracted.
func WithForestStdThresh(stdThresh float64) ForestHeightAdjusterOption {
	return func(a *ForestHeightAdjuster) {
		a.stdThresh = stdThresh
	}
}

// WithForestSubFactor sets the factor the standard deviation is multiplied by
// before subtraction.
func WithForestSubFactor(subFactor float64) ForestHeightAdjusterOption {
	return func(a *ForestHeightAdjuster) {
		a.subFactor = subFactor
	}
}

// WithForestClip sets the maximum value that is subtracted.
func WithForestClip(clip float64) ForestHeightAdjusterOption {
	return func(a *ForestHeightAdjuster) {
		a.clip = clip
	}
}

// Adjust overwrites elevations in place. For each sample with a full trailing
// window, the sample standard deviation of the window is computed; where it
// exceeds the threshold, min(std*subFactor, clip) is subtracted. The first
// windowSize-1 samples have no full window and are left unmodified.
func (a *ForestHeightAdjuster) Adjust(elevations []float64) error {
	if a.windowSize > len(elevations) {
		return domainErrorf("window size %d larger than profile length %d", a.windowSize, len(elevations))
	}
	// Standard deviations are computed over the unmodified input.
	stds := make([]float64, len(elevations))
	for i := a.windowSize - 1; i < len(elevations); i++ {
		stds[i] = stat.StdDev(elevations[i-a.windowSize+1:i+1], nil)
	}
	for i := a.windowSize - 1; i < len(elevations); i++ {
		if stds[i] > a.stdThresh {
			elevations[i] -= min(stds[i]*a.subFactor, a.clip)
		}
	}
	return nil
}
