package elevationprofile

import "math"

// Inclinations returns the per-segment slope between consecutive samples: the
// slope angle atan(rise/run) if angles is true, otherwise the gradient
// rise/run in permille. The returned slice has one fewer element than the
// inputs. A zero run between consecutive samples is a DomainError.
func Inclinations(elevations, distances []float64, angles bool) ([]float64, error) {
	if len(elevations) != len(distances) {
		return nil, domainErrorf("length mismatch: %d elevations, %d distances", len(elevations), len(distances))
	}
	if len(elevations) < 2 {
		return nil, domainErrorf("too few samples for inclinations: %d", len(elevations))
	}
	slopes := make([]float64, len(elevations)-1)
	for i := range slopes {
		rise := elevations[i+1] - elevations[i]
		run := distances[i+1] - distances[i]
		if run == 0 {
			return nil, domainErrorf("zero run between samples %d and %d", i, i+1)
		}
		if angles {
			slopes[i] = math.Atan(rise / run)
		} else {
			slopes[i] = rise / run * 1000
		}
	}
	return slopes, nil
}
