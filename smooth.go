package elevationprofile

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// A BoundaryMode is an edge-extension policy for smoothing.
type BoundaryMode string

const (
	// BoundaryNearest extends the signal by repeating its edge values.
	BoundaryNearest BoundaryMode = "nearest"
	// BoundaryMirror extends the signal by reflecting it about its edges.
	BoundaryMirror BoundaryMode = "mirror"
)

// A ProfileSmoother applies a Savitzky-Golay smoothing filter: a polynomial
// of fixed order is fitted within a sliding window and the fitted center
// value replaces each sample. The fit reduces to a convolution with a fixed
// weight vector, computed once per (window, order) pair.
type ProfileSmoother struct {
	windowSize   int
	polyOrder    int
	boundaryMode BoundaryMode
	weights      []float64
}

// A ProfileSmootherOption sets an option on a ProfileSmoother.
type ProfileSmootherOption func(*ProfileSmoother)

// NewProfileSmoother returns a new ProfileSmoother. The window size must be
// odd and greater than the polynomial order.
func NewProfileSmoother(options ...ProfileSmootherOption) (*ProfileSmoother, error) {
	s := &ProfileSmoother{
		windowSize:   301,
		polyOrder:    3,
		boundaryMode: BoundaryNearest,
	}
	for _, option := range options {
		option(s)
	}
	if s.windowSize%2 == 0 || s.windowSize <= s.polyOrder || s.polyOrder < 0 {
		return nil, domainErrorf("invalid smoothing window %d for polynomial order %d", s.windowSize, s.polyOrder)
	}
	switch s.boundaryMode {
	case BoundaryNearest, BoundaryMirror:
	default:
		return nil, domainErrorf("unknown boundary mode %q", s.boundaryMode)
	}
	var err error
	s.weights, err = savitzkyGolayWeights(s.windowSize, s.polyOrder)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// WithSmoothingWindowSize sets the smoothing window size.
func WithSmoothingWindowSize(windowSize int) ProfileSmootherOption {
	return func(s *ProfileSmoother) {
		s.windowSize = windowSize
	}
}

// WithSmoothingPolyOrder sets the order of the fitted polynomial.
func WithSmoothingPolyOrder(polyOrder int) ProfileSmootherOption {
	return func(s *ProfileSmoother) {
		s.polyOrder = polyOrder
	}
}

// WithBoundaryMode sets the edge-extension policy.
func WithBoundaryMode(boundaryMode BoundaryMode) ProfileSmootherOption {
	return func(s *ProfileSmoother) {
		s.boundaryMode = boundaryMode
	}
}

// savitzkyGolayWeights returns the center-value convolution weights for a
// Savitzky-Golay filter. With A the Vandermonde matrix of the window offsets
// up to the polynomial order, the fitted center value is the first component
// of the least-squares solution, so the weights are A (A'A)^-1 e0.
func savitzkyGolayWeights(windowSize, polyOrder int) ([]float64, error) {
	half := windowSize / 2
	a := mat.NewDense(windowSize, polyOrder+1, nil)
	for r := range windowSize {
		offset := float64(r - half)
		power := 1.0
		for c := range polyOrder + 1 {
			a.Set(r, c, power)
			power *= offset
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	e0 := mat.NewVecDense(polyOrder+1, nil)
	e0.SetVec(0, 1)
	var z mat.VecDense
	if err := z.SolveVec(&ata, e0); err != nil {
		return nil, invariantViolationf("singular Savitzky-Golay system: %v", err)
	}
	var weights mat.VecDense
	weights.MulVec(a, &z)

	result := make([]float64, windowSize)
	copy(result, weights.RawVector().Data)
	return result, nil
}

// Smooth returns a smoothed copy of elevations. A window larger than the
// input is a DomainError.
func (s *ProfileSmoother) Smooth(elevations []float64) ([]float64, error) {
	n := len(elevations)
	if s.windowSize > n {
		return nil, domainErrorf("smoothing window %d larger than profile length %d", s.windowSize, n)
	}
	half := s.windowSize / 2
	smoothed := make([]float64, n)
	for i := range n {
		sum := 0.0
		for k, weight := range s.weights {
			sum += weight * elevations[s.extendIndex(i+k-half, n)]
		}
		smoothed[i] = sum
	}
	return smoothed, nil
}

// extendIndex maps an out-of-range index into [0, n) according to the
// boundary mode.
func (s *ProfileSmoother) extendIndex(i, n int) int {
	if 0 <= i && i < n {
		return i
	}
	switch s.boundaryMode {
	case BoundaryMirror:
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
		return i
	default: // BoundaryNearest
		if i < 0 {
			return 0
		}
		return n - 1
	}
}

// Resample linearly resamples elevations onto the distance grid 0, step,
// 2*step, ... up to but not including the final distance, plus the final
// distance itself, which is always preserved exactly. Distances must be
// strictly increasing.
func Resample(elevations, distances []float64, step float64) (newDistances, newElevations []float64, err error) {
	if len(elevations) != len(distances) {
		return nil, nil, domainErrorf("length mismatch: %d elevations, %d distances", len(elevations), len(distances))
	}
	if len(distances) < 2 {
		return nil, nil, domainErrorf("too few samples to resample: %d", len(distances))
	}
	if step <= 0 {
		return nil, nil, domainErrorf("non-positive step %g", step)
	}
	for i := 1; i < len(distances); i++ {
		if distances[i] <= distances[i-1] {
			return nil, nil, domainErrorf("non-monotonic distances at index %d: %g after %g", i, distances[i], distances[i-1])
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(distances, elevations); err != nil {
		return nil, nil, &DomainError{Message: err.Error()}
	}

	last := distances[len(distances)-1]
	n := int(math.Ceil(last / step))
	for n > 1 && float64(n-1)*step >= last {
		n--
	}
	newDistances = make([]float64, 0, n+1)
	newElevations = make([]float64, 0, n+1)
	for i := range n {
		d := float64(i) * step
		newDistances = append(newDistances, d)
		newElevations = append(newElevations, pl.Predict(d))
	}
	newDistances = append(newDistances, last)
	newElevations = append(newElevations, elevations[len(elevations)-1])
	return newDistances, newElevations, nil
}
