package elevationprofile

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// A BrunnelKind is a kind of brunnel: a bridge or a tunnel.
type BrunnelKind string

const (
	KindBridge BrunnelKind = "bridge"
	KindTunnel BrunnelKind = "tunnel"
)

// A Brunnel is a known bridge or tunnel structure crossing or carrying the
// path.
type Brunnel struct {
	Kind     BrunnelKind
	Geometry orb.LineString
	SRID     int
}

// A BrunnelInterval is a span of the path, in path-distance space, over which
// the raw terrain elevation is physically irrelevant and is replaced by
// linear interpolation. Synthetic intervals, constructed from the profile
// shape, carry no geometry.
type BrunnelInterval struct {
	Kind      BrunnelKind
	StartDist float64
	EndDist   float64
	geometry  orb.LineString
}

// Length returns the interval's length in path-distance space.
func (i BrunnelInterval) Length() float64 {
	return i.EndDist - i.StartDist
}

// Synthetic reports whether the interval was constructed from the profile
// shape rather than from a known structure.
func (i BrunnelInterval) Synthetic() bool {
	return i.geometry == nil
}

// A BrunnelCorrector replaces elevations inside brunnel intervals with
// linearly interpolated values.
type BrunnelCorrector struct {
	step                float64
	mergeDistance       float64
	filterBrunnelLength float64
	constructBrunnels   bool
	constructThreshold  float64
	maxBridgeLength     float64
	maxTunnelLength     float64
}

// A BrunnelCorrectorOption sets an option on a BrunnelCorrector.
type BrunnelCorrectorOption func(*BrunnelCorrector)

// NewBrunnelCorrector returns a new BrunnelCorrector for profiles sampled
// every step units.
func NewBrunnelCorrector(step float64, options ...BrunnelCorrectorOption) (*BrunnelCorrector, error) {
	if step <= 0 {
		return nil, domainErrorf("non-positive step %g", step)
	}
	c := &BrunnelCorrector{
		step:                step,
		mergeDistance:       10,
		filterBrunnelLength: 10,
		constructBrunnels:   true,
		constructThreshold:  3,
		maxBridgeLength:     300,
		maxTunnelLength:     300,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// WithMergeDistance sets the distance below which adjacent intervals are
// merged into one.
func WithMergeDistance(mergeDistance float64) BrunnelCorrectorOption {
	return func(c *BrunnelCorrector) {
		c.mergeDistance = mergeDistance
	}
}

// WithFilterBrunnelLength sets the geometric length below which known
// brunnels are ignored.
func WithFilterBrunnelLength(filterBrunnelLength float64) BrunnelCorrectorOption {
	return func(c *BrunnelCorrector) {
		c.filterBrunnelLength = filterBrunnelLength
	}
}

// WithConstructBrunnels enables or disables synthetic interval construction
// from steep regions of the profile.
func WithConstructBrunnels(constructBrunnels bool) BrunnelCorrectorOption {
	return func(c *BrunnelCorrector) {
		c.constructBrunnels = constructBrunnels
	}
}

// WithConstructThreshold sets the per-step elevation difference above which a
// steep region scan starts.
func WithConstructThreshold(constructThreshold float64) BrunnelCorrectorOption {
	return func(c *BrunnelCorrector) {
		c.constructThreshold = constructThreshold
	}
}

// WithMaxBridgeLength sets the maximum length of a synthetic bridge.
func WithMaxBridgeLength(maxBridgeLength float64) BrunnelCorrectorOption {
	return func(c *BrunnelCorrector) {
		c.maxBridgeLength = maxBridgeLength
	}
}

// WithMaxTunnelLength sets the maximum length of a synthetic tunnel.
func WithMaxTunnelLength(maxTunnelLength float64) BrunnelCorrectorOption {
	return func(c *BrunnelCorrector) {
		c.maxTunnelLength = maxTunnelLength
	}
}

// NormalizeIntervals projects the known brunnel geometries onto path,
// orients each interval forwards, sorts by start distance, merges intervals
// closer than the merge distance, and drops intervals whose geometric length
// is below the filter length.
func (c *BrunnelCorrector) NormalizeIntervals(path *Path, brunnels []Brunnel) ([]BrunnelInterval, error) {
	intervals := make([]BrunnelInterval, 0, len(brunnels))
	for _, brunnel := range brunnels {
		if brunnel.SRID != path.SRID() {
			return nil, &ReferenceMismatchError{Want: path.SRID(), Got: brunnel.SRID}
		}
		if len(brunnel.Geometry) < 2 {
			return nil, domainErrorf("brunnel geometry has %d points, need at least 2", len(brunnel.Geometry))
		}
		startDist := path.Project(brunnel.Geometry[0])
		endDist := path.Project(brunnel.Geometry[len(brunnel.Geometry)-1])
		if startDist > endDist {
			startDist, endDist = endDist, startDist
		}
		intervals = append(intervals, BrunnelInterval{
			Kind:      brunnel.Kind,
			StartDist: startDist,
			EndDist:   endDist,
			geometry:  slices.Clone(brunnel.Geometry),
		})
	}

	sortIntervals(intervals)

	var merged []BrunnelInterval
	for _, interval := range intervals {
		if len(merged) > 0 {
			previous := &merged[len(merged)-1]
			if interval.StartDist <= previous.EndDist+c.mergeDistance {
				previous.geometry = append(previous.geometry, interval.geometry...)
				previous.EndDist = max(previous.EndDist, interval.EndDist)
				continue
			}
		}
		merged = append(merged, interval)
	}

	filtered := make([]BrunnelInterval, 0, len(merged))
	for _, interval := range merged {
		if planar.Length(interval.geometry) > c.filterBrunnelLength {
			filtered = append(filtered, interval)
		}
	}
	return filtered, nil
}

// constructIntervals detects steep regions of the profile and constructs
// synthetic bridge and tunnel intervals across them. A steep descent opens a
// candidate bridge which closes at the first sample back at or above the
// starting elevation; a steep ascent opens a candidate tunnel which closes at
// the first sample back at or below it. Candidates longer than the respective
// maximum are discarded. The scan resumes after a closed span.
func (c *BrunnelCorrector) constructIntervals(elevations, distances []float64) []BrunnelInterval {
	n := len(elevations)
	diff := make([]float64, n)
	for i := 1; i < n; i++ {
		diff[i] = elevations[i] - elevations[i-1]
	}

	var constructed []BrunnelInterval
	for i := 0; i < n; i++ {
		switch {
		case diff[i] < -c.constructThreshold:
			for j := i + 1; j < n; j++ {
				if elevations[j] >= elevations[i] {
					if distances[j]-distances[i] <= c.maxBridgeLength {
						constructed = append(constructed, BrunnelInterval{
							Kind:      KindBridge,
							StartDist: distances[i],
							EndDist:   distances[j],
						})
					}
					i = j
					break
				}
			}
		case diff[i] > c.constructThreshold:
			for j := i + 1; j < n; j++ {
				if elevations[j] <= elevations[i] {
					if distances[j]-distances[i] <= c.maxTunnelLength {
						constructed = append(constructed, BrunnelInterval{
							Kind:      KindTunnel,
							StartDist: distances[i],
							EndDist:   distances[j],
						})
					}
					i = j
					break
				}
			}
		}
	}

	filtered := make([]BrunnelInterval, 0, len(constructed))
	for _, interval := range constructed {
		if interval.Length() > c.step {
			filtered = append(filtered, interval)
		}
	}
	return filtered
}

// overlapsAny reports whether interval overlaps, is contained within, or
// contains any of intervals.
func overlapsAny(interval BrunnelInterval, intervals []BrunnelInterval) bool {
	for _, other := range intervals {
		startIn := other.StartDist <= interval.StartDist && interval.StartDist <= other.EndDist
		endIn := other.StartDist <= interval.EndDist && interval.EndDist <= other.EndDist
		around := interval.StartDist <= other.StartDist && other.EndDist <= interval.EndDist
		if startIn || endIn || around {
			return true
		}
	}
	return false
}

// Correct overwrites profile's elevations inside every brunnel interval with
// linearly interpolated values. If synthetic construction is enabled, steep
// regions of the profile not covered by a known interval are corrected too;
// known intervals always take precedence. It returns the final interval set,
// sorted by start distance. More than one interval covering a single sample
// is an InvariantViolationError.
func (c *BrunnelCorrector) Correct(profile *Profile, known []BrunnelInterval) ([]BrunnelInterval, error) {
	intervals := slices.Clone(known)
	if c.constructBrunnels {
		for _, interval := range c.constructIntervals(profile.Elevations, profile.Distances) {
			if !overlapsAny(interval, known) {
				intervals = append(intervals, interval)
			}
		}
	}
	sortIntervals(intervals)

	if len(intervals) == 0 {
		return intervals, nil
	}

	n := profile.Len()
	elevations := profile.Elevations
	// Boundary elevations are read from the uncorrected profile so that
	// corrections never feed into each other.
	source := slices.Clone(elevations)
	for i, x := range profile.Distances {
		covering := -1
		for index, interval := range intervals {
			if interval.StartDist <= x && x <= interval.EndDist {
				if covering >= 0 {
					return nil, invariantViolationf("sample at distance %g covered by both [%g, %g] and [%g, %g]",
						x, intervals[covering].StartDist, intervals[covering].EndDist, interval.StartDist, interval.EndDist)
				}
				covering = index
			}
		}
		if covering < 0 {
			continue
		}
		interval := intervals[covering]

		// One sample of buffer on each side of the interval.
		startIdx := int(math.Round(interval.StartDist/c.step)) - 1
		endIdx := int(math.Round(interval.EndDist/c.step)) + 1
		if startIdx >= n {
			return nil, &BoundsError{What: "brunnel buffer index", Min: 0, Max: n - 1, Got: startIdx}
		}
		if endIdx < 0 {
			return nil, &BoundsError{What: "brunnel buffer index", Min: 0, Max: n - 1, Got: endIdx}
		}

		var startEle, endEle float64
		haveStart := startIdx > 0
		haveEnd := endIdx < n-1
		if haveStart {
			startEle = source[startIdx]
		}
		if haveEnd {
			endEle = source[endIdx]
		}
		switch {
		case !haveStart && !haveEnd:
			// The interval spans the entire profile.
			startEle = source[0]
			endEle = source[n-1]
		case !haveStart:
			startEle = endEle
		case !haveEnd:
			endEle = startEle
		}

		x1 := interval.StartDist - c.step
		x2 := interval.EndDist + c.step
		m := (endEle - startEle) / (x2 - x1)
		elevations[i] = startEle + m*(x-x1)
	}

	return intervals, nil
}

func sortIntervals(intervals []BrunnelInterval) {
	slices.SortStableFunc(intervals, func(a, b BrunnelInterval) int {
		return cmp.Compare(a.StartDist, b.StartDist)
	})
}
