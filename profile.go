package elevationprofile

import (
	"context"
	"math"
)

// A ProfileBuilder walks a path at a fixed step distance and samples the
// elevation at each step.
type ProfileBuilder struct {
	sampler      *RasterSampler
	step         float64
	interpolated bool
}

// NewProfileBuilder returns a new ProfileBuilder sampling with sampler every
// step units along the path.
func NewProfileBuilder(sampler *RasterSampler, step float64, interpolated bool) (*ProfileBuilder, error) {
	if step <= 0 {
		return nil, domainErrorf("non-positive step %g", step)
	}
	return &ProfileBuilder{
		sampler:      sampler,
		step:         step,
		interpolated: interpolated,
	}, nil
}

// Step returns b's step distance.
func (b *ProfileBuilder) Step() float64 {
	return b.step
}

// Build returns the elevation profile of path. Sample distances are 0, step,
// 2*step, ... up to but not including the path length, plus the exact path
// end point, whose final segment may be shorter than step. The path must be
// in the same coordinate reference system as the grid.
func (b *ProfileBuilder) Build(ctx context.Context, path *Path) (*Profile, error) {
	if srid := b.sampler.Grid().SRID(); path.SRID() != srid {
		return nil, &ReferenceMismatchError{Want: srid, Got: path.SRID()}
	}

	length := path.Length()
	n := int(math.Ceil(length / b.step))
	if n < 1 {
		n = 1
	}
	// Sample distances must stay strictly below the path length so that the
	// appended end point keeps distances strictly increasing.
	for n > 1 && float64(n-1)*b.step >= length {
		n--
	}

	profile := &Profile{
		X:          make([]float64, 0, n+1),
		Y:          make([]float64, 0, n+1),
		Distances:  make([]float64, 0, n+1),
		Elevations: make([]float64, 0, n+1),
	}
	for i := range n {
		distance := float64(i) * b.step
		if err := b.appendSample(ctx, profile, path, distance); err != nil {
			return nil, err
		}
	}
	if err := b.appendSample(ctx, profile, path, length); err != nil {
		return nil, err
	}
	return profile, nil
}

func (b *ProfileBuilder) appendSample(ctx context.Context, profile *Profile, path *Path, distance float64) error {
	point := path.PointAtDistance(distance)
	elevation, err := b.sampler.Sample(ctx, point[0], point[1], b.interpolated)
	if err != nil {
		return err
	}
	profile.X = append(profile.X, point[0])
	profile.Y = append(profile.Y, point[1])
	profile.Distances = append(profile.Distances, distance)
	profile.Elevations = append(profile.Elevations, elevation)
	return nil
}
