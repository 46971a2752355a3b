package elevationprofile

import (
	"context"

	"github.com/rs/zerolog"
)

// A Pipeline runs the full profile computation: build the raw profile, correct
// brunnels, adjust forest height, smooth, resample, and compute inclinations.
// A Pipeline is safe for concurrent use; each run owns its own profile.
type Pipeline struct {
	grid         Grid
	step         float64
	interpolated bool
	resampleStep float64
	angles       bool
	builder      *ProfileBuilder
	corrector    *BrunnelCorrector
	adjuster     *ForestHeightAdjuster
	smoother     *ProfileSmoother
	logger       zerolog.Logger

	correctorOptions []BrunnelCorrectorOption
	adjusterOptions  []ForestHeightAdjusterOption
	smootherOptions  []ProfileSmootherOption
}

// A PipelineOption sets an option on a Pipeline.
type PipelineOption func(*Pipeline)

// A Result is the output of a pipeline run. Elevations is the raw sampled
// profile; CorrectedElevations is the profile after brunnel correction and
// forest height adjustment; SmoothedElevations, ResampledDistances, and
// Inclinations are the smoothed profile resampled onto a fixed-distance grid
// and its per-segment slopes. Intervals is the final brunnel interval set for
// inspection.
type Result struct {
	Profile             *Profile
	CorrectedElevations []float64
	SmoothedElevations  []float64
	ResampledDistances  []float64
	Inclinations        []float64
	Intervals           []BrunnelInterval
}

// NewPipeline returns a new Pipeline sampling from grid.
func NewPipeline(grid Grid, options ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		grid:         grid,
		step:         10,
		interpolated: true,
		resampleStep: 10,
		logger:       zerolog.Nop(),
	}
	for _, option := range options {
		option(p)
	}

	sampler := NewRasterSampler(grid)
	var err error
	if p.builder, err = NewProfileBuilder(sampler, p.step, p.interpolated); err != nil {
		return nil, err
	}
	if p.corrector, err = NewBrunnelCorrector(p.step, p.correctorOptions...); err != nil {
		return nil, err
	}
	if p.adjuster, err = NewForestHeightAdjuster(p.adjusterOptions...); err != nil {
		return nil, err
	}
	if p.smoother, err = NewProfileSmoother(p.smootherOptions...); err != nil {
		return nil, err
	}
	return p, nil
}

// WithStep sets the sample step distance along the path.
func WithStep(step float64) PipelineOption {
	return func(p *Pipeline) {
		p.step = step
	}
}

// WithInterpolated enables or disables bicubic interpolation of samples.
func WithInterpolated(interpolated bool) PipelineOption {
	return func(p *Pipeline) {
		p.interpolated = interpolated
	}
}

// WithResampleStep sets the distance grid step of the resampled output.
func WithResampleStep(resampleStep float64) PipelineOption {
	return func(p *Pipeline) {
		p.resampleStep = resampleStep
	}
}

// WithAngles makes inclinations slope angles instead of permille gradients.
func WithAngles(angles bool) PipelineOption {
	return func(p *Pipeline) {
		p.angles = angles
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithBrunnelCorrectorOptions passes options to the pipeline's
// BrunnelCorrector.
func WithBrunnelCorrectorOptions(options ...BrunnelCorrectorOption) PipelineOption {
	return func(p *Pipeline) {
		p.correctorOptions = append(p.correctorOptions, options...)
	}
}

// WithForestHeightAdjusterOptions passes options to the pipeline's
// ForestHeightAdjuster.
func WithForestHeightAdjusterOptions(options ...ForestHeightAdjusterOption) PipelineOption {
	return func(p *Pipeline) {
		p.adjusterOptions = append(p.adjusterOptions, options...)
	}
}

// WithProfileSmootherOptions passes options to the pipeline's
// ProfileSmoother.
func WithProfileSmootherOptions(options ...ProfileSmootherOption) PipelineOption {
	return func(p *Pipeline) {
		p.smootherOptions = append(p.smootherOptions, options...)
	}
}

// Run computes the corrected, smoothed elevation profile of path and its
// inclinations. brunnels are known bridge and tunnel structures in the grid's
// coordinate reference system.
func (p *Pipeline) Run(ctx context.Context, path *Path, brunnels []Brunnel) (*Result, error) {
	profile, err := p.builder.Build(ctx, path)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Int("srid", p.grid.SRID()).
		Int("samples", profile.Len()).
		Float64("length", path.Length()).
		Msg("built profile")

	known, err := p.corrector.NormalizeIntervals(path, brunnels)
	if err != nil {
		return nil, err
	}
	intervals, err := p.corrector.Correct(profile, known)
	if err != nil {
		return nil, err
	}
	for _, interval := range intervals {
		p.logger.Debug().
			Str("kind", string(interval.Kind)).
			Float64("start", interval.StartDist).
			Float64("end", interval.EndDist).
			Float64("length", interval.Length()).
			Bool("synthetic", interval.Synthetic()).
			Msg("corrected brunnel interval")
	}

	if err := p.adjuster.Adjust(profile.Elevations); err != nil {
		return nil, err
	}
	corrected := make([]float64, profile.Len())
	copy(corrected, profile.Elevations)

	smoothed, err := p.smoother.Smooth(profile.Elevations)
	if err != nil {
		return nil, err
	}
	resampledDistances, resampledElevations, err := Resample(smoothed, profile.Distances, p.resampleStep)
	if err != nil {
		return nil, err
	}
	inclinations, err := Inclinations(resampledElevations, resampledDistances, p.angles)
	if err != nil {
		return nil, err
	}

	return &Result{
		Profile:             profile,
		CorrectedElevations: corrected,
		SmoothedElevations:  resampledElevations,
		ResampledDistances:  resampledDistances,
		Inclinations:        inclinations,
		Intervals:           intervals,
	}, nil
}
