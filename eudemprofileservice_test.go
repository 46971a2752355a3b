package elevationprofile_test

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb"

	elevationprofile "github.com/railtrip/go-elevationprofile"
)

func TestEUDEMProfileService_Profile4326(t *testing.T) {
	fsys := os.DirFS("testdata/eu_dem")
	service, err := elevationprofile.NewEUDEMProfileService(fsys,
		elevationprofile.WithForestHeightAdjusterOptions(elevationprofile.WithForestWindowSize(3)),
		elevationprofile.WithProfileSmootherOptions(
			elevationprofile.WithSmoothingWindowSize(11),
			elevationprofile.WithSmoothingPolyOrder(3),
		),
	)
	assert.NoError(t, err)

	for _, tc := range []struct {
		name       string
		filename   string
		lineString orb.LineString
	}{
		{
			name:     "azores",
			filename: "eu_dem_v11_E00N20.TIF",
			lineString: orb.LineString{
				{-31.216667, 39.466667},
				{-31.206667, 39.466667},
			},
		},
		{
			name:     "la_plagne",
			filename: "eu_dem_v11_E40N20.TIF",
			lineString: orb.LineString{
				{6.6771972, 45.505288300000004},
				{6.6871972, 45.505288300000004},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fsys.(fs.StatFS).Stat(tc.filename); errors.Is(err, fs.ErrNotExist) {
				t.Skip(err)
			}

			result, err := service.Profile4326(t.Context(), tc.lineString, nil)
			assert.NoError(t, err)

			assert.True(t, result.Profile.Len() > 11)
			assert.Equal(t, len(result.ResampledDistances), len(result.SmoothedElevations))
			assert.Equal(t, len(result.ResampledDistances)-1, len(result.Inclinations))
			assert.Equal(t, 0.0, result.ResampledDistances[0])
			for i := 1; i < len(result.ResampledDistances); i++ {
				assert.True(t, result.ResampledDistances[i] > result.ResampledDistances[i-1])
			}
			for _, elevation := range result.SmoothedElevations {
				assert.False(t, math.IsNaN(elevation))
			}
		})
	}
}

func TestEUDEMProfileService_Profile4326ReprojectsBrunnels(t *testing.T) {
	fsys := os.DirFS("testdata/eu_dem")
	if _, err := fsys.(fs.StatFS).Stat("eu_dem_v11_E00N20.TIF"); errors.Is(err, fs.ErrNotExist) {
		t.Skip(err)
	}

	service, err := elevationprofile.NewEUDEMProfileService(fsys,
		elevationprofile.WithBrunnelCorrectorOptions(elevationprofile.WithConstructBrunnels(false)),
		elevationprofile.WithForestHeightAdjusterOptions(elevationprofile.WithForestWindowSize(3)),
		elevationprofile.WithProfileSmootherOptions(
			elevationprofile.WithSmoothingWindowSize(11),
			elevationprofile.WithSmoothingPolyOrder(3),
		),
	)
	assert.NoError(t, err)

	lineString := orb.LineString{
		{-31.216667, 39.466667},
		{-31.206667, 39.466667},
	}
	brunnels := []elevationprofile.Brunnel{
		{
			Kind: elevationprofile.KindBridge,
			Geometry: orb.LineString{
				{-31.214667, 39.466667},
				{-31.210667, 39.466667},
			},
			SRID: 4326,
		},
	}

	result, err := service.Profile4326(t.Context(), lineString, brunnels)
	assert.NoError(t, err)

	// The brunnel is reprojected alongside the path, so it lands inside the
	// profile's distance range.
	assert.Equal(t, 1, len(result.Intervals))
	assert.True(t, result.Intervals[0].StartDist >= 0)
	assert.True(t, result.Intervals[0].EndDist <= result.Profile.Distances[result.Profile.Len()-1])
	assert.True(t, result.Intervals[0].StartDist < result.Intervals[0].EndDist)
	assert.False(t, result.Intervals[0].Synthetic())
}
