package elevationprofile_test

import (
	"errors"
	"io/fs"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"

	elevationprofile "github.com/railtrip/go-elevationprofile"
)

func TestEUDEM_Values(t *testing.T) {
	if _, err := os.Stat("testdata/eu_dem"); errors.Is(err, fs.ErrNotExist) {
		t.Skip("missing eu_dem test data")
	}

	fsys := os.DirFS("testdata/eu_dem")
	euDEM, err := elevationprofile.NewEUDEM(fsys)
	assert.NoError(t, err)

	assert.Equal(t, 3035, euDEM.SRID())

	for i, tc := range []struct {
		requiredFiles []string
		coords        [][2]float64
		expected      []float64
	}{
		{
			requiredFiles: []string{
				"eu_dem_v11_E00N20.TIF",
			},
			coords: [][2]float64{
				{970705, 2789764},
				{971739, 2793094},
				{969236, 2787499},
				{950258, 2769570},
			},
			expected: []float64{
				517, // QGIS says 518.
				79,
				6,   // QGIS says 13.
				586, // QGIS says 593.
			},
		},
		{
			requiredFiles: []string{
				"eu_dem_v11_E00N20.TIF",
				"eu_dem_v11_E40N20.TIF",
			},
			coords: [][2]float64{
				{970705, 2789764},
				{4077237, 2529389},
				{971739, 2793094},
				{4076693, 2596393},
				{969236, 2787499},
				{4207185, 2673691},
				{950258, 2769570},
			},
			expected: []float64{
				517, // QGIS says 518.
				4712.9130859375,
				79,
				371.88299560546875,
				6, // QGIS says 13.
				410.583984375,
				586, // QGIS says 593.
			},
		},
		{
			requiredFiles: []string{
				"eu_dem_v11_E30N50.TIF",
			},
			coords: [][2]float64{
				{3030012, 5003477},
				{3073197, 5027135},
				{3175655, 5026595},
			},
			expected: []float64{
				1141.1373291015625, // QGIS says 1136.0043.
				892.5265502929688,  // QGIS says 889.7675.
				94.63605499267578,  // QGIS says 92.92097.
			},
		},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			for _, filename := range tc.requiredFiles {
				if _, err := fsys.(fs.StatFS).Stat(filename); errors.Is(err, fs.ErrNotExist) {
					t.Skip(err)
				}
			}
			cells := make([]elevationprofile.Cell, len(tc.coords))
			for i, coord := range tc.coords {
				cells[i] = euDEM.CellAt(coord[0], coord[1])
			}
			actual, err := euDEM.Values(t.Context(), cells)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestEUDEM_MissingFile(t *testing.T) {
	if _, err := os.Stat("testdata/eu_dem"); errors.Is(err, fs.ErrNotExist) {
		t.Skip("missing eu_dem test data")
	}

	euDEM, err := elevationprofile.NewEUDEM(os.DirFS("testdata/eu_dem"))
	assert.NoError(t, err)

	// A coordinate in a tile with no file is NaN, not an error.
	values, err := euDEM.Values(t.Context(), []elevationprofile.Cell{
		euDEM.CellAt(7500000, 500000),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(values))
	assert.True(t, math.IsNaN(values[0]))
}

func BenchmarkSingleTileSingleValue(b *testing.B) {
	r := rand.New(rand.NewPCG(0, 0))
	euDEM, err := elevationprofile.NewEUDEM(os.DirFS("testdata/eu_dem"))
	assert.NoError(b, err)
	b.ResetTimer()
	for range b.N {
		cell := euDEM.CellAt(float64(947000+r.IntN(7000)), float64(2766000+r.IntN(7000)))
		values, err := euDEM.Values(b.Context(), []elevationprofile.Cell{cell})
		assert.NoError(b, err)
		assert.Equal(b, 1, len(values))
		assert.False(b, math.IsNaN(values[0]))
	}
}

func BenchmarkSingleTileSixteenCloseValues(b *testing.B) {
	r := rand.New(rand.NewPCG(0, 0))
	euDEM, err := elevationprofile.NewEUDEM(os.DirFS("testdata/eu_dem"))
	assert.NoError(b, err)
	b.ResetTimer()
	for range b.N {
		cells := make([]elevationprofile.Cell, 16)
		for i := range cells {
			cells[i] = euDEM.CellAt(float64(947000+r.IntN(7000)), float64(2766000+r.IntN(7000)))
		}
		values, err := euDEM.Values(b.Context(), cells)
		assert.NoError(b, err)
		assert.Equal(b, len(cells), len(values))
		for _, value := range values {
			assert.False(b, math.IsNaN(value))
		}
	}
}
