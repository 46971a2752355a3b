package elevationprofile

import (
	"fmt"
	"io/fs"
	"math"
	"slices"
)

// EU-DEM v1.1 tiling: 1000000x1000000 unit files of 25m cells in EPSG:3035,
// covering [0, 8000000) x [0, 6000000).
const (
	euDEMScale    = 25
	euDEMTileSize = 1000000
	euDEMMaxX     = 8000000
	euDEMMaxY     = 6000000
)

// NewEUDEM returns a new GeoTIFFGridSet over an EU-DEM v1.1 file set.
func NewEUDEM(fsys fs.FS, options ...GeoTIFFGridSetOption) (*GeoTIFFGridSet, error) {
	return NewGeoTIFFGridSet(slices.Concat(
		[]GeoTIFFGridSetOption{
			WithFS(fsys),
			WithSRID(3035),
			WithScale(euDEMScale, euDEMScale),
			WithCoverage(0, euDEMMaxY, euDEMMaxY/euDEMScale, euDEMMaxX/euDEMScale),
			WithTileCoordFunc(func(x, y float64) (TileCoord, bool) {
				if x < 0 || euDEMMaxX <= x || y < 0 || euDEMMaxY <= y {
					return TileCoord{}, false
				}
				return TileCoord{
					C: 10 * int(math.Floor(x/euDEMTileSize)),
					R: 10 * int(math.Floor(y/euDEMTileSize)),
				}, true
			}),
			WithTileFilenameFunc(func(tileCoord TileCoord) string {
				return fmt.Sprintf("eu_dem_v11_E%02dN%02d.TIF", tileCoord.C, tileCoord.R)
			}),
		},
		options,
	)...)
}
