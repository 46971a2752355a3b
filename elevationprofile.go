// Package elevationprofile derives corrected, smoothed elevation profiles
// along paths from gridded elevation data. Raw terrain elevations under
// bridges and tunnels are replaced by linear interpolation, canopy noise over
// forested terrain is damped, and the result is smoothed and resampled so
// that per-segment inclinations can be computed from it.
package elevationprofile

import "context"

// A Cell is a raster cell index.
type Cell struct {
	Row int
	Col int
}

// A Grid is a read-only gridded elevation surface in a projected coordinate
// reference system. Implementations must be safe for concurrent use.
type Grid interface {
	// SRID returns the EPSG code of the grid's coordinate reference system.
	SRID() int

	// Extent returns the number of rows and columns.
	Extent() (rows, cols int)

	// CellAt returns the cell containing the coordinate (x, y). The returned
	// cell may lie outside the extent.
	CellAt(x, y float64) Cell

	// CellCenter returns the coordinate of the center of cell.
	CellCenter(cell Cell) (x, y float64)

	// Values returns the elevation values at cells. Cells inside the extent
	// with no data are represented by NaNs. Cells outside the extent are an
	// error.
	Values(ctx context.Context, cells []Cell) ([]float64, error)
}

// A Profile is an ordered sequence of elevation samples along a path. All
// slices have the same length and are index-aligned. Distances are
// non-decreasing, start at 0, and end at the total path length. X, Y, and
// Distances are never mutated after construction; Elevations are overwritten
// in place by the correction stages.
type Profile struct {
	X          []float64
	Y          []float64
	Distances  []float64
	Elevations []float64
}

// Len returns the number of samples in p.
func (p *Profile) Len() int {
	return len(p.Distances)
}
