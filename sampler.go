package elevationprofile

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// A RasterSampler answers point elevation queries against a Grid, optionally
// with bicubic interpolation.
type RasterSampler struct {
	grid Grid
}

// NewRasterSampler returns a new RasterSampler sampling from grid.
func NewRasterSampler(grid Grid) *RasterSampler {
	return &RasterSampler{grid: grid}
}

// Grid returns s's grid.
func (s *RasterSampler) Grid() Grid {
	return s.grid
}

// neighborhoodOffsets returns the row and column offset ranges, relative to
// the cell containing the query point, of the 4x4 neighborhood used for
// bicubic interpolation. The ranges are chosen per quadrant so that the query
// point is interior to the fitted surface: two rows/cols on one side of the
// containing cell and one on the other.
func neighborhoodOffsets(east, north bool) (rowFrom, rowTo, colFrom, colTo int) {
	switch {
	case !east && !north:
		return -1, 2, -2, 1
	case east && !north:
		return -1, 2, -1, 2
	case east && north:
		return -2, 1, -1, 2
	default: // !east && north
		return -2, 1, -2, 1
	}
}

// Sample returns the elevation at (x, y). With interpolated false it returns
// the raw value of the cell containing the point. With interpolated true it
// fits a bicubic surface through the 16 cells of the quadrant-dependent 4x4
// neighborhood and evaluates it at (x, y). A neighborhood that extends beyond
// the grid is a BoundsError.
func (s *RasterSampler) Sample(ctx context.Context, x, y float64, interpolated bool) (float64, error) {
	cell := s.grid.CellAt(x, y)

	if !interpolated {
		values, err := s.grid.Values(ctx, []Cell{cell})
		if err != nil {
			return 0, err
		}
		return values[0], nil
	}

	centerX, centerY := s.grid.CellCenter(cell)
	rowFrom, rowTo, colFrom, colTo := neighborhoodOffsets(x >= centerX, y >= centerY)

	rows, cols := s.grid.Extent()
	if r := cell.Row + rowFrom; r < 0 {
		return 0, &BoundsError{What: "neighborhood row", Min: 0, Max: rows - 1, Got: r}
	}
	if r := cell.Row + rowTo; rows <= r {
		return 0, &BoundsError{What: "neighborhood row", Min: 0, Max: rows - 1, Got: r}
	}
	if c := cell.Col + colFrom; c < 0 {
		return 0, &BoundsError{What: "neighborhood col", Min: 0, Max: cols - 1, Got: c}
	}
	if c := cell.Col + colTo; cols <= c {
		return 0, &BoundsError{What: "neighborhood col", Min: 0, Max: cols - 1, Got: c}
	}

	cells := make([]Cell, 0, 16)
	for r := cell.Row + rowFrom; r <= cell.Row+rowTo; r++ {
		for c := cell.Col + colFrom; c <= cell.Col+colTo; c++ {
			cells = append(cells, Cell{Row: r, Col: c})
		}
	}
	values, err := s.grid.Values(ctx, cells)
	if err != nil {
		return 0, err
	}

	xs := make([]float64, len(cells))
	ys := make([]float64, len(cells))
	for i, c := range cells {
		xs[i], ys[i] = s.grid.CellCenter(c)
	}

	return evaluateBicubic(xs, ys, values, x, y)
}

// evaluateBicubic fits the bicubic surface through the 16 support points
// (xs[i], ys[i], values[i]) and evaluates it at (x, y). Coordinates are
// normalized to cell units relative to the first support point to keep the
// Vandermonde system well conditioned.
func evaluateBicubic(xs, ys, values []float64, x, y float64) (float64, error) {
	// The support points form a 4x4 grid in row-major order, so adjacent
	// columns differ in x and adjacent rows in y.
	scaleX := xs[1] - xs[0]
	scaleY := ys[4] - ys[0]

	a := mat.NewDense(16, 16, nil)
	for k := range 16 {
		u := (xs[k] - xs[0]) / scaleX
		v := (ys[k] - ys[0]) / scaleY
		uPow, vPow := powers(u), powers(v)
		for i := range 4 {
			for j := range 4 {
				a.Set(k, 4*i+j, uPow[i]*vPow[j])
			}
		}
	}

	z := mat.NewVecDense(16, values)
	var coefficients mat.VecDense
	if err := coefficients.SolveVec(a, z); err != nil {
		return 0, invariantViolationf("singular bicubic system: %v", err)
	}

	uPow := powers((x - xs[0]) / scaleX)
	vPow := powers((y - ys[0]) / scaleY)
	e := 0.0
	for i := range 4 {
		for j := range 4 {
			e += coefficients.AtVec(4*i+j) * uPow[i] * vPow[j]
		}
	}
	return e, nil
}

func powers(t float64) [4]float64 {
	return [4]float64{1, t, t * t, t * t * t}
}
