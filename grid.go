package elevationprofile

import (
	"context"
	"math"
)

// A MemoryGrid is a dense in-memory elevation grid with a north-up affine
// transform: cell (0, 0) has its top-left corner at (originX, originY), rows
// increase southwards, columns increase eastwards. Immutable after
// construction.
type MemoryGrid struct {
	values  [][]float64
	rows    int
	cols    int
	originX float64
	originY float64
	scaleX  float64
	scaleY  float64
	srid    int
}

// NewMemoryGrid returns a new MemoryGrid wrapping values. All rows must have
// the same length and scales must be positive.
func NewMemoryGrid(values [][]float64, originX, originY, scaleX, scaleY float64, srid int) (*MemoryGrid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, domainErrorf("empty grid")
	}
	cols := len(values[0])
	for _, row := range values {
		if len(row) != cols {
			return nil, domainErrorf("ragged grid: row length %d != %d", len(row), cols)
		}
	}
	if scaleX <= 0 || scaleY <= 0 {
		return nil, domainErrorf("non-positive cell size %gx%g", scaleX, scaleY)
	}
	return &MemoryGrid{
		values:  values,
		rows:    len(values),
		cols:    cols,
		originX: originX,
		originY: originY,
		scaleX:  scaleX,
		scaleY:  scaleY,
		srid:    srid,
	}, nil
}

// SRID returns g's SRID.
func (g *MemoryGrid) SRID() int {
	return g.srid
}

// Extent returns g's extent in cells.
func (g *MemoryGrid) Extent() (int, int) {
	return g.rows, g.cols
}

// CellAt returns the cell containing (x, y).
func (g *MemoryGrid) CellAt(x, y float64) Cell {
	return Cell{
		Row: int(math.Floor((g.originY - y) / g.scaleY)),
		Col: int(math.Floor((x - g.originX) / g.scaleX)),
	}
}

// CellCenter returns the coordinate of the center of cell.
func (g *MemoryGrid) CellCenter(cell Cell) (float64, float64) {
	x := g.originX + (float64(cell.Col)+0.5)*g.scaleX
	y := g.originY - (float64(cell.Row)+0.5)*g.scaleY
	return x, y
}

// Values returns the elevation values at cells.
func (g *MemoryGrid) Values(ctx context.Context, cells []Cell) ([]float64, error) {
	values := make([]float64, len(cells))
	for i, cell := range cells {
		if cell.Row < 0 || g.rows <= cell.Row {
			return nil, &BoundsError{What: "row", Min: 0, Max: g.rows - 1, Got: cell.Row}
		}
		if cell.Col < 0 || g.cols <= cell.Col {
			return nil, &BoundsError{What: "col", Min: 0, Max: g.cols - 1, Got: cell.Col}
		}
		values[i] = g.values[cell.Row][cell.Col]
	}
	return values, nil
}
