package elevationprofile

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missingTileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elevation_profile_missing_tile_cache_hits_total",
		Help: "The total number of hits on the missing tile cache",
	})
	missingTileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elevation_profile_missing_tile_cache_misses_total",
		Help: "The total number of misses on the missing tile cache",
	})
	globalTileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elevation_profile_global_tile_cache_hits_total",
		Help: "The total number of hits on the global tile cache",
	})
	globalTileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elevation_profile_global_tile_cache_misses_total",
		Help: "The total number of misses on the global tile cache",
	})
	globalTileCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elevation_profile_global_tile_cache_evictions_total",
		Help: "The total number of evictions from the global tile cache",
	})
)

// A TileCoord addresses a GeoTIFF file within a GeoTIFFGridSet.
type TileCoord struct {
	C int // Column.
	R int // Row.
}

// A TileCoordFunc returns the tile coordinate of the file covering a world
// coordinate.
type TileCoordFunc func(x, y float64) (TileCoord, bool)

// A TileFilenameFunc returns the filename of the file at a tile coordinate.
type TileFilenameFunc func(TileCoord) string

// A GeoTIFFGridSet is a Grid backed by a mosaic of GeoTIFF files on a regular
// tiling, such as EU-DEM. Files are opened lazily and kept in an LRU cache;
// files that do not exist are remembered so that they are only probed once.
type GeoTIFFGridSet struct {
	mutex              sync.Mutex
	fsys               fs.FS
	srid               int
	tileCoordFunc      TileCoordFunc
	tileFilenameFunc   TileFilenameFunc
	missingTiles       sync.Map
	geoTIFFGridOptions []GeoTIFFGridOption
	cacheSize          int
	scaleX             float64
	scaleY             float64
	originX            float64
	originY            float64
	rows               int
	cols               int
	geoTIFFGridCache   *lru.Cache[TileCoord, *GeoTIFFGrid]
}

// A GeoTIFFGridSetOption sets an option on a GeoTIFFGridSet.
type GeoTIFFGridSetOption func(*GeoTIFFGridSet)

// NewGeoTIFFGridSet returns a new GeoTIFFGridSet with the given options.
func NewGeoTIFFGridSet(options ...GeoTIFFGridSetOption) (*GeoTIFFGridSet, error) {
	s := &GeoTIFFGridSet{
		cacheSize: 32,
	}
	for _, option := range options {
		option(s)
	}
	if s.scaleX <= 0 || s.scaleY <= 0 {
		return nil, domainErrorf("non-positive cell size %gx%g", s.scaleX, s.scaleY)
	}
	if s.rows <= 0 || s.cols <= 0 {
		return nil, domainErrorf("empty coverage %dx%d", s.rows, s.cols)
	}

	var err error
	s.geoTIFFGridCache, err = lru.NewWithEvict(s.cacheSize, func(key TileCoord, value *GeoTIFFGrid) {
		value.Close()
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// WithCacheSize sets the maximum number of files kept open.
func WithCacheSize(cacheSize int) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.cacheSize = cacheSize
	}
}

// WithFS sets the filesystem the files are read from.
func WithFS(fsys fs.FS) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.fsys = fsys
	}
}

// WithGeoTIFFGridOptions sets the options applied to each opened file.
func WithGeoTIFFGridOptions(geoTIFFGridOptions ...GeoTIFFGridOption) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.geoTIFFGridOptions = geoTIFFGridOptions
	}
}

// WithTileCoordFunc sets the function mapping world coordinates to file tile
// coordinates.
func WithTileCoordFunc(tileCoordFunc TileCoordFunc) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.tileCoordFunc = tileCoordFunc
	}
}

// WithSRID sets the SRID of the mosaic's coordinate reference system.
func WithSRID(srid int) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.srid = srid
	}
}

// WithScale sets the cell size.
func WithScale(scaleX, scaleY float64) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.scaleX = scaleX
		s.scaleY = scaleY
	}
}

// WithCoverage sets the mosaic's coverage: the world coordinate of its
// top-left corner and its extent in cells.
func WithCoverage(originX, originY float64, rows, cols int) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.originX = originX
		s.originY = originY
		s.rows = rows
		s.cols = cols
	}
}

// WithTileFilenameFunc sets the function mapping tile coordinates to
// filenames.
func WithTileFilenameFunc(tileFilenameFunc TileFilenameFunc) GeoTIFFGridSetOption {
	return func(s *GeoTIFFGridSet) {
		s.tileFilenameFunc = tileFilenameFunc
	}
}

// SRID returns s's SRID.
func (s *GeoTIFFGridSet) SRID() int {
	return s.srid
}

// Extent returns s's extent in cells.
func (s *GeoTIFFGridSet) Extent() (int, int) {
	return s.rows, s.cols
}

// CellAt returns the cell containing (x, y).
func (s *GeoTIFFGridSet) CellAt(x, y float64) Cell {
	return Cell{
		Row: int(math.Floor((s.originY - y) / s.scaleY)),
		Col: int(math.Floor((x - s.originX) / s.scaleX)),
	}
}

// CellCenter returns the coordinate of the center of cell.
func (s *GeoTIFFGridSet) CellCenter(cell Cell) (float64, float64) {
	x := s.originX + (float64(cell.Col)+0.5)*s.scaleX
	y := s.originY - (float64(cell.Row)+0.5)*s.scaleY
	return x, y
}

// Values returns the elevation values at cells. Cells covered by no file are
// NaN; cells outside the coverage are a BoundsError.
func (s *GeoTIFFGridSet) Values(ctx context.Context, cells []Cell) ([]float64, error) {
	values := make([]float64, len(cells))

	// Group indexes by tile coord.
	type groupStruct struct {
		cells   []Cell
		indexes []int
	}
	groupsByTileCoord := make(map[TileCoord]groupStruct)
	for index, cell := range cells {
		if cell.Row < 0 || s.rows <= cell.Row {
			return nil, &BoundsError{What: "row", Min: 0, Max: s.rows - 1, Got: cell.Row}
		}
		if cell.Col < 0 || s.cols <= cell.Col {
			return nil, &BoundsError{What: "col", Min: 0, Max: s.cols - 1, Got: cell.Col}
		}
		x, y := s.CellCenter(cell)
		tileCoord, ok := s.tileCoordFunc(x, y)
		if !ok {
			values[index] = math.NaN()
			continue
		}
		group := groupsByTileCoord[tileCoord]
		group.cells = append(group.cells, cell)
		group.indexes = append(group.indexes, index)
		groupsByTileCoord[tileCoord] = group
	}

	// Populate values one file at a time.
	for tileCoord, group := range groupsByTileCoord {
		grid, err := s.getGridCached(tileCoord)
		if err != nil {
			return nil, err
		}
		if grid == nil {
			for _, index := range group.indexes {
				values[index] = math.NaN()
			}
			continue
		}
		localCells := make([]Cell, len(group.cells))
		for i, cell := range group.cells {
			localCells[i] = grid.CellAt(s.CellCenter(cell))
		}
		localValues, err := grid.Values(ctx, localCells)
		if err != nil {
			return nil, err
		}
		for localIndex, index := range group.indexes {
			values[index] = localValues[localIndex]
		}
	}

	return values, nil
}

// getGrid opens the file at the given tile coordinate.
func (s *GeoTIFFGridSet) getGrid(tileCoord TileCoord) (*GeoTIFFGrid, error) {
	filename := s.tileFilenameFunc(tileCoord)
	switch geoTIFFGrid, err := NewGeoTIFFGrid(s.fsys, filename, s.geoTIFFGridOptions...); {
	case errors.Is(err, fs.ErrNotExist):
		s.missingTiles.Store(tileCoord, struct{}{})
		missingTileCacheMisses.Inc()
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return geoTIFFGrid, nil
	}
}

// getGridCached returns the file at the given tile coordinate, using the
// cache if possible.
func (s *GeoTIFFGridSet) getGridCached(tileCoord TileCoord) (*GeoTIFFGrid, error) {
	if _, ok := s.missingTiles.Load(tileCoord); ok {
		missingTileCacheHits.Inc()
		return nil, nil
	}

	if grid, ok := s.geoTIFFGridCache.Get(tileCoord); ok {
		globalTileCacheHits.Inc()
		return grid, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.missingTiles.Load(tileCoord); ok {
		missingTileCacheHits.Inc()
		return nil, nil
	}

	if grid, ok := s.geoTIFFGridCache.Get(tileCoord); ok {
		globalTileCacheHits.Inc()
		return grid, nil
	}

	globalTileCacheMisses.Inc()

	grid, err := s.getGrid(tileCoord)
	if err != nil || grid == nil {
		return nil, err
	}

	if eviction := s.geoTIFFGridCache.Add(tileCoord, grid); eviction {
		globalTileCacheEvictions.Inc()
	}

	return grid, nil
}
