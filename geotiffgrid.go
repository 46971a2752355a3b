package elevationprofile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"github.com/maypok86/otter/v2"
	"golang.org/x/image/tiff/lzw"
)

var errShortRead = errors.New("short read")

// A tileCoord addresses a tile within a tiled GeoTIFF.
type tileCoord struct {
	C int // Column.
	R int // Row.
}

// A GeoTIFFGrid is a Grid backed by a single tiled float32 GeoTIFF file.
// Tiles are decompressed lazily and cached; the file stays open for the
// lifetime of the grid.
type GeoTIFFGrid struct {
	file                      *os.File
	imageWidth                int
	imageLength               int
	tileWidth                 int
	tileLength                int
	tilesAcross               int
	tilesDown                 int
	tileOffsets               []uint64
	tileByteCounts            []uint64
	smallestTileByteCount     uint64
	tileSampleCount           int
	tileByteCountUncompressed int
	tileCacheSizeBytes        int
	tileSamplesCache          *otter.Cache[tileCoord, []float32]
	emptyTileBytes            []byte
	noData                    float32
	srid                      int
	scaleX                    float64
	scaleY                    float64
	translateX                float64
	translateY                float64
}

// A GeoTIFFGridOption sets an option on a GeoTIFFGrid.
type GeoTIFFGridOption func(*GeoTIFFGrid)

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALMetadata              string    `tiff:"field,tag=42112"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// NewGeoTIFFGrid returns a new GeoTIFFGrid reading from the named file in
// fsys.
func NewGeoTIFFGrid(fsys fs.FS, filename string, options ...GeoTIFFGridOption) (*GeoTIFFGrid, error) {
	var err error
	ok := false

	g := &GeoTIFFGrid{
		tileCacheSizeBytes: 128 << 20, // 128MB.
		noData:             float32(math.NaN()),
	}
	for _, option := range options {
		option(g)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	if _, ok := file.(*os.File); !ok {
		return nil, errors.ErrUnsupported
	}
	g.file = file.(*os.File)
	defer func() {
		if !ok {
			_ = g.file.Close()
		}
	}()

	tiffTIFF, err := tiff.Parse(g.file, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	if ifd.BitsPerSample != 32 ||
		ifd.Compression != 5 ||
		ifd.PhotometricInterpretation != 1 ||
		ifd.SamplesPerPixel != 1 ||
		ifd.PlanarConfiguration != 1 ||
		ifd.Predictor != 1 ||
		ifd.SampleFormat != 3 ||
		len(ifd.ModelPixelScaleTag) != 3 || ifd.ModelPixelScaleTag[2] != 0 ||
		len(ifd.ModelTiepointTag) != 6 || ifd.ModelTiepointTag[2] != 0 || ifd.ModelTiepointTag[5] != 0 {
		return nil, errors.ErrUnsupported
	}

	if ifd.GDALNoData != "" {
		noData, err := strconv.ParseFloat(ifd.GDALNoData, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid GDAL nodata value %q: %w", ifd.GDALNoData, err)
		}
		g.noData = float32(noData)
	}

	if g.srid == 0 && len(ifd.GeoKeyDirectoryTag) > 0 {
		parsedGeoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
		if srid, ok := parsedGeoKeys.SRID(); ok {
			g.srid = srid
		}
	}

	g.imageWidth = int(ifd.ImageWidth)
	g.imageLength = int(ifd.ImageLength)
	g.tileWidth = int(ifd.TileWidth)
	g.tileLength = int(ifd.TileLength)
	g.tilesAcross = (g.imageWidth + g.tileWidth - 1) / g.tileWidth
	g.tilesDown = (g.imageLength + g.tileLength - 1) / g.tileLength
	tilesPerImage := g.tilesAcross * g.tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	g.tileOffsets = ifd.TileOffsets
	g.tileByteCounts = ifd.TileByteCounts
	g.smallestTileByteCount = slices.Min(ifd.TileByteCounts)
	g.tileSampleCount = g.tileWidth * g.tileLength
	g.tileByteCountUncompressed = g.tileSampleCount * int(ifd.BitsPerSample) / 8

	tileCacheCount := max(g.tileCacheSizeBytes/g.tileByteCountUncompressed, 1)
	g.tileSamplesCache, err = otter.New(&otter.Options[tileCoord, []float32]{
		MaximumSize: tileCacheCount,
	})
	if err != nil {
		return nil, err
	}

	g.scaleX = ifd.ModelPixelScaleTag[0]
	g.scaleY = ifd.ModelPixelScaleTag[1]
	if g.scaleX <= 0 || g.scaleY <= 0 {
		return nil, errors.ErrUnsupported
	}
	i, j := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1]
	if i != 0 || j != 0 {
		return nil, errors.ErrUnsupported
	}
	g.translateX = ifd.ModelTiepointTag[3]
	g.translateY = ifd.ModelTiepointTag[4]

	ok = true
	return g, nil
}

// WithGeoTIFFTileCacheSize sets the decompressed tile cache size in bytes.
func WithGeoTIFFTileCacheSize(tileCacheSizeBytes int) GeoTIFFGridOption {
	return func(g *GeoTIFFGrid) {
		g.tileCacheSizeBytes = tileCacheSizeBytes
	}
}

// WithGeoTIFFSRID overrides the SRID read from the file's GeoKeys.
func WithGeoTIFFSRID(srid int) GeoTIFFGridOption {
	return func(g *GeoTIFFGrid) {
		g.srid = srid
	}
}

func (g *GeoTIFFGrid) Close() error {
	return g.file.Close()
}

// SRID returns g's SRID.
func (g *GeoTIFFGrid) SRID() int {
	return g.srid
}

// Extent returns g's extent in cells.
func (g *GeoTIFFGrid) Extent() (int, int) {
	return g.imageLength, g.imageWidth
}

// CellAt returns the cell containing (x, y).
func (g *GeoTIFFGrid) CellAt(x, y float64) Cell {
	return Cell{
		Row: int(math.Floor((g.translateY - y) / g.scaleY)),
		Col: int(math.Floor((x - g.translateX) / g.scaleX)),
	}
}

// CellCenter returns the coordinate of the center of cell.
func (g *GeoTIFFGrid) CellCenter(cell Cell) (float64, float64) {
	x := g.translateX + (float64(cell.Col)+0.5)*g.scaleX
	y := g.translateY - (float64(cell.Row)+0.5)*g.scaleY
	return x, y
}

// Values returns the elevation values at cells. Cells in empty or missing
// tiles are NaN; cells outside the extent are a BoundsError.
func (g *GeoTIFFGrid) Values(ctx context.Context, cells []Cell) ([]float64, error) {
	values := make([]float64, len(cells))

	// Group indexes by tile coord.
	indexesByTileCoord := make(map[tileCoord][]int)
	for index, cell := range cells {
		tc, err := g.tileCoord(cell)
		if err != nil {
			return nil, err
		}
		indexesByTileCoord[tc] = append(indexesByTileCoord[tc], index)
	}

	// Populate values one tile at a time.
	for tc, indexes := range indexesByTileCoord {
		slices.Sort(indexes)
		switch tileSamples, err := g.getTileSamplesCached(ctx, tc); {
		case errors.Is(err, otter.ErrNotFound):
			for _, index := range indexes {
				values[index] = math.NaN()
			}
		case err != nil:
			return nil, err
		default:
			for _, index := range indexes {
				values[index] = g.tileSample(tileSamples, cells[index])
			}
		}
	}

	return values, nil
}

// getCompressedTileData returns the compressed tile data for the tile at tc.
// If the tile is known to be empty, it returns the error otter.ErrNotFound.
func (g *GeoTIFFGrid) getCompressedTileData(tc tileCoord) ([]byte, error) {
	tileIndex := tc.C + g.tilesAcross*tc.R
	tileByteCount := g.tileByteCounts[tileIndex]
	tileOffset := g.tileOffsets[tileIndex]
	compressedData := make([]byte, tileByteCount)
	switch n, err := g.file.ReadAt(compressedData, int64(tileOffset)); {
	case err != nil:
		return nil, err
	case n != int(tileByteCount):
		return nil, errShortRead
	case g.emptyTileBytes != nil && bytes.Equal(compressedData, g.emptyTileBytes):
		return nil, otter.ErrNotFound
	default:
		return compressedData, nil
	}
}

// decompressTileData decompresses the tile data in compressedData.
func (g *GeoTIFFGrid) decompressTileData(compressedData []byte) ([]byte, error) {
	tileData := make([]byte, g.tileByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	for bytesRead := 0; bytesRead < g.tileByteCountUncompressed; {
		n, err := r.Read(tileData[bytesRead:])
		if err != nil {
			return nil, err
		}
		bytesRead += n
	}
	return tileData, nil
}

// decodeTileData decodes tileData.
func (g *GeoTIFFGrid) decodeTileData(tileData []byte) []float32 {
	tileSamples := make([]float32, g.tileSampleCount)
	for i := range g.tileSampleCount {
		b := binary.LittleEndian.Uint32(tileData[i*4 : (i+1)*4])
		tileSamples[i] = math.Float32frombits(b)
	}
	return tileSamples
}

// getTileSamples returns the tile samples of the tile at tc.
func (g *GeoTIFFGrid) getTileSamples(ctx context.Context, tc tileCoord) ([]float32, error) {
	// Retrieve the compressed tile data.
	compressedTileData, err := g.getCompressedTileData(tc)
	if err != nil {
		return nil, err
	}

	// Decompress the tile data and decode it.
	tileData, err := g.decompressTileData(compressedTileData)
	if err != nil {
		return nil, err
	}
	tileSamples := g.decodeTileData(tileData)

	// If we do not know what an empty tile looks like compressed, check to see
	// if this is an empty tile, and, if so, use its bytes to detect empty tiles
	// before they are decompressed. We assume that the empty tile is the
	// smallest tile.
	if g.emptyTileBytes == nil && len(compressedTileData) == int(g.smallestTileByteCount) {
		isEmptyTile := true
		for _, sample := range tileSamples {
			if sample != g.noData {
				isEmptyTile = false
				break
			}
		}
		if isEmptyTile {
			g.emptyTileBytes = compressedTileData
			return nil, otter.ErrNotFound
		}
	}

	return tileSamples, nil
}

// getTileSamplesCached returns the tile samples of the tile at tc, using g's
// cache.
func (g *GeoTIFFGrid) getTileSamplesCached(ctx context.Context, tc tileCoord) ([]float32, error) {
	return g.tileSamplesCache.Get(ctx, tc, otter.LoaderFunc[tileCoord, []float32](g.getTileSamples))
}

// tileCoord returns the coordinate of the tile containing cell.
func (g *GeoTIFFGrid) tileCoord(cell Cell) (tileCoord, error) {
	if cell.Row < 0 || g.imageLength <= cell.Row {
		return tileCoord{}, &BoundsError{What: "row", Min: 0, Max: g.imageLength - 1, Got: cell.Row}
	}
	if cell.Col < 0 || g.imageWidth <= cell.Col {
		return tileCoord{}, &BoundsError{What: "col", Min: 0, Max: g.imageWidth - 1, Got: cell.Col}
	}
	return tileCoord{
		C: cell.Col / g.tileWidth,
		R: cell.Row / g.tileLength,
	}, nil
}

// tileSample returns the sample from tileSamples at cell.
func (g *GeoTIFFGrid) tileSample(tileSamples []float32, cell Cell) float64 {
	sample := tileSamples[cell.Col%g.tileWidth+(cell.Row%g.tileLength)*g.tileWidth]
	if sample == g.noData {
		return math.NaN()
	}
	return float64(sample)
}
