package elevationprofile

import (
	"context"
	"io/fs"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-proj/v11"
)

// An EUDEMProfileService computes elevation profiles over EU-DEM for paths
// and brunnels given in WGS84. Reprojection to the grid's EPSG:3035 happens
// here; the pipeline itself only ever sees matching coordinate references.
type EUDEMProfileService struct {
	gridSet  *GeoTIFFGridSet
	pipeline *Pipeline
	pj       *proj.PJ
}

// NewEUDEMProfileService returns a new EUDEMProfileService reading EU-DEM
// files from fsys.
func NewEUDEMProfileService(fsys fs.FS, options ...PipelineOption) (*EUDEMProfileService, error) {
	gridSet, err := NewEUDEM(fsys)
	if err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(gridSet, options...)
	if err != nil {
		return nil, err
	}
	pj, err := proj.NewCRSToCRS("epsg:4326", "epsg:3035", nil)
	if err != nil {
		return nil, err
	}
	return &EUDEMProfileService{
		gridSet:  gridSet,
		pipeline: pipeline,
		pj:       pj,
	}, nil
}

// Profile computes the profile of a path already in EPSG:3035.
func (s *EUDEMProfileService) Profile(ctx context.Context, path *Path, brunnels []Brunnel) (*Result, error) {
	return s.pipeline.Run(ctx, path, brunnels)
}

// Profile4326 computes the profile of a WGS84 (longitude, latitude)
// linestring with WGS84 brunnels.
func (s *EUDEMProfileService) Profile4326(ctx context.Context, lineString4326 orb.LineString, brunnels4326 []Brunnel) (*Result, error) {
	lineString3035, err := s.lineStringTo3035(lineString4326)
	if err != nil {
		return nil, err
	}
	path, err := NewPath(lineString3035, 3035)
	if err != nil {
		return nil, err
	}
	brunnels3035 := make([]Brunnel, len(brunnels4326))
	for i, brunnel := range brunnels4326 {
		geometry, err := s.lineStringTo3035(brunnel.Geometry)
		if err != nil {
			return nil, err
		}
		brunnels3035[i] = Brunnel{
			Kind:     brunnel.Kind,
			Geometry: geometry,
			SRID:     3035,
		}
	}
	return s.pipeline.Run(ctx, path, brunnels3035)
}

func (s *EUDEMProfileService) lineStringTo3035(lineString orb.LineString) (orb.LineString, error) {
	coords := coordSlices(lineString)
	flipCoords(coords)
	if err := s.pj.ForwardFloat64Slices(coords); err != nil {
		return nil, err
	}
	flipCoords(coords)
	result := make(orb.LineString, len(coords))
	for i, coord := range coords {
		result[i] = orb.Point{coord[0], coord[1]}
	}
	return result, nil
}

func coordSlices(lineString orb.LineString) [][]float64 {
	coordsFlat := make([]float64, 2*len(lineString))
	coords := make([][]float64, len(lineString))
	for i, point := range lineString {
		coordsFlat[2*i] = point[0]
		coordsFlat[2*i+1] = point[1]
		coords[i] = coordsFlat[2*i : 2*i+2]
	}
	return coords
}

func flipCoords(coords [][]float64) {
	for i, coord := range coords {
		coords[i][0], coords[i][1] = coord[1], coord[0]
	}
}
