package elevationprofile

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// A Path is a linestring in a projected coordinate reference system,
// parameterized by distance from its start point.
type Path struct {
	lineString orb.LineString
	cumulative []float64
	srid       int
}

// NewPath returns a new Path over lineString. The linestring must have at
// least two points and non-zero length.
func NewPath(lineString orb.LineString, srid int) (*Path, error) {
	if len(lineString) < 2 {
		return nil, domainErrorf("linestring has %d points, need at least 2", len(lineString))
	}
	cumulative := make([]float64, len(lineString))
	for i := 1; i < len(lineString); i++ {
		cumulative[i] = cumulative[i-1] + planar.Distance(lineString[i-1], lineString[i])
	}
	if cumulative[len(cumulative)-1] == 0 {
		return nil, domainErrorf("zero-length linestring")
	}
	return &Path{
		lineString: lineString,
		cumulative: cumulative,
		srid:       srid,
	}, nil
}

// SRID returns p's SRID.
func (p *Path) SRID() int {
	return p.srid
}

// Length returns p's total length.
func (p *Path) Length() float64 {
	return p.cumulative[len(p.cumulative)-1]
}

// StartPoint returns p's first point.
func (p *Path) StartPoint() orb.Point {
	return p.lineString[0]
}

// EndPoint returns p's last point.
func (p *Path) EndPoint() orb.Point {
	return p.lineString[len(p.lineString)-1]
}

// PointAtDistance returns the point on p at the given distance from the
// start. Distances outside [0, Length] are clamped to the endpoints.
func (p *Path) PointAtDistance(distance float64) orb.Point {
	if distance <= 0 {
		return p.StartPoint()
	}
	if distance >= p.Length() {
		return p.EndPoint()
	}
	// Find the segment containing distance.
	lo, hi := 0, len(p.cumulative)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if p.cumulative[mid] <= distance {
			lo = mid
		} else {
			hi = mid
		}
	}
	a, b := p.lineString[lo], p.lineString[lo+1]
	segmentLength := p.cumulative[lo+1] - p.cumulative[lo]
	if segmentLength == 0 {
		return a
	}
	t := (distance - p.cumulative[lo]) / segmentLength
	return orb.Point{
		a[0] + t*(b[0]-a[0]),
		a[1] + t*(b[1]-a[1]),
	}
}

// Project returns the distance from p's start to the point on p closest to
// point.
func (p *Path) Project(point orb.Point) float64 {
	bestDistance := 0.0
	bestSquared := planar.DistanceSquared(point, p.lineString[0])
	for i := 1; i < len(p.lineString); i++ {
		a, b := p.lineString[i-1], p.lineString[i]
		abX, abY := b[0]-a[0], b[1]-a[1]
		apX, apY := point[0]-a[0], point[1]-a[1]
		squaredLength := abX*abX + abY*abY
		t := 0.0
		if squaredLength > 0 {
			t = (apX*abX + apY*abY) / squaredLength
			t = min(max(t, 0), 1)
		}
		closest := orb.Point{a[0] + t*abX, a[1] + t*abY}
		if squared := planar.DistanceSquared(point, closest); squared < bestSquared {
			bestSquared = squared
			segmentLength := p.cumulative[i] - p.cumulative[i-1]
			bestDistance = p.cumulative[i-1] + t*segmentLength
		}
	}
	return bestDistance
}
