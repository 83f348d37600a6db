package geofence

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGeometry = errors.New("invalid geofence geometry")

const earthRadiusMeters = 6371000.0

// Geometry type tags.
const (
	GeometryCircle  = "circle"
	GeometryPolygon = "polygon"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Circle struct {
	Center       Point   `json:"center"`
	RadiusMeters float64 `json:"radius_meters"`
}

type Polygon struct {
	// Ring is the ordered vertex list, implicitly closed.
	Ring []Point `json:"ring"`
}

// Geometry is the tagged union stored in the geofence record.
type Geometry struct {
	Type    string   `json:"type"`
	Circle  *Circle  `json:"circle,omitempty"`
	Polygon *Polygon `json:"polygon,omitempty"`
}

// DecodeGeometry parses and validates a geometry document. Malformed geometry
// is rejected here, at the config-load boundary, so the evaluator never sees
// it.
func DecodeGeometry(raw []byte) (Geometry, error) {
	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	switch g.Type {
	case GeometryCircle:
		if g.Circle == nil {
			return Geometry{}, fmt.Errorf("%w: circle body missing", ErrInvalidGeometry)
		}
		if !validPoint(g.Circle.Center) {
			return Geometry{}, fmt.Errorf("%w: circle center out of range", ErrInvalidGeometry)
		}
		if !finite(g.Circle.RadiusMeters) || g.Circle.RadiusMeters <= 0 {
			return Geometry{}, fmt.Errorf("%w: circle radius must be positive", ErrInvalidGeometry)
		}
	case GeometryPolygon:
		if g.Polygon == nil {
			return Geometry{}, fmt.Errorf("%w: polygon body missing", ErrInvalidGeometry)
		}
		if len(g.Polygon.Ring) < 3 {
			return Geometry{}, fmt.Errorf("%w: polygon ring needs at least 3 vertices", ErrInvalidGeometry)
		}
		for _, p := range g.Polygon.Ring {
			if !validPoint(p) {
				return Geometry{}, fmt.Errorf("%w: polygon vertex out of range", ErrInvalidGeometry)
			}
		}
	default:
		return Geometry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidGeometry, g.Type)
	}

	return g, nil
}

// Contains tests point membership. Circle boundaries are inclusive; polygon
// vertices and edges count as inside.
func (g Geometry) Contains(p Point) bool {
	switch g.Type {
	case GeometryCircle:
		return HaversineMeters(g.Circle.Center, p) <= g.Circle.RadiusMeters
	case GeometryPolygon:
		return pointInRing(g.Polygon.Ring, p)
	default:
		return false
	}
}

// HaversineMeters is the great-circle distance between two coordinates.
// Adequate for city-scale monitoring.
func HaversineMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

const onEdgeEpsilon = 1e-12

// pointInRing runs the even-odd ray cast over the implicitly closed ring,
// with an explicit boundary pass first so vertices and edges are inside.
func pointInRing(ring []Point, p Point) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		if onSegment(ring[i], ring[(i+1)%n], p) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			x := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, p Point) bool {
	cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
	if math.Abs(cross) > onEdgeEpsilon {
		return false
	}
	if p.Lng < math.Min(a.Lng, b.Lng)-onEdgeEpsilon || p.Lng > math.Max(a.Lng, b.Lng)+onEdgeEpsilon {
		return false
	}
	if p.Lat < math.Min(a.Lat, b.Lat)-onEdgeEpsilon || p.Lat > math.Max(a.Lat, b.Lat)+onEdgeEpsilon {
		return false
	}
	return true
}

func validPoint(p Point) bool {
	return finite(p.Lat) && finite(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
