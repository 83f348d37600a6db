package geofence

import (
	"errors"
	"testing"
)

func circleGeom(center Point, radius float64) Geometry {
	return Geometry{Type: GeometryCircle, Circle: &Circle{Center: center, RadiusMeters: radius}}
}

func polygonGeom(ring ...Point) Geometry {
	return Geometry{Type: GeometryPolygon, Polygon: &Polygon{Ring: ring}}
}

func TestDecodeGeometry(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid circle", `{"type":"circle","circle":{"center":{"lat":40.0,"lng":-73.9},"radius_meters":50}}`, false},
		{"valid polygon", `{"type":"polygon","polygon":{"ring":[{"lat":0,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":0}]}}`, false},
		{"unknown type", `{"type":"rectangle"}`, true},
		{"circle without body", `{"type":"circle"}`, true},
		{"zero radius", `{"type":"circle","circle":{"center":{"lat":0,"lng":0},"radius_meters":0}}`, true},
		{"degenerate ring", `{"type":"polygon","polygon":{"ring":[{"lat":0,"lng":0},{"lat":1,"lng":1}]}}`, true},
		{"vertex out of range", `{"type":"polygon","polygon":{"ring":[{"lat":95,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":0}]}}`, true},
		{"not json", `circle(0,0,50)`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeGeometry([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidGeometry) {
					t.Fatalf("expected ErrInvalidGeometry, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCircleBoundaryInclusive(t *testing.T) {
	center := Point{Lat: 40.0, Lng: -73.9}
	// A point roughly 50m east; use the computed distance as the radius so
	// the boundary case is exact.
	edge := Point{Lat: 40.0, Lng: -73.89941}
	dist := HaversineMeters(center, edge)
	if dist < 40 || dist > 60 {
		t.Fatalf("test point drifted: %.2fm from center", dist)
	}

	if !circleGeom(center, dist).Contains(edge) {
		t.Fatal("point at distance == radius must be contained")
	}
	if circleGeom(center, dist-0.01).Contains(edge) {
		t.Fatal("point just past the radius must not be contained")
	}
	if !circleGeom(center, dist+0.01).Contains(center) {
		t.Fatal("center must always be contained")
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude is ~111.2km.
	d := HaversineMeters(Point{Lat: 40.0, Lng: -73.9}, Point{Lat: 41.0, Lng: -73.9})
	if d < 110000 || d > 112500 {
		t.Fatalf("unexpected meridian distance: %.0fm", d)
	}
}

func TestPolygonContainment(t *testing.T) {
	square := polygonGeom(
		Point{Lat: 0, Lng: 0},
		Point{Lat: 0, Lng: 10},
		Point{Lat: 10, Lng: 10},
		Point{Lat: 10, Lng: 0},
	)

	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"interior", Point{Lat: 5, Lng: 5}, true},
		{"on vertex", Point{Lat: 0, Lng: 0}, true},
		{"on edge", Point{Lat: 0, Lng: 5}, true},
		{"outside east", Point{Lat: 5, Lng: 15}, false},
		{"outside north", Point{Lat: 11, Lng: 5}, false},
		{"far outside", Point{Lat: -20, Lng: -20}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := square.Contains(tc.p); got != tc.want {
				t.Fatalf("Contains(%+v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestConcavePolygon(t *testing.T) {
	// L-shape: the notch at the top right is outside.
	l := polygonGeom(
		Point{Lat: 0, Lng: 0},
		Point{Lat: 0, Lng: 10},
		Point{Lat: 5, Lng: 10},
		Point{Lat: 5, Lng: 5},
		Point{Lat: 10, Lng: 5},
		Point{Lat: 10, Lng: 0},
	)

	if !l.Contains(Point{Lat: 2, Lng: 8}) {
		t.Fatal("point in the foot of the L must be contained")
	}
	if l.Contains(Point{Lat: 8, Lng: 8}) {
		t.Fatal("point in the notch must not be contained")
	}
}
