package geometry

import (
	"errors"
	"math"
)

// SRID4326 tags geometries as WGS-84 lat/lng coordinate sequences.
const SRID4326 = 4326

// EarthRadiusMeters is the mean Earth radius used for haversine distances and
// the Web Mercator projection.
const EarthRadiusMeters = 6371000.0

var (
	ErrInvalidInput    = errors.New("invalid geometry input")
	ErrTooFewPoints    = errors.New("line requires at least 2 points")
	ErrOutOfRangePoint = errors.New("coordinate out of range")
)

type GeometryType string

const (
	TypePoint           GeometryType = "Point"
	TypeLineString      GeometryType = "LineString"
	TypeMultiLineString GeometryType = "MultiLineString"
	TypePolygon         GeometryType = "Polygon"
)

// Point is a single WGS-84 position with an optional altitude.
type Point struct {
	Lat float64  `json:"lat"`
	Lng float64  `json:"lng"`
	Alt *float64 `json:"alt,omitempty"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Geometry is a planar-engine geometry. Coordinates holds the point sequence
// for Point, LineString and Polygon (outer ring); Parts is populated for
// MultiLineString only.
type Geometry struct {
	Type        GeometryType `json:"type"`
	SRID        int          `json:"srid"`
	Coordinates []Point      `json:"coordinates,omitempty"`
	Parts       [][]Point    `json:"parts,omitempty"`
}

func NewPoint(lat, lng float64, alt *float64) Geometry {
	return Geometry{
		Type:        TypePoint,
		SRID:        SRID4326,
		Coordinates: []Point{{Lat: lat, Lng: lng, Alt: alt}},
	}
}

func NewLineString(points []Point) (Geometry, error) {
	if len(points) < 2 {
		return Geometry{}, ErrTooFewPoints
	}
	for _, p := range points {
		if !p.Valid() {
			return Geometry{}, ErrOutOfRangePoint
		}
	}
	coords := make([]Point, len(points))
	copy(coords, points)
	return Geometry{Type: TypeLineString, SRID: SRID4326, Coordinates: coords}, nil
}

func newMultiLineString(parts [][]Point) Geometry {
	return Geometry{Type: TypeMultiLineString, SRID: SRID4326, Parts: parts}
}

func newPolygon(ring []Point) Geometry {
	return Geometry{Type: TypePolygon, SRID: SRID4326, Coordinates: ring}
}

// IsEmpty reports whether the geometry carries no coordinates at all.
func (g Geometry) IsEmpty() bool {
	return len(g.Coordinates) == 0 && len(g.Parts) == 0
}

// PointCount counts coordinates across all parts.
func (g Geometry) PointCount() int {
	n := len(g.Coordinates)
	for _, part := range g.Parts {
		n += len(part)
	}
	return n
}

// lines returns the geometry's coordinate runs as line parts.
func (g Geometry) lines() [][]Point {
	switch g.Type {
	case TypeLineString, TypePolygon:
		return [][]Point{g.Coordinates}
	case TypeMultiLineString:
		return g.Parts
	default:
		return nil
	}
}

// Haversine computes the geodesic distance in meters between two raw
// coordinates. Callers needing exact point-to-point distance use this instead
// of the projected-plane distance.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}
