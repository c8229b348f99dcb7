package models

import (
	"fittrack/pkg/geometry"
)

// GeoPoint is a GeoJSON point as stored in mongo. Coordinates are
// [lng, lat] or [lng, lat, alt], matching the 2dsphere index expectation.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,min=2"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) >= 2 {
		return p.Coordinates[1]
	}
	return 0
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) >= 1 {
		return p.Coordinates[0]
	}
	return 0
}

// GeoLineString is a GeoJSON line as stored in mongo.
type GeoLineString struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates [][]float64 `json:"coordinates" bson:"coordinates" validate:"required,min=2"`
}

func NewGeoLineString(coordinates [][]float64) GeoLineString {
	return GeoLineString{Type: "LineString", Coordinates: coordinates}
}

// GeoLineStringFromPoints builds a stored line from engine points.
func GeoLineStringFromPoints(points []geometry.Point) GeoLineString {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		if p.Alt != nil {
			coords = append(coords, []float64{p.Lng, p.Lat, *p.Alt})
		} else {
			coords = append(coords, []float64{p.Lng, p.Lat})
		}
	}
	return NewGeoLineString(coords)
}

// Points converts the stored coordinates back into engine points, skipping
// malformed entries.
func (l GeoLineString) Points() []geometry.Point {
	points := make([]geometry.Point, 0, len(l.Coordinates))
	for _, c := range l.Coordinates {
		if len(c) < 2 {
			continue
		}
		p := geometry.Point{Lng: c[0], Lat: c[1]}
		if len(c) >= 3 {
			alt := c[2]
			p.Alt = &alt
		}
		points = append(points, p)
	}
	return points
}

func (l GeoLineString) PointCount() int {
	return len(l.Coordinates)
}
