package geometry

// Engine is the spatial-math surface the rest of the system depends on. The
// planar implementation projects into a Web-Mercator-equivalent plane before
// measuring; swap in a different engine by satisfying this interface.
type Engine interface {
	PointToGeometry(lat, lng float64, alt *float64) Geometry
	LineToGeometry(points []Point) (Geometry, error)

	// DistanceMeters is the minimum planar distance between two geometries
	// after projection. Not geodesic; use Haversine for raw point pairs.
	DistanceMeters(a, b Geometry) float64
	LengthMeters(line Geometry) float64

	Intersects(a, b Geometry) bool
	// Intersection returns the overlapping portion of b that lies along a,
	// or nil when the geometries share nothing.
	Intersection(a, b Geometry) *Geometry

	Within(a, b Geometry, radiusMeters float64) bool

	Buffer(g Geometry, radiusMeters float64) Geometry
	Simplify(g Geometry, toleranceMeters float64) Geometry
	Centroid(g Geometry) Geometry
}
