package geometry

import (
	"math"
)

const (
	// contactEpsilonMeters treats projected distances below this as touching.
	contactEpsilonMeters = 1e-6

	// DefaultOverlapToleranceMeters is the corridor width used when tracing
	// the shared portion of two near-coincident routes. GPS routes recorded
	// over the same road rarely coincide exactly.
	DefaultOverlapToleranceMeters = 25.0

	bufferCircleSteps = 32
)

// PlanarEngine measures geometries in a Web-Mercator-equivalent projection.
type PlanarEngine struct {
	overlapTolerance float64
}

func NewPlanarEngine() *PlanarEngine {
	return &PlanarEngine{overlapTolerance: DefaultOverlapToleranceMeters}
}

// NewPlanarEngineWithTolerance overrides the overlap-tracing corridor width.
func NewPlanarEngineWithTolerance(toleranceMeters float64) *PlanarEngine {
	if toleranceMeters <= 0 {
		toleranceMeters = DefaultOverlapToleranceMeters
	}
	return &PlanarEngine{overlapTolerance: toleranceMeters}
}

func (e *PlanarEngine) PointToGeometry(lat, lng float64, alt *float64) Geometry {
	return NewPoint(lat, lng, alt)
}

func (e *PlanarEngine) LineToGeometry(points []Point) (Geometry, error) {
	return NewLineString(points)
}

type xy struct {
	x, y float64
}

func project(p Point) xy {
	latRad := p.Lat * math.Pi / 180
	lngRad := p.Lng * math.Pi / 180
	return xy{
		x: EarthRadiusMeters * lngRad,
		y: EarthRadiusMeters * math.Log(math.Tan(math.Pi/4+latRad/2)),
	}
}

func unproject(p xy) Point {
	lng := p.x / EarthRadiusMeters * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(p.y/EarthRadiusMeters)) - math.Pi/2) * 180 / math.Pi
	return Point{Lat: lat, Lng: lng}
}

func projectAll(points []Point) []xy {
	out := make([]xy, len(points))
	for i, p := range points {
		out[i] = project(p)
	}
	return out
}

func (e *PlanarEngine) DistanceMeters(a, b Geometry) float64 {
	aPts, aLines := elements(a)
	bPts, bLines := elements(b)

	min := math.Inf(1)

	for _, pa := range aPts {
		for _, pb := range bPts {
			min = math.Min(min, dist(pa, pb))
		}
		for _, lb := range bLines {
			min = math.Min(min, pointToLine(pa, lb))
		}
	}
	for _, la := range aLines {
		for _, pb := range bPts {
			min = math.Min(min, pointToLine(pb, la))
		}
		for _, lb := range bLines {
			min = math.Min(min, lineToLine(la, lb))
		}
	}

	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

func (e *PlanarEngine) LengthMeters(line Geometry) float64 {
	total := 0.0
	for _, part := range line.lines() {
		pts := projectAll(part)
		for i := 1; i < len(pts); i++ {
			total += dist(pts[i-1], pts[i])
		}
	}
	return total
}

func (e *PlanarEngine) Intersects(a, b Geometry) bool {
	return e.DistanceMeters(a, b) < contactEpsilonMeters
}

// Intersection traces the portion of b lying within the overlap corridor of a.
// For two near-coincident GPS routes this approximates the shared linear part
// the way a topology engine would report it.
func (e *PlanarEngine) Intersection(a, b Geometry) *Geometry {
	if a.Type == TypePoint && b.Type == TypePoint {
		if e.Intersects(a, b) {
			g := b
			return &g
		}
		return nil
	}
	if b.Type == TypePoint {
		if e.DistanceMeters(a, b) <= e.overlapTolerance {
			g := b
			return &g
		}
		return nil
	}
	if a.Type == TypePoint {
		return e.Intersection(b, a)
	}

	aLines := make([][]xy, 0)
	for _, part := range a.lines() {
		aLines = append(aLines, projectAll(part))
	}

	var runs [][]Point
	for _, part := range b.lines() {
		pts := projectAll(part)
		var run []Point
		for i := 1; i < len(part); i++ {
			if e.segmentCovered(pts[i-1], pts[i], aLines) {
				if len(run) == 0 {
					run = append(run, part[i-1])
				}
				run = append(run, part[i])
			} else if len(run) > 1 {
				runs = append(runs, run)
				run = nil
			} else {
				run = nil
			}
		}
		if len(run) > 1 {
			runs = append(runs, run)
		}
	}

	if len(runs) == 0 {
		return nil
	}
	if len(runs) == 1 {
		g, err := NewLineString(runs[0])
		if err != nil {
			return nil
		}
		return &g
	}
	g := newMultiLineString(runs)
	return &g
}

// segmentCovered reports whether both endpoints and the midpoint of a
// projected segment fall inside the overlap corridor of any line of a.
func (e *PlanarEngine) segmentCovered(p1, p2 xy, aLines [][]xy) bool {
	mid := xy{x: (p1.x + p2.x) / 2, y: (p1.y + p2.y) / 2}
	for _, probe := range []xy{p1, mid, p2} {
		covered := false
		for _, line := range aLines {
			if pointToLine(probe, line) <= e.overlapTolerance {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func (e *PlanarEngine) Within(a, b Geometry, radiusMeters float64) bool {
	return e.DistanceMeters(a, b) <= radiusMeters
}

// Buffer approximates the geometry's buffer as the convex hull of circles
// placed at every vertex. Good enough for visualization and bounding checks.
func (e *PlanarEngine) Buffer(g Geometry, radiusMeters float64) Geometry {
	var projected []xy
	for _, part := range g.lines() {
		projected = append(projected, projectAll(part)...)
	}
	if g.Type == TypePoint && len(g.Coordinates) == 1 {
		projected = append(projected, project(g.Coordinates[0]))
	}
	if len(projected) == 0 {
		return g
	}

	var cloud []xy
	for _, c := range projected {
		for i := 0; i < bufferCircleSteps; i++ {
			angle := 2 * math.Pi * float64(i) / bufferCircleSteps
			cloud = append(cloud, xy{
				x: c.x + radiusMeters*math.Cos(angle),
				y: c.y + radiusMeters*math.Sin(angle),
			})
		}
	}

	hull := convexHull(cloud)
	ring := make([]Point, 0, len(hull)+1)
	for _, h := range hull {
		ring = append(ring, unproject(h))
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return newPolygon(ring)
}

// Simplify runs Douglas-Peucker per line part. The result never has more
// points than the input.
func (e *PlanarEngine) Simplify(g Geometry, toleranceMeters float64) Geometry {
	switch g.Type {
	case TypeLineString, TypePolygon:
		simplified := simplifyPart(g.Coordinates, toleranceMeters)
		out := g
		out.Coordinates = simplified
		return out
	case TypeMultiLineString:
		parts := make([][]Point, 0, len(g.Parts))
		for _, part := range g.Parts {
			parts = append(parts, simplifyPart(part, toleranceMeters))
		}
		out := g
		out.Parts = parts
		return out
	default:
		return g
	}
}

func (e *PlanarEngine) Centroid(g Geometry) Geometry {
	var totalLat, totalLng float64
	count := 0
	collect := func(pts []Point) {
		for _, p := range pts {
			totalLat += p.Lat
			totalLng += p.Lng
			count++
		}
	}
	collect(g.Coordinates)
	for _, part := range g.Parts {
		collect(part)
	}
	if count == 0 {
		return NewPoint(0, 0, nil)
	}
	return NewPoint(totalLat/float64(count), totalLng/float64(count), nil)
}

// elements splits a geometry into projected point and line primitives.
func elements(g Geometry) ([]xy, [][]xy) {
	if g.Type == TypePoint {
		if len(g.Coordinates) == 0 {
			return nil, nil
		}
		return []xy{project(g.Coordinates[0])}, nil
	}
	var pts []xy
	var lines [][]xy
	for _, part := range g.lines() {
		if len(part) == 1 {
			pts = append(pts, project(part[0]))
			continue
		}
		lines = append(lines, projectAll(part))
	}
	return pts, lines
}

func dist(a, b xy) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

func pointToSegment(p, a, b xy) float64 {
	dx := b.x - a.x
	dy := b.y - a.y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return dist(p, a)
	}
	t := ((p.x-a.x)*dx + (p.y-a.y)*dy) / lengthSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return dist(p, xy{x: a.x + t*dx, y: a.y + t*dy})
}

func pointToLine(p xy, line []xy) float64 {
	min := math.Inf(1)
	for i := 1; i < len(line); i++ {
		min = math.Min(min, pointToSegment(p, line[i-1], line[i]))
	}
	if len(line) == 1 {
		return dist(p, line[0])
	}
	return min
}

func lineToLine(a, b []xy) float64 {
	min := math.Inf(1)
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if segmentsCross(a[i-1], a[i], b[j-1], b[j]) {
				return 0
			}
			min = math.Min(min, pointToSegment(a[i-1], b[j-1], b[j]))
			min = math.Min(min, pointToSegment(a[i], b[j-1], b[j]))
			min = math.Min(min, pointToSegment(b[j-1], a[i-1], a[i]))
			min = math.Min(min, pointToSegment(b[j], a[i-1], a[i]))
		}
	}
	return min
}

func cross(o, a, b xy) float64 {
	return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
}

func segmentsCross(p1, p2, p3, p4 xy) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func simplifyPart(points []Point, toleranceMeters float64) []Point {
	if len(points) <= 2 || toleranceMeters <= 0 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	projected := projectAll(points)
	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true

	type span struct{ start, end int }
	stack := []span{{0, len(points) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist := 0.0
		maxIdx := -1
		for i := s.start + 1; i < s.end; i++ {
			d := pointToSegment(projected[i], projected[s.start], projected[s.end])
			if d > maxDist {
				maxDist = d
				maxIdx = i
			}
		}
		if maxIdx >= 0 && maxDist > toleranceMeters {
			keep[maxIdx] = true
			stack = append(stack, span{s.start, maxIdx}, span{maxIdx, s.end})
		}
	}

	out := make([]Point, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

// convexHull computes the monotone-chain hull of a projected point cloud.
func convexHull(points []xy) []xy {
	if len(points) < 3 {
		return points
	}
	sorted := make([]xy, len(points))
	copy(sorted, points)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && (sorted[j].x < sorted[j-1].x ||
			(sorted[j].x == sorted[j-1].x && sorted[j].y < sorted[j-1].y)); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	var lower, upper []xy
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}
