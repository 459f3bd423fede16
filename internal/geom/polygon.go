// Package geom is the planar geometry kernel of the layout engine. Shapes are
// paulmach/orb values; cells are axis-aligned orb.Bound rectangles.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// Epsilon absorbs floating point noise in contact tests.
const Epsilon = 1e-9

// Rect returns the rectangle with lower-left corner x, y and size w x h.
func Rect(x, y, w, h float64) orb.Bound {
	return orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + w, y + h}}
}

// Width returns the horizontal extent of b.
func Width(b orb.Bound) float64 { return b.Max[0] - b.Min[0] }

// Height returns the vertical extent of b.
func Height(b orb.Bound) float64 { return b.Max[1] - b.Min[1] }

// Area returns the area of b.
func Area(b orb.Bound) float64 { return Width(b) * Height(b) }

// Corners returns the corners of b counter-clockwise from the lower left.
func Corners(b orb.Bound) [4]orb.Point {
	return [4]orb.Point{
		b.Min,
		{b.Max[0], b.Min[1]},
		b.Max,
		{b.Min[0], b.Max[1]},
	}
}

// BoundsOverlap reports whether a and b share interior area. Touching edges
// do not count.
func BoundsOverlap(a, b orb.Bound) bool {
	return a.Min[0] < b.Max[0]-Epsilon && a.Max[0] > b.Min[0]+Epsilon &&
		a.Min[1] < b.Max[1]-Epsilon && a.Max[1] > b.Min[1]+Epsilon
}

// BoundGap returns the distance between two rectangles. When their interiors
// overlap the result is negative: the smaller of the two axis overlaps.
func BoundGap(a, b orb.Bound) float64 {
	dx := math.Max(a.Min[0]-b.Max[0], b.Min[0]-a.Max[0])
	dy := math.Max(a.Min[1]-b.Max[1], b.Min[1]-a.Max[1])
	switch {
	case dx > 0 && dy > 0:
		return math.Hypot(dx, dy)
	case dx > 0:
		return dx
	case dy > 0:
		return dy
	default:
		return math.Max(dx, dy)
	}
}

// IntersectionArea returns the area shared by two rectangles.
func IntersectionArea(a, b orb.Bound) float64 {
	w := math.Min(a.Max[0], b.Max[0]) - math.Max(a.Min[0], b.Min[0])
	h := math.Min(a.Max[1], b.Max[1]) - math.Max(a.Min[1], b.Min[1])
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// PointBoundDistance returns the distance from p to the closest point of b.
func PointBoundDistance(p orb.Point, b orb.Bound) float64 {
	dx := math.Max(math.Max(b.Min[0]-p[0], 0), p[0]-b.Max[0])
	dy := math.Max(math.Max(b.Min[1]-p[1], 0), p[1]-b.Max[1])
	return math.Hypot(dx, dy)
}

// ContainsBound reports whether the rectangle b lies inside polygon p.
// Boundary contact counts as inside, so a rectangle flush against an outer
// wall or a hole is still contained.
func ContainsBound(p orb.Polygon, b orb.Bound) bool {
	if len(p) == 0 || len(p[0]) < 4 {
		return false
	}
	pb := p.Bound()
	if b.Min[0] < pb.Min[0]-Epsilon || b.Min[1] < pb.Min[1]-Epsilon ||
		b.Max[0] > pb.Max[0]+Epsilon || b.Max[1] > pb.Max[1]+Epsilon {
		return false
	}

	// Probe slightly inside each corner so points on a hole's edge are not
	// reported as inside the hole.
	inset := math.Max(Epsilon, 1e-7*math.Max(Width(b), Height(b)))
	probe := orb.Bound{
		Min: orb.Point{b.Min[0] + inset, b.Min[1] + inset},
		Max: orb.Point{b.Max[0] - inset, b.Max[1] - inset},
	}
	if probe.Min[0] > probe.Max[0] || probe.Min[1] > probe.Max[1] {
		probe = orb.Bound{Min: b.Center(), Max: b.Center()}
	}
	for _, c := range Corners(probe) {
		if !planar.PolygonContains(p, c) {
			return false
		}
	}

	for _, ring := range p {
		for i := 0; i+1 < len(ring); i++ {
			if segmentCrossesInterior(ring[i], ring[i+1], b) {
				return false
			}
		}
	}
	return true
}

// OverlapArea returns the area of p inside b.
func OverlapArea(p orb.Polygon, b orb.Bound) float64 {
	if len(p) == 0 || !b.Intersects(p.Bound()) {
		return 0
	}
	clipped := clip.Polygon(b, p.Clone())
	if len(clipped) == 0 {
		return 0
	}
	return planar.Area(clipped)
}

// Clip returns p ∩ b, or nil when they do not overlap.
func Clip(p orb.Polygon, b orb.Bound) orb.Polygon {
	if len(p) == 0 || !b.Intersects(p.Bound()) {
		return nil
	}
	clipped := clip.Polygon(b, p.Clone())
	if len(clipped) == 0 || planar.Area(clipped) <= Epsilon {
		return nil
	}
	return clipped
}

// BoundDistance returns the distance between rectangle b and polygon p, zero
// when they touch or overlap.
func BoundDistance(b orb.Bound, p orb.Polygon) float64 {
	if len(p) == 0 || len(p[0]) == 0 {
		return math.Inf(1)
	}
	if b.Intersects(p.Bound()) {
		for _, c := range Corners(b) {
			if planar.PolygonContains(p, c) {
				return 0
			}
		}
		for _, ring := range p {
			for i := 0; i+1 < len(ring); i++ {
				if b.Contains(ring[i]) || clipSegment(ring[i], ring[i+1], b.Min, b.Max) {
					return 0
				}
			}
		}
	}

	best := math.Inf(1)
	corners := Corners(b)
	for _, ring := range p {
		for i := 0; i+1 < len(ring); i++ {
			best = math.Min(best, PointBoundDistance(ring[i], b))
			for _, c := range corners {
				best = math.Min(best, planar.DistanceFromSegment(ring[i], ring[i+1], c))
			}
		}
	}
	return best
}

// segmentCrossesInterior reports whether segment a-c passes through the open
// interior of b. Segments running along the boundary do not.
func segmentCrossesInterior(a, c orb.Point, b orb.Bound) bool {
	lo := orb.Point{b.Min[0] + Epsilon, b.Min[1] + Epsilon}
	hi := orb.Point{b.Max[0] - Epsilon, b.Max[1] - Epsilon}
	if lo[0] >= hi[0] || lo[1] >= hi[1] {
		return false
	}
	return clipSegment(a, c, lo, hi)
}

// clipSegment is the Liang-Barsky test: it reports whether any part of
// segment a-c lies inside the closed box lo-hi.
func clipSegment(a, c, lo, hi orb.Point) bool {
	t0, t1 := 0.0, 1.0
	dx, dy := c[0]-a[0], c[1]-a[1]
	checks := [4][2]float64{
		{-dx, a[0] - lo[0]},
		{dx, hi[0] - a[0]},
		{-dy, a[1] - lo[1]},
		{dy, hi[1] - a[1]},
	}
	for _, chk := range checks {
		p, q := chk[0], chk[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0 <= t1
}

// properIntersection returns the crossing point of segments a-b and c-d when
// they cross at interior points of both.
func properIntersection(a, b, c, d orb.Point) (orb.Point, bool) {
	r := orb.Point{b[0] - a[0], b[1] - a[1]}
	s := orb.Point{d[0] - c[0], d[1] - c[1]}
	den := cross(r, s)
	if math.Abs(den) < 1e-12 {
		return orb.Point{}, false
	}
	ac := orb.Point{c[0] - a[0], c[1] - a[1]}
	t := cross(ac, s) / den
	u := cross(ac, r) / den
	if t <= Epsilon || t >= 1-Epsilon || u <= Epsilon || u >= 1-Epsilon {
		return orb.Point{}, false
	}
	return orb.Point{a[0] + t*r[0], a[1] + t*r[1]}, true
}

func cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}
