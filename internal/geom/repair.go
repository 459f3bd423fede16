package geom

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// MinArea is the area below which a repaired piece is considered degenerate.
const MinArea = 1e-6

const maxSplitDepth = 64

// Repair turns p into valid simple polygons: duplicate and collinear vertices
// are dropped, rings are closed, outer rings run counter-clockwise and holes
// clockwise, and a self-intersecting outer ring is split into its simple
// loops. Pieces of (near) zero area are discarded, so an unrepairable polygon
// yields nil. Pieces are returned largest first.
func Repair(p orb.Polygon) []orb.Polygon {
	if len(p) == 0 {
		return nil
	}
	outer := cleanRing(p[0])
	if outer == nil {
		return nil
	}

	var holes []orb.Ring
	for _, h := range p[1:] {
		c := cleanRing(h)
		if c == nil {
			continue
		}
		for _, piece := range splitRing(c, 0) {
			if planar.Area(piece) > MinArea {
				orient(piece, orb.CW)
				holes = append(holes, piece)
			}
		}
	}

	var out []orb.Polygon
	used := make([]bool, len(holes))
	for _, piece := range splitRing(outer, 0) {
		if planar.Area(piece) <= MinArea {
			continue
		}
		orient(piece, orb.CCW)
		poly := orb.Polygon{piece}
		for i, h := range holes {
			if !used[i] && planar.RingContains(piece, h[0]) {
				poly = append(poly, h)
				used[i] = true
			}
		}
		if planar.Area(poly) > MinArea {
			out = append(out, poly)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return planar.Area(out[i]) > planar.Area(out[j])
	})
	return out
}

// cleanRing closes r and removes repeated and collinear vertices. It returns
// nil when fewer than three distinct vertices remain.
func cleanRing(r orb.Ring) orb.Ring {
	pts := make(orb.Ring, 0, len(r)+1)
	for _, pt := range r {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) || math.IsInf(pt[0], 0) || math.IsInf(pt[1], 0) {
			continue
		}
		if len(pts) > 0 && samePoint(pts[len(pts)-1], pt) {
			continue
		}
		pts = append(pts, pt)
	}
	for len(pts) > 1 && samePoint(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil
	}
	pts = append(pts, pts[0])

	if simplified, ok := simplify.DouglasPeucker(Epsilon).Simplify(pts.Clone()).(orb.Ring); ok && len(simplified) >= 4 {
		pts = simplified
	}
	if len(pts) < 4 {
		return nil
	}
	return pts
}

// splitRing cuts a closed ring at its first proper self-crossing and recurses
// on both loops.
func splitRing(r orb.Ring, depth int) []orb.Ring {
	n := len(r) - 1
	if depth > maxSplitDepth || n < 4 {
		return []orb.Ring{r}
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			p, ok := properIntersection(r[i], r[i+1], r[j], r[j+1])
			if !ok {
				continue
			}
			a := orb.Ring{p}
			a = append(a, r[i+1:j+1]...)
			a = append(a, p)

			b := make(orb.Ring, 0, n-(j-i)+2)
			b = append(b, r[:i+1]...)
			b = append(b, p)
			b = append(b, r[j+1:n]...)
			b = append(b, r[0])

			return append(splitRing(a, depth+1), splitRing(b, depth+1)...)
		}
	}
	return []orb.Ring{r}
}

// IsSimple reports whether the closed ring r has no proper self-crossing.
func IsSimple(r orb.Ring) bool {
	n := len(r) - 1
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if _, ok := properIntersection(r[i], r[i+1], r[j], r[j+1]); ok {
				return false
			}
		}
	}
	return true
}

func orient(r orb.Ring, o orb.Orientation) {
	if r.Orientation() != o {
		r.Reverse()
	}
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) <= Epsilon && math.Abs(a[1]-b[1]) <= Epsilon
}

// ConvexHull returns the counter-clockwise closed hull of pts using the
// monotone chain algorithm, or nil for fewer than three distinct points.
func ConvexHull(pts []orb.Point) orb.Ring {
	sorted := make([]orb.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})
	uniq := sorted[:0]
	for _, p := range sorted {
		if len(uniq) == 0 || !samePoint(uniq[len(uniq)-1], p) {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return nil
	}

	turn := func(o, a, b orb.Point) float64 {
		return cross(orb.Point{a[0] - o[0], a[1] - o[1]}, orb.Point{b[0] - o[0], b[1] - o[1]})
	}
	hull := make(orb.Ring, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	if len(hull) < 4 {
		return nil
	}
	return hull
}
