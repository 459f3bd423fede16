package geom

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// CoveredArea returns the area of b covered by the union of polys. Regions
// shared by several polygons are counted once.
//
// b is cut into vertical strips at every vertex and edge crossing of the
// clipped polygons. Inside a strip no two edges cross, so the covered height
// is linear in x and the height at the strip's midline gives its exact area.
func CoveredArea(polys []orb.Polygon, b orb.Bound) float64 {
	var pieces []orb.Polygon
	for _, p := range polys {
		if c := Clip(p, b); c != nil {
			pieces = append(pieces, c)
		}
	}
	if len(pieces) == 0 {
		return 0
	}

	type segment struct{ a, c orb.Point }
	edges := make([][]segment, len(pieces))
	xs := []float64{b.Min[0], b.Max[0]}
	for i, p := range pieces {
		for _, ring := range p {
			// The wrap-around edge is zero length on a closed ring.
			for k := range ring {
				edges[i] = append(edges[i], segment{ring[k], ring[(k+1)%len(ring)]})
				xs = append(xs, ring[k][0])
			}
		}
	}
	for i := range edges {
		for j := i + 1; j < len(edges); j++ {
			for _, e := range edges[i] {
				for _, f := range edges[j] {
					if x, ok := properIntersection(e.a, e.c, f.a, f.c); ok {
						xs = append(xs, x[0])
					}
				}
			}
		}
	}
	sort.Float64s(xs)

	area := 0.0
	var spans [][2]float64
	var ys []float64
	for k := 0; k+1 < len(xs); k++ {
		x0, x1 := math.Max(xs[k], b.Min[0]), math.Min(xs[k+1], b.Max[0])
		if x1-x0 <= Epsilon {
			continue
		}
		xm := (x0 + x1) / 2

		spans = spans[:0]
		for _, es := range edges {
			ys = ys[:0]
			for _, e := range es {
				lo, hi := math.Min(e.a[0], e.c[0]), math.Max(e.a[0], e.c[0])
				if xm <= lo || xm >= hi {
					continue
				}
				t := (xm - e.a[0]) / (e.c[0] - e.a[0])
				ys = append(ys, e.a[1]+t*(e.c[1]-e.a[1]))
			}
			sort.Float64s(ys)
			for n := 0; n+1 < len(ys); n += 2 {
				spans = append(spans, [2]float64{ys[n], ys[n+1]})
			}
		}
		area += unionLength(spans) * (x1 - x0)
	}
	return area
}

// unionLength returns the total length covered by the intervals in spans.
// spans is reordered.
func unionLength(spans [][2]float64) float64 {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	total := 0.0
	lo, hi := spans[0][0], spans[0][1]
	for _, s := range spans[1:] {
		if s[0] > hi {
			total += hi - lo
			lo, hi = s[0], s[1]
			continue
		}
		hi = math.Max(hi, s[1])
	}
	return total + hi - lo
}
