package geom

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minExtent keeps degenerate (point or line) bounds storable in the R-tree.
const minExtent = 1e-9

// entry is a stored bound with its caller-supplied id.
type entry struct {
	id    int
	bound orb.Bound
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is a 2D R-tree of rectangles keyed by integer id. Query results are
// sorted by id so callers iterate deterministically.
type Index struct {
	tree    *rtreego.Rtree
	entries []*entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 4, 16)}
}

// Len returns the number of stored bounds.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Insert stores b under id.
func (ix *Index) Insert(id int, b orb.Bound) {
	e := &entry{id: id, bound: b, rect: toRect(b)}
	ix.entries = append(ix.entries, e)
	ix.tree.Insert(e)
}

// Search returns the ids of stored bounds intersecting b, contact included.
func (ix *Index) Search(b orb.Bound) []int {
	if len(ix.entries) == 0 {
		return nil
	}
	q := b.Pad(1e-7)
	hits := ix.tree.SearchIntersect(toRect(q))
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*entry).id)
	}
	sort.Ints(ids)
	return ids
}

// Within returns the ids of stored bounds whose gap to b is below dist.
func (ix *Index) Within(b orb.Bound, dist float64) []int {
	if len(ix.entries) == 0 {
		return nil
	}
	hits := ix.tree.SearchIntersect(toRect(b.Pad(math.Max(dist, 0) + 1e-7)))
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		e := h.(*entry)
		if BoundGap(b, e.bound) < dist {
			ids = append(ids, e.id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Nearest returns the smallest gap between b and any stored bound whose id
// skip does not exclude (skip may be nil), or +Inf when no such bound exists. The search widens around b until
// a hit is found, then confirms the exact minimum among everything closer.
func (ix *Index) Nearest(b orb.Bound, skip func(id int) bool) float64 {
	if len(ix.entries) == 0 {
		return math.Inf(1)
	}
	radius := math.Max(Width(b), Height(b))
	if radius <= 0 {
		radius = 1
	}
	all := ix.bound()
	for {
		best := math.Inf(1)
		for _, h := range ix.tree.SearchIntersect(toRect(b.Pad(radius))) {
			e := h.(*entry)
			if skip != nil && skip(e.id) {
				continue
			}
			best = math.Min(best, BoundGap(b, e.bound))
		}
		if best <= radius {
			return best
		}
		if b.Pad(radius).Union(all) == b.Pad(radius) {
			return best
		}
		radius *= 2
	}
}

// bound returns the union of every stored bound.
func (ix *Index) bound() orb.Bound {
	out := ix.entries[0].bound
	for _, e := range ix.entries[1:] {
		out = out.Union(e.bound)
	}
	return out
}

func toRect(b orb.Bound) rtreego.Rect {
	w := math.Max(b.Max[0]-b.Min[0], minExtent)
	h := math.Max(b.Max[1]-b.Min[1], minExtent)
	r, err := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{w, h})
	if err != nil {
		// Only non-positive lengths are rejected, and both are clamped above.
		panic(err)
	}
	return r
}
