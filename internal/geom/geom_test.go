package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) orb.Polygon {
	return Rect(x, y, size, size).ToPolygon()
}

func TestBoundGap(t *testing.T) {
	a := Rect(0, 0, 2, 2)
	tests := []struct {
		name string
		b    orb.Bound
		want float64
	}{
		{"apart on x", Rect(5, 0, 1, 1), 3},
		{"apart on y", Rect(0, 4, 1, 1), 2},
		{"diagonal", Rect(5, 6, 1, 1), 5},
		{"touching", Rect(2, 0, 1, 1), 0},
		{"overlapping", Rect(1.5, 0, 2, 2), -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BoundGap(a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, BoundGap(tt.b, a), 1e-9)
		})
	}
}

func TestBoundsOverlap(t *testing.T) {
	a := Rect(0, 0, 2, 2)
	assert.True(t, BoundsOverlap(a, Rect(1, 1, 2, 2)))
	assert.False(t, BoundsOverlap(a, Rect(2, 0, 2, 2)), "shared edge is not an overlap")
	assert.False(t, BoundsOverlap(a, Rect(3, 3, 1, 1)))
}

func TestContainsBound(t *testing.T) {
	room := square(0, 0, 10)

	assert.True(t, ContainsBound(room, Rect(1, 1, 2, 2)))
	assert.True(t, ContainsBound(room, Rect(0, 0, 2, 2)), "flush with the outer boundary")
	assert.False(t, ContainsBound(room, Rect(9, 9, 2, 2)))
	assert.False(t, ContainsBound(room, Rect(20, 20, 1, 1)))

	// L-shaped room: the notch at the top right is outside.
	ell := orb.Polygon{{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}, {0, 0}}}
	assert.True(t, ContainsBound(ell, Rect(1, 1, 3, 3)))
	assert.False(t, ContainsBound(ell, Rect(4, 4, 3, 3)), "rectangle spans the notch")
	assert.True(t, ContainsBound(ell, Rect(5, 0, 5, 5)), "rectangle flush with the notch edges")

	// Room with a column: touching the column is fine, covering it is not.
	withHole := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}
	assert.True(t, ContainsBound(withHole, Rect(1, 4, 3, 2)))
	assert.False(t, ContainsBound(withHole, Rect(3, 3, 4, 4)))
	assert.False(t, ContainsBound(withHole, Rect(3, 4.5, 2, 1)))
}

func TestOverlapArea(t *testing.T) {
	p := square(0, 0, 4)
	assert.InDelta(t, 4.0, OverlapArea(p, Rect(2, 2, 4, 4)), 1e-9)
	assert.InDelta(t, 0.0, OverlapArea(p, Rect(4, 0, 2, 2)), 1e-9)
	assert.InDelta(t, 0.0, OverlapArea(p, Rect(10, 10, 2, 2)), 1e-9)

	// The input polygon is not modified by clipping.
	before := p.Clone()
	OverlapArea(p, Rect(1, 1, 1, 1))
	assert.Equal(t, before, p)
}

func TestClip(t *testing.T) {
	p := square(0, 0, 4)
	got := Clip(p, Rect(3, 1, 4, 2))
	require.NotNil(t, got)
	assert.InDelta(t, 2.0, planar.Area(got), 1e-9)
	assert.Nil(t, Clip(p, Rect(5, 5, 1, 1)))
}

func TestCoveredArea(t *testing.T) {
	a := square(0, 0, 10)
	b := Rect(10, 0, 10, 5).ToPolygon()
	assert.InDelta(t, 10.0, CoveredArea([]orb.Polygon{a, a.Clone(), b}, Rect(8, 4, 4, 4)), 1e-9,
		"duplicate polygons count once")
	assert.InDelta(t, 150.0, CoveredArea([]orb.Polygon{a, a.Clone(), b}, Rect(0, 0, 20, 10)), 1e-9)

	// Two triangles crossing at (2, 2) share a triangle of area 4.
	lower := orb.Polygon{{{0, 0}, {4, 0}, {0, 4}, {0, 0}}}
	right := orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 0}}}
	assert.InDelta(t, 12.0, CoveredArea([]orb.Polygon{lower, right}, Rect(0, 0, 4, 4)), 1e-9)

	withHole := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}
	assert.InDelta(t, 96.0, CoveredArea([]orb.Polygon{withHole}, Rect(0, 0, 10, 10)), 1e-9)
	assert.InDelta(t, 100.0, CoveredArea([]orb.Polygon{withHole, square(3, 3, 4)}, Rect(0, 0, 10, 10)), 1e-9,
		"the hole is filled by the second polygon")

	assert.Zero(t, CoveredArea(nil, Rect(0, 0, 1, 1)))
	assert.Zero(t, CoveredArea([]orb.Polygon{a}, Rect(20, 20, 1, 1)))
}

func TestBoundDistance(t *testing.T) {
	p := square(0, 0, 2)
	assert.InDelta(t, 0.0, BoundDistance(Rect(1, 1, 3, 3), p), 1e-9)
	assert.InDelta(t, 0.0, BoundDistance(Rect(2, 0, 1, 1), p), 1e-9)
	assert.InDelta(t, 1.0, BoundDistance(Rect(3, 0, 1, 1), p), 1e-9)
	assert.InDelta(t, math.Sqrt2, BoundDistance(Rect(3, 3, 1, 1), p), 1e-9)
	assert.InDelta(t, 0.0, BoundDistance(Rect(-1, -1, 5, 5), p), 1e-9, "polygon inside the rectangle")
	assert.True(t, math.IsInf(BoundDistance(Rect(0, 0, 1, 1), nil), 1))
}

func TestRepairBowtie(t *testing.T) {
	bowtie := orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}
	pieces := Repair(bowtie)
	require.Len(t, pieces, 2)
	for _, p := range pieces {
		assert.InDelta(t, 1.0, planar.Area(p), 1e-9)
		assert.Equal(t, orb.CCW, p[0].Orientation())
		assert.True(t, IsSimple(p[0]))
	}
}

func TestRepairCleansRing(t *testing.T) {
	// Clockwise, unclosed, with a duplicate and a collinear vertex.
	messy := orb.Polygon{{{0, 0}, {0, 4}, {0, 4}, {4, 4}, {4, 2}, {4, 0}}}
	pieces := Repair(messy)
	require.Len(t, pieces, 1)
	ring := pieces[0][0]
	assert.Equal(t, ring[0], ring[len(ring)-1], "ring is closed")
	assert.Equal(t, orb.CCW, ring.Orientation())
	assert.InDelta(t, 16.0, planar.Area(pieces[0]), 1e-9)
}

func TestRepairKeepsHoles(t *testing.T) {
	p := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	}
	pieces := Repair(p)
	require.Len(t, pieces, 1)
	require.Len(t, pieces[0], 2)
	assert.Equal(t, orb.CW, pieces[0][1].Orientation())
	assert.InDelta(t, 96.0, planar.Area(pieces[0]), 1e-9)
}

func TestRepairDegenerate(t *testing.T) {
	assert.Nil(t, Repair(nil))
	assert.Nil(t, Repair(orb.Polygon{{{0, 0}, {1, 1}}}))
	assert.Empty(t, Repair(orb.Polygon{{{0, 0}, {1, 1}, {2, 2}, {0, 0}}}), "collinear ring has no area")
}

func TestConvexHull(t *testing.T) {
	pts := []orb.Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2}, {1, 3}, {4, 0}}
	hull := ConvexHull(pts)
	require.NotNil(t, hull)
	assert.Len(t, hull, 5)
	assert.Equal(t, hull[0], hull[len(hull)-1])
	assert.Equal(t, orb.CCW, hull.Orientation())
	assert.InDelta(t, 16.0, planar.Area(hull), 1e-9)

	assert.Nil(t, ConvexHull([]orb.Point{{0, 0}, {1, 1}}))
}

func TestIndex(t *testing.T) {
	ix := NewIndex()
	ix.Insert(2, Rect(5, 0, 1, 1))
	ix.Insert(0, Rect(0, 0, 1, 1))
	ix.Insert(1, Rect(2, 0, 1, 1))
	require.Equal(t, 3, ix.Len())

	assert.Equal(t, []int{0, 1}, ix.Search(Rect(0.5, 0.5, 1.5, 0.2)), "contact with 1 counts")
	assert.Equal(t, []int{0, 1, 2}, ix.Search(Rect(-1, -1, 10, 3)))
	assert.Empty(t, ix.Search(Rect(20, 20, 1, 1)))

	assert.Equal(t, []int{0, 1}, ix.Within(Rect(1.2, 0, 0.5, 1), 0.5))

	assert.InDelta(t, 1.0, ix.Nearest(Rect(0, 0, 1, 1), func(id int) bool { return id == 0 }), 1e-9)
	assert.InDelta(t, 14.0, ix.Nearest(Rect(20, 0, 1, 1), nil), 1e-9)
	assert.True(t, math.IsInf(ix.Nearest(Rect(0, 0, 1, 1), func(int) bool { return true }), 1))
	assert.True(t, math.IsInf(NewIndex().Nearest(Rect(0, 0, 1, 1), nil), 1))
}
