package zone

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/logging"
	"github.com/piwi3910/IlotPlan/internal/model"
)

func newTestSet(zones []model.Zone, mutate ...func(*model.Config)) *Set {
	cfg := model.DefaultConfig()
	cfg.EntranceBufferDistance = 1
	for _, m := range mutate {
		m(&cfg)
	}
	return NewSet(zones, cfg, logging.Discard())
}

func TestNewSetClassifies(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("floor", model.ZoneAvailable, 0, 0, 20, 10),
		model.RectZone("stairs", model.ZoneRestricted, 2, 2, 2, 2),
		model.RectZone("door", model.ZoneEntrance, 10, 0, 2, 0.5),
		model.RectZone("wall", model.ZoneWall, 15, 0, 0.2, 10),
	})

	require.False(t, s.Empty())
	assert.False(t, s.Fallback())
	assert.InDelta(t, 200.0, s.Area(), 1e-9)
	assert.Equal(t, geom.Rect(0, 0, 20, 10), s.Bounds())
	assert.Equal(t, map[model.ZoneKind]int{
		model.ZoneAvailable:  1,
		model.ZoneRestricted: 1,
		model.ZoneEntrance:   1,
		model.ZoneWall:       1,
	}, s.Counts())
	assert.Len(t, s.Exclusions(), 3)
}

func TestContains(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("a", model.ZoneAvailable, 0, 0, 10, 10),
		model.RectZone("b", model.ZoneAvailable, 10, 0, 10, 10),
		model.RectZone("far", model.ZoneAvailable, 30, 0, 5, 5),
	})

	assert.True(t, s.Contains(geom.Rect(1, 1, 2, 2)))
	assert.True(t, s.Contains(geom.Rect(9, 1, 2, 2)), "spans two adjoining zones")
	assert.False(t, s.Contains(geom.Rect(19, 1, 2, 2)))
	assert.False(t, s.Contains(geom.Rect(20, 1, 12, 2)), "spans the gap between zones")
	assert.InDelta(t, 0.5, s.Coverage(geom.Rect(19, 1, 2, 2)), 1e-9)
}

func TestContainsOverlappingZones(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("a", model.ZoneAvailable, 0, 0, 10, 10),
		model.RectZone("a-copy", model.ZoneAvailable, 0, 0, 10, 10),
		model.RectZone("b", model.ZoneAvailable, 10, 0, 10, 5),
	})

	assert.InDelta(t, 150.0, s.Area(), 1e-9)
	assert.False(t, s.Contains(geom.Rect(8, 4, 4, 4)), "upper right part lies outside every zone")
	assert.InDelta(t, 10.0/16.0, s.Coverage(geom.Rect(8, 4, 4, 4)), 1e-9)
	assert.True(t, s.Contains(geom.Rect(8, 1, 4, 3)))
	assert.True(t, s.Contains(geom.Rect(2, 2, 3, 3)))

	overlapping := newTestSet([]model.Zone{
		model.RectZone("left", model.ZoneAvailable, 0, 0, 12, 10),
		model.RectZone("right", model.ZoneAvailable, 8, 0, 12, 10),
	})
	assert.InDelta(t, 200.0, overlapping.Area(), 1e-9)
	assert.InDelta(t, 1.0, overlapping.Coverage(geom.Rect(6, 2, 8, 2)), 1e-9)
	assert.True(t, overlapping.Contains(geom.Rect(6, 2, 8, 2)))
}

func TestEntrances(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("floor", model.ZoneAvailable, 0, 0, 20, 10),
		model.RectZone("front", model.ZoneEntrance, 10, 0, 2, 0.5),
		model.RectZone("stairs", model.ZoneRestricted, 2, 2, 2, 2),
		model.RectZone("back", model.ZoneEntrance, 0, 4, 0.5, 2),
	})

	got := s.Entrances()
	require.Len(t, got, 2)
	assert.Equal(t, "front", got[0].ID)
	assert.InDelta(t, 11.0, got[0].Point[0], 1e-9)
	assert.InDelta(t, 0.25, got[0].Point[1], 1e-9)
	assert.Equal(t, "back", got[1].ID)
	assert.InDelta(t, 5.0, got[1].Point[1], 1e-9)

	assert.Empty(t, newTestSet([]model.Zone{model.RectZone("floor", model.ZoneAvailable, 0, 0, 5, 5)}).Entrances())
}

func TestHitsForbidden(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("floor", model.ZoneAvailable, 0, 0, 20, 20),
		model.RectZone("stairs", model.ZoneRestricted, 5, 5, 2, 2),
		model.RectZone("door", model.ZoneEntrance, 15, 0, 2, 1),
	})

	assert.True(t, s.HitsForbidden(geom.Rect(6, 6, 3, 3)), "overlaps restricted")
	assert.False(t, s.HitsForbidden(geom.Rect(7, 5, 2, 2)), "touching restricted is allowed")
	assert.True(t, s.HitsForbidden(geom.Rect(15, 1.5, 1, 1)), "inside the entrance buffer")
	assert.False(t, s.HitsForbidden(geom.Rect(15, 2.5, 1, 1)), "outside the entrance buffer")
	assert.False(t, s.HitsForbidden(geom.Rect(0, 10, 2, 2)))
}

func TestHitsWall(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("floor", model.ZoneAvailable, 0, 0, 20, 20),
		model.RectZone("wall", model.ZoneWall, 10, 0, 0.5, 20),
	})
	assert.True(t, s.HitsWall(geom.Rect(9, 1, 2, 2)))
	assert.False(t, s.HitsWall(geom.Rect(8, 1, 2, 2)), "touching a wall is allowed")
	assert.False(t, s.HitsForbidden(geom.Rect(9, 1, 2, 2)), "walls are not forbidden space")
}

func TestRepairAndDrop(t *testing.T) {
	bowtie := model.NewZone("bowtie", model.ZoneAvailable,
		orb.Point{0, 0}, orb.Point{4, 4}, orb.Point{4, 0}, orb.Point{0, 4})
	line := model.NewZone("line", model.ZoneRestricted, orb.Point{0, 0}, orb.Point{1, 1})
	empty := model.Zone{ID: "empty", Kind: model.ZoneWall}

	s := newTestSet([]model.Zone{bowtie, line, empty})
	assert.Equal(t, 2, s.Counts()[model.ZoneAvailable], "bowtie splits into two pieces")
	assert.Zero(t, s.Counts()[model.ZoneRestricted])
	assert.Zero(t, s.Counts()[model.ZoneWall])
	assert.InDelta(t, 8.0, s.Area(), 1e-9)
}

func TestFallback(t *testing.T) {
	zones := []model.Zone{
		model.RectZone("wall", model.ZoneWall, 0, 0, 10, 0.2),
		model.NewZone("stairs", model.ZoneRestricted, orb.Point{5, 5}, orb.Point{8, 10}, orb.Point{2, 10}),
	}

	box := newTestSet(zones, func(c *model.Config) { c.Fallback = model.FallbackBoundingBox })
	require.False(t, box.Empty())
	assert.True(t, box.Fallback())
	assert.InDelta(t, 100.0, box.Area(), 1e-9)

	hull := newTestSet(zones, func(c *model.Config) { c.Fallback = model.FallbackConvexHull })
	require.False(t, hull.Empty())
	assert.Less(t, hull.Area(), 100.0)
	assert.Greater(t, hull.Area(), 0.0)

	none := newTestSet(zones, func(c *model.Config) { c.Fallback = model.FallbackNone })
	assert.True(t, none.Empty())

	assert.True(t, newTestSet(nil).Empty())
}

func TestAnchorAndClip(t *testing.T) {
	s := newTestSet([]model.Zone{
		model.RectZone("a", model.ZoneAvailable, 0, 0, 10, 10),
		model.RectZone("b", model.ZoneAvailable, 20, 0, 10, 10),
	})

	c, r := s.Anchor(geom.Rect(21, 1, 1, 1))
	assert.InDelta(t, 25.0, c[0], 1e-9)
	assert.InDelta(t, 5.0, c[1], 1e-9)
	assert.InDelta(t, 7.0710678, r, 1e-6)

	clipped := s.Clip(geom.Rect(8, 2, 14, 2))
	require.NotNil(t, clipped)
	assert.InDelta(t, 2.0, clipped.Bound().Min[1], 1e-9)
	assert.Nil(t, s.Clip(geom.Rect(12, 2, 5, 2)))
}
