// Package zone turns the typed floor plan polygons into the buildable and
// forbidden regions the placement and corridor stages query.
package zone

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
)

// obstacle is a repaired restricted, entrance or wall polygon. A rectangle
// hits it when it overlaps the polygon (radius 0) or comes closer than radius.
type obstacle struct {
	id     string
	kind   model.ZoneKind
	poly   orb.Polygon
	bound  orb.Bound
	radius float64
}

// region is one buildable polygon with its precomputed anchor.
type region struct {
	id       string
	poly     orb.Polygon
	bound    orb.Bound
	area     float64
	centroid orb.Point
	radius   float64
}

// Set is the classified zone collection of one run. It is immutable after
// NewSet and safe for concurrent reads.
type Set struct {
	regions   []region
	forbidden []obstacle
	walls     []obstacle
	bound     orb.Bound
	area      float64
	counts    map[model.ZoneKind]int
	fallback  bool
}

// NewSet repairs and classifies zones. Zones that cannot be repaired are
// dropped with a warning; self-intersecting zones may split into several
// pieces. When no available zone survives, the buildable region follows
// cfg.Fallback.
func NewSet(zones []model.Zone, cfg model.Config, logger *log.Logger) *Set {
	if logger == nil {
		logger = log.Default()
	}
	s := &Set{counts: make(map[model.ZoneKind]int)}
	var all []orb.Polygon

	for i, z := range zones {
		id := z.ID
		if id == "" {
			id = fmt.Sprintf("zone-%d", i)
		}
		pieces := geom.Repair(z.Polygon)
		if len(pieces) == 0 {
			logger.Warn("dropping degenerate zone", "zone", id, "kind", z.Kind)
			continue
		}
		if len(pieces) > 1 || len(pieces[0][0]) != len(z.Polygon[0]) {
			logger.Warn("repaired zone polygon", "zone", id, "kind", z.Kind, "pieces", len(pieces))
		}

		for n, p := range pieces {
			pid := id
			if n > 0 {
				pid = fmt.Sprintf("%s#%d", id, n+1)
			}
			switch z.Kind {
			case model.ZoneAvailable:
				s.regions = append(s.regions, newRegion(pid, p))
			case model.ZoneRestricted:
				s.forbidden = append(s.forbidden, newObstacle(pid, z.Kind, p, 0))
			case model.ZoneEntrance:
				s.forbidden = append(s.forbidden, newObstacle(pid, z.Kind, p, cfg.EntranceBufferDistance))
			case model.ZoneWall:
				s.walls = append(s.walls, newObstacle(pid, z.Kind, p, 0))
			default:
				logger.Warn("dropping zone of unknown kind", "zone", pid, "kind", z.Kind)
				continue
			}
			s.counts[z.Kind]++
			all = append(all, p)
		}
	}

	if len(s.regions) == 0 && len(all) > 0 {
		if p := fallbackRegion(all, cfg.Fallback); p != nil {
			logger.Info("no available zone, using fallback region", "policy", cfg.Fallback)
			s.regions = append(s.regions, newRegion("fallback", p))
			s.fallback = true
		}
	}

	polys := make([]orb.Polygon, 0, len(s.regions))
	for i, r := range s.regions {
		if i == 0 {
			s.bound = r.bound
		} else {
			s.bound = s.bound.Union(r.bound)
		}
		polys = append(polys, r.poly)
	}
	// Overlapping available zones share area; it is counted once.
	if len(polys) == 1 {
		s.area = s.regions[0].area
	} else if len(polys) > 1 {
		s.area = geom.CoveredArea(polys, s.bound)
	}
	return s
}

func newRegion(id string, p orb.Polygon) region {
	b := p.Bound()
	centroid, area := planar.CentroidArea(p)
	radius := 0.0
	for _, c := range geom.Corners(b) {
		radius = math.Max(radius, planar.Distance(centroid, c))
	}
	return region{id: id, poly: p, bound: b, area: area, centroid: centroid, radius: radius}
}

func newObstacle(id string, kind model.ZoneKind, p orb.Polygon, radius float64) obstacle {
	return obstacle{id: id, kind: kind, poly: p, bound: p.Bound(), radius: radius}
}

func fallbackRegion(all []orb.Polygon, policy model.FallbackPolicy) orb.Polygon {
	switch policy {
	case model.FallbackBoundingBox:
		b := all[0].Bound()
		for _, p := range all[1:] {
			b = b.Union(p.Bound())
		}
		if geom.Area(b) <= geom.MinArea {
			return nil
		}
		return b.ToPolygon()
	case model.FallbackConvexHull:
		var pts []orb.Point
		for _, p := range all {
			pts = append(pts, p[0]...)
		}
		hull := geom.ConvexHull(pts)
		if hull == nil || planar.Area(hull) <= geom.MinArea {
			return nil
		}
		return orb.Polygon{hull}
	default:
		return nil
	}
}

// Empty reports whether nothing is buildable.
func (s *Set) Empty() bool {
	return len(s.regions) == 0
}

// Fallback reports whether the buildable region came from the fallback policy.
func (s *Set) Fallback() bool {
	return s.fallback
}

// Bounds returns the extent of the buildable region.
func (s *Set) Bounds() orb.Bound {
	return s.bound
}

// Area returns the total buildable area.
func (s *Set) Area() float64 {
	return s.area
}

// Counts returns how many repaired pieces of each kind are in use.
func (s *Set) Counts() map[model.ZoneKind]int {
	out := make(map[model.ZoneKind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Contains reports whether b lies in the buildable region: inside a single
// buildable polygon, or covered by adjoining ones.
func (s *Set) Contains(b orb.Bound) bool {
	var touching []int
	for i, r := range s.regions {
		if !r.bound.Intersects(b) {
			continue
		}
		if geom.ContainsBound(r.poly, b) {
			return true
		}
		touching = append(touching, i)
	}
	if len(touching) < 2 {
		return false
	}
	return s.Coverage(b) >= 1-1e-9
}

// Coverage returns the fraction of b inside the union of the buildable
// polygons.
func (s *Set) Coverage(b orb.Bound) float64 {
	a := geom.Area(b)
	if a <= 0 {
		return 0
	}
	var polys []orb.Polygon
	for _, r := range s.regions {
		if r.bound.Intersects(b) {
			polys = append(polys, r.poly)
		}
	}
	return math.Min(geom.CoveredArea(polys, b)/a, 1)
}

// HitsForbidden reports whether b overlaps a restricted zone or comes within
// the buffer distance of an entrance.
func (s *Set) HitsForbidden(b orb.Bound) bool {
	for _, o := range s.forbidden {
		if hits(o, b) {
			return true
		}
	}
	return false
}

// HitsWall reports whether b overlaps a wall. Contact is allowed.
func (s *Set) HitsWall(b orb.Bound) bool {
	for _, o := range s.walls {
		if hits(o, b) {
			return true
		}
	}
	return false
}

func hits(o obstacle, b orb.Bound) bool {
	if !o.bound.Pad(o.radius).Intersects(b) {
		return false
	}
	if o.radius > 0 {
		return geom.BoundDistance(b, o.poly) < o.radius-geom.Epsilon
	}
	return geom.OverlapArea(o.poly, b) > geom.Epsilon
}

// Exclusions returns boxes that no cell may overlap: rectangular forbidden
// zones padded by their buffer, and rectangular walls. Other shapes are left
// to HitsForbidden and HitsWall.
func (s *Set) Exclusions() []orb.Bound {
	out := make([]orb.Bound, 0, len(s.forbidden)+len(s.walls))
	for _, o := range append(append([]obstacle(nil), s.forbidden...), s.walls...) {
		if planar.Area(o.poly) >= geom.Area(o.bound)*(1-1e-9) {
			out = append(out, o.bound.Pad(o.radius))
		}
	}
	return out
}

// Entrance is an entrance zone and the point corridors connect it at.
type Entrance struct {
	ID    string
	Point orb.Point
}

// Entrances returns every entrance piece with its centroid, in input order.
func (s *Set) Entrances() []Entrance {
	var out []Entrance
	for _, o := range s.forbidden {
		if o.kind != model.ZoneEntrance {
			continue
		}
		c, _ := planar.CentroidArea(o.poly)
		out = append(out, Entrance{ID: o.id, Point: c})
	}
	return out
}

// Anchor returns the centroid of the buildable polygon hosting b and the
// largest distance from that centroid to the polygon's bound. The host is the
// polygon containing b's centre, or the one overlapping b most.
func (s *Set) Anchor(b orb.Bound) (orb.Point, float64) {
	if len(s.regions) == 0 {
		return b.Center(), 0
	}
	c := b.Center()
	host := -1
	for i, r := range s.regions {
		if r.bound.Contains(c) && planar.PolygonContains(r.poly, c) {
			host = i
			break
		}
	}
	if host < 0 {
		best := -1.0
		for i, r := range s.regions {
			if a := geom.OverlapArea(r.poly, b); a > best {
				best, host = a, i
			}
		}
	}
	r := s.regions[host]
	return r.centroid, r.radius
}

// Clip returns the largest piece of b inside the buildable region, or nil.
func (s *Set) Clip(b orb.Bound) orb.Polygon {
	var best orb.Polygon
	bestArea := 0.0
	for _, r := range s.regions {
		p := geom.Clip(r.poly, b)
		if p == nil {
			continue
		}
		if a := planar.Area(p); a > bestArea {
			best, bestArea = p, a
		}
	}
	return best
}
