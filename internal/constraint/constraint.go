// Package constraint holds the placement rules and the placement quality
// score shared by every optimizer strategy.
package constraint

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
	"github.com/piwi3910/IlotPlan/internal/zone"
)

// Placed is the growing set of cells accepted while one layout is resolved.
// It is not safe for concurrent use; each resolution owns its own.
type Placed struct {
	bounds []orb.Bound
	index  *geom.Index
	area   float64
}

// NewPlaced returns an empty set.
func NewPlaced() *Placed {
	return &Placed{index: geom.NewIndex()}
}

// Add accepts b and returns its position in the set.
func (p *Placed) Add(b orb.Bound) int {
	id := len(p.bounds)
	p.bounds = append(p.bounds, b)
	p.index.Insert(id, b)
	p.area += geom.Area(b)
	return id
}

// Len returns the number of accepted cells.
func (p *Placed) Len() int { return len(p.bounds) }

// Area returns the summed area of accepted cells.
func (p *Placed) Area() float64 { return p.area }

// Bounds returns the accepted cells in insertion order.
func (p *Placed) Bounds() []orb.Bound { return p.bounds }

// Engine evaluates candidate rectangles against one zone set.
type Engine struct {
	zones     *zone.Set
	clearance float64
	weights   model.ScoreWeights
}

// New creates an engine for zones using the clearance and score weights of cfg.
func New(zones *zone.Set, cfg model.Config) *Engine {
	return &Engine{zones: zones, clearance: cfg.MinClearance, weights: cfg.Scoring}
}

// Admissible checks the rules that do not depend on other cells: b lies in
// the buildable region, stays out of forbidden space and does not overlap a
// wall.
func (e *Engine) Admissible(b orb.Bound) bool {
	if e.zones.Empty() || geom.Width(b) <= 0 || geom.Height(b) <= 0 {
		return false
	}
	zb := e.zones.Bounds()
	if b.Min[0] < zb.Min[0]-geom.Epsilon || b.Min[1] < zb.Min[1]-geom.Epsilon ||
		b.Max[0] > zb.Max[0]+geom.Epsilon || b.Max[1] > zb.Max[1]+geom.Epsilon {
		return false
	}
	return e.zones.Contains(b) && !e.zones.HitsForbidden(b) && !e.zones.HitsWall(b)
}

// IsValid reports whether b can join placed: it must be admissible and keep
// at least the minimum clearance from every placed cell.
func (e *Engine) IsValid(b orb.Bound, placed *Placed) bool {
	if placed != nil && placed.Len() > 0 {
		if len(placed.index.Within(b, e.clearance-geom.Epsilon)) > 0 {
			return false
		}
	}
	return e.Admissible(b)
}

// Score rates a valid candidate in [0, 1]. It combines how close b sits to
// the centre of its hosting zone, how near its nearest neighbour is relative
// to the ideal spacing, and how much of the surrounding window is already
// covered. Walls play no part.
func (e *Engine) Score(b orb.Bound, placed *Placed) float64 {
	w := e.weights
	total := w.Centroid + w.Spacing + w.Fill
	if total <= 0 {
		return 0
	}
	s := w.Centroid*e.centroidTerm(b) + w.Spacing*e.spacingTerm(b, placed) + w.Fill*e.fillTerm(b, placed)
	return clamp01(s / total)
}

func (e *Engine) centroidTerm(b orb.Bound) float64 {
	c, r := e.zones.Anchor(b)
	if r <= 0 {
		return 1
	}
	return clamp01(1 - planar.Distance(b.Center(), c)/r)
}

func (e *Engine) spacingTerm(b orb.Bound, placed *Placed) float64 {
	ideal := e.weights.IdealSpacing
	if placed == nil || placed.Len() == 0 || ideal <= 0 {
		return 1
	}
	d := placed.index.Nearest(b, nil)
	return clamp01(math.Max(d, 0) / ideal)
}

func (e *Engine) fillTerm(b orb.Bound, placed *Placed) float64 {
	window := b.Pad(e.weights.IdealSpacing + e.clearance + geom.Epsilon)
	covered := geom.Area(b)
	if placed != nil {
		for _, id := range placed.index.Search(window) {
			covered += geom.IntersectionArea(window, placed.bounds[id])
		}
	}
	return clamp01(covered / geom.Area(window))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
