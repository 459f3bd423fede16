package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/piwi3910/IlotPlan/internal/constraint"
	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
	"github.com/piwi3910/IlotPlan/internal/zone"
)

// maxScanSteps caps the candidate positions tried along one axis of a free
// rectangle.
const maxScanSteps = 200

// Placement is the outcome of one optimizer run.
type Placement struct {
	Cells    []model.PlacedCell // In spec order
	Unplaced []model.CellSpec   // In spec order
	Stats    model.SearchStats
}

// PlacedArea returns the summed footprint of the placed cells.
func (p Placement) PlacedArea() float64 {
	total := 0.0
	for _, c := range p.Cells {
		total += c.Area()
	}
	return total
}

// MeanScore returns the average placement score, 0 when nothing is placed.
func (p Placement) MeanScore() float64 {
	if len(p.Cells) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range p.Cells {
		total += c.Score
	}
	return total / float64(len(p.Cells))
}

// Optimizer positions cell specs inside a zone set.
type Optimizer struct {
	Settings model.Config
	zones    *zone.Set
	rules    *constraint.Engine
	log      *log.Logger
}

// New creates an optimizer for zones.
func New(settings model.Config, zones *zone.Set, logger *log.Logger) *Optimizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Optimizer{
		Settings: settings,
		zones:    zones,
		rules:    constraint.New(zones, settings),
		log:      logger,
	}
}

// NewRand returns the generator every stage of a run draws from.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Place assigns positions to specs using the configured strategy. It never
// fails: specs that cannot be placed are reported as unplaced, and when the
// time budget or ctx expires the best layout found so far is returned.
func (o *Optimizer) Place(ctx context.Context, specs []model.CellSpec, rng *rand.Rand) Placement {
	if len(specs) == 0 || o.zones.Empty() {
		return Placement{
			Unplaced: append([]model.CellSpec(nil), specs...),
			Stats:    model.SearchStats{Strategy: o.Settings.Strategy, StopReason: model.StopComplete},
		}
	}

	if budget := time.Duration(o.Settings.TimeBudget); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	start := time.Now()
	var p Placement
	switch o.Settings.Strategy {
	case model.StrategyGrid:
		p = o.placeGrid(ctx, specs)
	default:
		p = o.placeGenetic(ctx, specs, rng)
	}
	o.log.Info("placement finished",
		"strategy", p.Stats.Strategy,
		"placed", len(p.Cells),
		"requested", len(specs),
		"generations", p.Stats.Generations,
		"stop", p.Stats.StopReason,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return p
}

func (o *Optimizer) workers() int {
	if o.Settings.Workers > 0 {
		return o.Settings.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// slot is a resolved position for one spec.
type slot struct {
	bound   orb.Bound
	rotated bool
	score   float64
}

// collect turns per-spec slots (nil = unplaced) into a Placement.
func collect(specs []model.CellSpec, slots []*slot, stats model.SearchStats) Placement {
	p := Placement{Stats: stats}
	for i, s := range slots {
		if s == nil {
			p.Unplaced = append(p.Unplaced, specs[i])
			continue
		}
		p.Cells = append(p.Cells, model.NewPlacedCell(specs[i], s.bound.Min[0], s.bound.Min[1], s.rotated, s.score))
	}
	return p
}

// placeGrid packs cells largest first into the free rectangles of the
// buildable region, confirming every candidate with the constraint engine.
func (o *Optimizer) placeGrid(ctx context.Context, specs []model.CellSpec) Placement {
	slots, stop := o.greedySlots(ctx, specs)
	placed := 0
	for _, s := range slots {
		if s != nil {
			placed++
		}
	}
	return collect(specs, slots, model.SearchStats{
		Strategy:    model.StrategyGrid,
		BestFitness: float64(placed),
		StopReason:  stop,
	})
}

func (o *Optimizer) greedySlots(ctx context.Context, specs []model.CellSpec) ([]*slot, model.StopReason) {
	order := make([]int, len(specs))
	for i := range order {
		order[i] = i
	}
	// Largest first packs better.
	sort.SliceStable(order, func(i, j int) bool {
		return specs[order[i]].Area() > specs[order[j]].Area()
	})

	packer := newFreeRectPacker(o.calculateFreeRects(), o.Settings.MinClearance, o.Settings.GridStep)
	placed := constraint.NewPlaced()
	slots := make([]*slot, len(specs))
	stop := model.StopComplete

	for _, idx := range order {
		if ctx.Err() != nil {
			stop = model.StopDeadline
			break
		}
		spec := specs[idx]
		b, rotated, ok := packer.insert(spec.Width, spec.Height, func(b orb.Bound) bool {
			return o.rules.IsValid(b, placed)
		})
		if !ok {
			continue
		}
		score := o.rules.Score(b, placed)
		placed.Add(b)
		slots[idx] = &slot{bound: b, rotated: rotated, score: score}
	}
	return slots, stop
}

// calculateFreeRects computes the initial free rectangles for packing: the
// buildable bounds minus the exclusion boxes of obstacles.
func (o *Optimizer) calculateFreeRects() []orb.Bound {
	base := o.zones.Bounds()
	exclusions := o.zones.Exclusions()
	if len(exclusions) == 0 {
		return []orb.Bound{base}
	}
	return subtractExclusions(base, exclusions)
}

// subtractExclusions subtracts exclusion zones from a base rectangle,
// returning the remaining free rectangles.
func subtractExclusions(base orb.Bound, exclusions []orb.Bound) []orb.Bound {
	freeRects := []orb.Bound{base}
	for _, excl := range exclusions {
		var newFree []orb.Bound
		for _, free := range freeRects {
			newFree = append(newFree, subtractRect(free, excl)...)
		}
		freeRects = pruneContained(newFree)
	}

	var result []orb.Bound
	for _, r := range freeRects {
		if geom.Width(r) > geom.Epsilon && geom.Height(r) > geom.Epsilon {
			result = append(result, r)
		}
	}
	return result
}

// subtractRect subtracts sub from base, returning the maximal strips of base
// left, right, below and above it.
func subtractRect(base, sub orb.Bound) []orb.Bound {
	if !geom.BoundsOverlap(base, sub) {
		return []orb.Bound{base}
	}

	var result []orb.Bound
	// Left strip
	if sub.Min[0] > base.Min[0] {
		result = append(result, orb.Bound{Min: base.Min, Max: orb.Point{sub.Min[0], base.Max[1]}})
	}
	// Right strip
	if sub.Max[0] < base.Max[0] {
		result = append(result, orb.Bound{Min: orb.Point{sub.Max[0], base.Min[1]}, Max: base.Max})
	}
	// Bottom strip
	if sub.Min[1] > base.Min[1] {
		result = append(result, orb.Bound{Min: base.Min, Max: orb.Point{base.Max[0], sub.Min[1]}})
	}
	// Top strip
	if sub.Max[1] < base.Max[1] {
		result = append(result, orb.Bound{Min: orb.Point{base.Min[0], sub.Max[1]}, Max: base.Max})
	}
	return result
}

// freeRectPacker keeps maximal free rectangles and splits them around every
// placed cell padded by the clearance.
type freeRectPacker struct {
	freeRects []orb.Bound
	clearance float64
	step      float64
}

func newFreeRectPacker(initial []orb.Bound, clearance, step float64) *freeRectPacker {
	p := &freeRectPacker{freeRects: initial, clearance: clearance, step: step}
	p.sortRects()
	return p
}

type orientation struct {
	w, h    float64
	rotated bool
}

// insert finds the lowest, then leftmost, position in the free rectangles
// where a w x h cell (or its rotation) is accepted by valid.
func (fp *freeRectPacker) insert(w, h float64, valid func(orb.Bound) bool) (orb.Bound, bool, bool) {
	orientations := []orientation{{w, h, false}}
	if math.Abs(w-h) > geom.Epsilon {
		orientations = append(orientations, orientation{h, w, true})
	}

	for _, r := range fp.freeRects {
		for _, ori := range orientations {
			if ori.w > geom.Width(r)+geom.Epsilon || ori.h > geom.Height(r)+geom.Epsilon {
				continue
			}
			if b, ok := fp.scan(r, ori.w, ori.h, valid); ok {
				fp.splitAroundPlacement(b.Pad(fp.clearance))
				return b, ori.rotated, true
			}
		}
	}
	return orb.Bound{}, false, false
}

// scan walks r bottom-left first on the packer's step. The far edges are
// always tried so cells can sit flush against them.
func (fp *freeRectPacker) scan(r orb.Bound, w, h float64, valid func(orb.Bound) bool) (orb.Bound, bool) {
	xs := axisSteps(r.Min[0], r.Max[0]-w, fp.step)
	ys := axisSteps(r.Min[1], r.Max[1]-h, fp.step)
	for _, y := range ys {
		for _, x := range xs {
			b := geom.Rect(x, y, w, h)
			if valid(b) {
				return b, true
			}
		}
	}
	return orb.Bound{}, false
}

func axisSteps(lo, hi, step float64) []float64 {
	if hi < lo {
		hi = lo
	}
	span := hi - lo
	if step <= 0 || span/step > maxScanSteps {
		step = span / maxScanSteps
	}
	out := []float64{lo}
	if step > 0 {
		for v := lo + step; v < hi-geom.Epsilon; v += step {
			out = append(out, v)
		}
	}
	if hi-lo > geom.Epsilon {
		out = append(out, hi)
	}
	return out
}

// splitAroundPlacement removes all free rects that overlap with the placed
// rect and generates maximal sub-rects from each overlap, then prunes
// contained rects.
func (fp *freeRectPacker) splitAroundPlacement(placed orb.Bound) {
	var newRects []orb.Bound
	for _, r := range fp.freeRects {
		if !geom.BoundsOverlap(r, placed) {
			newRects = append(newRects, r)
			continue
		}
		for _, s := range subtractRect(r, placed) {
			if geom.Width(s) > geom.Epsilon && geom.Height(s) > geom.Epsilon {
				newRects = append(newRects, s)
			}
		}
	}
	fp.freeRects = pruneContained(newRects)
	fp.sortRects()
}

func (fp *freeRectPacker) sortRects() {
	sort.SliceStable(fp.freeRects, func(i, j int) bool {
		a, b := fp.freeRects[i], fp.freeRects[j]
		if a.Min[1] != b.Min[1] {
			return a.Min[1] < b.Min[1]
		}
		return a.Min[0] < b.Min[0]
	})
}

// pruneContained removes any rect that is fully contained within another.
// Of two identical rects the first is kept.
func pruneContained(rects []orb.Bound) []orb.Bound {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]orb.Bound, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsRect(b, a) {
				continue
			}
			if !containsRect(a, b) || j < i {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner orb.Bound) bool {
	return outer.Min[0] <= inner.Min[0]+geom.Epsilon && outer.Min[1] <= inner.Min[1]+geom.Epsilon &&
		outer.Max[0] >= inner.Max[0]-geom.Epsilon && outer.Max[1] >= inner.Max[1]-geom.Epsilon
}
