// Package corridor connects row groups of placed cells with walkable
// corridors: straight bands between facing rows, grid routed paths between
// groups that rows leave disconnected, and paths linking entrances to the
// nearest corridor.
package corridor

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
	"github.com/piwi3910/IlotPlan/internal/zone"
)

// slideSteps is the number of offsets tried on each side of the gap centre
// when the centred band leaves the buildable region.
const slideSteps = 16

var idSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ilotplan/corridor"))

// Network is the corridor set for one layout plus its connectivity.
type Network struct {
	Corridors       []model.CorridorSegment
	Groups          int
	ConnectedGroups int // Size of the largest set of groups joined by corridors
	Components      int
}

// Builder produces corridors for a zone set.
type Builder struct {
	Settings model.Config
	zones    *zone.Set
	log      *log.Logger
}

// New creates a builder.
func New(settings model.Config, zones *zone.Set, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{Settings: settings, zones: zones, log: logger}
}

// Build connects groups. Corridors never overlap cells. Groups that cannot
// be reached stay unconnected and show up in the returned counts.
func (b *Builder) Build(ctx context.Context, groups []model.RowGroup, cells []model.PlacedCell) Network {
	net := Network{Groups: len(groups)}
	if len(groups) == 0 {
		return net
	}

	uf := newUnionFind(len(groups))
	finish := func() Network {
		net.ConnectedGroups = uf.largest()
		net.Components = uf.sets
		return net
	}
	if b.Settings.CorridorWidth <= 0 || b.zones.Empty() {
		return finish()
	}

	ix := geom.NewIndex()
	bounds := make([]orb.Bound, len(cells))
	for i, c := range cells {
		bounds[i] = c.Bound()
		ix.Insert(i, bounds[i])
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return groups[order[i]].MeanY < groups[order[j]].MeanY })

	for k := 1; k < len(order); k++ {
		lo, hi := order[k-1], order[k]
		seg, ok := b.rowCorridor(groups[lo], groups[hi], ix, bounds, len(net.Corridors))
		if !ok {
			continue
		}
		net.Corridors = append(net.Corridors, seg)
		uf.union(lo, hi)
	}
	b.log.Debug("row corridors built", "corridors", len(net.Corridors), "components", uf.sets)

	if b.Settings.Corridors != model.CorridorsAuto || ctx.Err() != nil {
		return finish()
	}

	var grid *obstacleGrid
	obstacles := func() *obstacleGrid {
		if grid == nil {
			grid = newObstacleGrid(ctx, b.zones, ix, bounds, b.Settings.CorridorWidth, b.Settings.MaxGridNodes, b.workers())
		}
		return grid
	}

	if uf.sets > 1 {
		edges := spanningEdges(groups, uf)
		routed := b.route(ctx, obstacles(), groups, edges)
		for k, seg := range routed {
			if seg == nil {
				b.log.Debug("no route between groups", "a", groups[edges[k].a].ID, "b", groups[edges[k].b].ID)
				continue
			}
			seg.ID = corridorID(model.CorridorRouted, seg.Connects[0], seg.Connects[1], len(net.Corridors))
			net.Corridors = append(net.Corridors, *seg)
			uf.union(edges[k].a, edges[k].b)
		}
		b.log.Debug("routed corridors built", "edges", len(edges), "components", uf.sets)
	}

	entrances := b.zones.Entrances()
	if len(entrances) == 0 || len(net.Corridors) == 0 || b.Settings.EntranceReach <= 0 || ctx.Err() != nil {
		return finish()
	}
	links := b.connectEntrances(ctx, obstacles(), entrances, net.Corridors)
	for k, seg := range links {
		if seg == nil {
			continue
		}
		seg.ID = corridorID(model.CorridorEntrance, k, -1, len(net.Corridors))
		net.Corridors = append(net.Corridors, *seg)
	}
	b.log.Debug("entrance connections built", "entrances", len(entrances), "corridors", len(net.Corridors))
	return finish()
}

func (b *Builder) workers() int {
	if b.Settings.Workers > 0 {
		return b.Settings.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// rowCorridor builds the band between two facing groups, lower below upper.
func (b *Builder) rowCorridor(lower, upper model.RowGroup, ix *geom.Index, bounds []orb.Bound, n int) (model.CorridorSegment, bool) {
	width := b.Settings.CorridorWidth
	x0 := math.Max(lower.Bound.Min[0], upper.Bound.Min[0])
	x1 := math.Min(lower.Bound.Max[0], upper.Bound.Max[0])
	if x1-x0 <= geom.Epsilon {
		return model.CorridorSegment{}, false
	}
	gap := upper.Bound.Min[1] - lower.Bound.Max[1]
	if gap < width-geom.Epsilon {
		return model.CorridorSegment{}, false
	}
	if b.Settings.MaxRowGap > 0 && gap > b.Settings.MaxRowGap+geom.Epsilon {
		return model.CorridorSegment{}, false
	}

	band := b.slide(x0, x1, lower.Bound.Max[1], gap, width)
	poly := b.zones.Clip(band)
	if poly == nil {
		return model.CorridorSegment{}, false
	}
	area := planar.Area(poly)
	if area < b.Settings.MinCorridorArea {
		return model.CorridorSegment{}, false
	}
	pb := poly.Bound()
	for _, id := range ix.Search(pb) {
		if geom.OverlapArea(poly, bounds[id]) > geom.Epsilon {
			return model.CorridorSegment{}, false
		}
	}
	if b.zones.HitsForbidden(pb) || b.zones.HitsWall(pb) {
		return model.CorridorSegment{}, false
	}

	mid := (pb.Min[1] + pb.Max[1]) / 2
	return model.CorridorSegment{
		ID:       corridorID(model.CorridorRow, lower.ID, upper.ID, n),
		Kind:     model.CorridorRow,
		Polygon:  orb.MultiPolygon{poly},
		Path:     orb.LineString{{pb.Min[0], mid}, {pb.Max[0], mid}},
		Width:    width,
		Length:   geom.Width(pb),
		Area:     area,
		Connects: [2]int{lower.ID, upper.ID},
	}, true
}

// slide returns the band of the given width inside the gap starting at y.
// The centred band wins when it is fully buildable; otherwise offsets move
// outwards from the centre and the first fully covered band, or the best
// covered one, is used.
func (b *Builder) slide(x0, x1, y, gap, width float64) orb.Bound {
	slack := gap - width
	centre := y + slack/2
	best := geom.Rect(x0, centre, x1-x0, width)
	bestCover := b.zones.Coverage(best)
	if bestCover >= 1-1e-9 || slack <= geom.Epsilon {
		return best
	}
	step := slack / (2 * slideSteps)
	for k := 1; k <= slideSteps; k++ {
		for _, off := range [2]float64{-float64(k) * step, float64(k) * step} {
			r := geom.Rect(x0, centre+off, x1-x0, width)
			cover := b.zones.Coverage(r)
			if cover >= 1-1e-9 {
				return r
			}
			if cover > bestCover+1e-12 {
				best, bestCover = r, cover
			}
		}
	}
	return best
}

// route finds a grid path for every edge concurrently. The result is indexed
// like edges; nil marks an edge with no route.
func (b *Builder) route(ctx context.Context, grid *obstacleGrid, groups []model.RowGroup, edges []edge) []*model.CorridorSegment {
	out := make([]*model.CorridorSegment, len(edges))
	var eg errgroup.Group
	eg.SetLimit(b.workers())
	for k, e := range edges {
		eg.Go(func() error {
			ga, gb := groups[e.a], groups[e.b]
			seg := b.pathSegment(ctx, grid, grid.nearestFree(ga.Bound), grid.nearestFree(gb.Bound))
			if seg == nil {
				return nil
			}
			seg.Kind = model.CorridorRouted
			seg.Connects = [2]int{ga.ID, gb.ID}
			out[k] = seg
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// pathSegment routes start to goal on grid and returns the corridor along
// the path, or nil when there is none or its area is below the minimum.
func (b *Builder) pathSegment(ctx context.Context, grid *obstacleGrid, start, goal int) *model.CorridorSegment {
	path := grid.shortestPath(ctx, start, goal)
	if path == nil {
		return nil
	}
	line := grid.polyline(path)
	poly := grid.footprint(path)
	area := 0.0
	for _, p := range poly {
		area += planar.Area(p)
	}
	if area < b.Settings.MinCorridorArea {
		return nil
	}
	length := planar.Length(line)
	if length == 0 {
		length = grid.pitch
	}
	return &model.CorridorSegment{
		Polygon: poly,
		Path:    line,
		Width:   grid.pitch,
		Length:  length,
		Area:    area,
	}
}

func corridorID(kind model.CorridorKind, a, b, n int) string {
	u := uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d/%d/%d", kind, a, b, n)))
	return "corr-" + u.String()[:8]
}
