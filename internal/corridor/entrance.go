package corridor

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/IlotPlan/internal/model"
	"github.com/piwi3910/IlotPlan/internal/zone"
)

// connectEntrances routes every entrance within EntranceReach of a corridor
// to the closest point of that corridor. The result is indexed like
// entrances; nil marks an entrance that is out of reach, unreachable on the
// grid or already touching the network.
func (b *Builder) connectEntrances(ctx context.Context, grid *obstacleGrid, entrances []zone.Entrance, corridors []model.CorridorSegment) []*model.CorridorSegment {
	out := make([]*model.CorridorSegment, len(entrances))
	var eg errgroup.Group
	eg.SetLimit(b.workers())
	for k, e := range entrances {
		eg.Go(func() error {
			target, at, dist := nearestCorridor(e.Point, corridors)
			if target < 0 || dist >= b.Settings.EntranceReach {
				return nil
			}
			start := grid.nearestFree(orb.Bound{Min: e.Point, Max: e.Point})
			goal := grid.nearestFree(orb.Bound{Min: at, Max: at})
			if start == goal {
				return nil
			}
			seg := b.pathSegment(ctx, grid, start, goal)
			if seg == nil {
				return nil
			}
			seg.Kind = model.CorridorEntrance
			seg.Connects = corridors[target].Connects
			seg.Entrance = e.ID
			out[k] = seg
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// nearestCorridor returns the index of the corridor closest to p, the point
// of it nearest p and their distance. Corridor pieces are treated as their
// bounds, which they are for row bands and grid footprints. Lower indexes
// win ties; -1 means no corridor.
func nearestCorridor(p orb.Point, corridors []model.CorridorSegment) (int, orb.Point, float64) {
	best, bestDist := -1, math.Inf(1)
	var at orb.Point
	for k, c := range corridors {
		for _, piece := range c.Polygon {
			d := 0.0
			if !planar.PolygonContains(piece, p) {
				d = planar.DistanceFrom(piece, p)
			}
			if d < bestDist {
				best, bestDist, at = k, d, clampTo(p, piece.Bound())
			}
		}
	}
	return best, at, bestDist
}

func clampTo(p orb.Point, b orb.Bound) orb.Point {
	return orb.Point{
		math.Min(math.Max(p[0], b.Min[0]), b.Max[0]),
		math.Min(math.Max(p[1], b.Min[1]), b.Max[1]),
	}
}
