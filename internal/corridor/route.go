package corridor

import (
	"context"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/zone"
)

// obstacleGrid is a square lattice over the buildable bounds. A node is
// blocked when its square leaves the buildable region, touches forbidden
// space or a wall, or overlaps a placed cell.
type obstacleGrid struct {
	origin  orb.Point
	pitch   float64
	cols    int
	rows    int
	blocked []bool
}

// gridNodeLimit caps the obstacle grid when MaxGridNodes is 0 or larger.
const gridNodeLimit = 1 << 22

// newObstacleGrid builds the grid over the buildable bounds. Rows are
// classified concurrently.
func newObstacleGrid(ctx context.Context, zones *zone.Set, cells *geom.Index, cellBounds []orb.Bound, width float64, maxNodes, workers int) *obstacleGrid {
	b := zones.Bounds()
	pitch, cols, rows := gridSize(b, width, maxNodes)

	g := &obstacleGrid{
		origin:  b.Min,
		pitch:   pitch,
		cols:    cols,
		rows:    rows,
		blocked: make([]bool, cols*rows),
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for r := 0; r < rows; r++ {
		eg.Go(func() error {
			for c := 0; c < cols; c++ {
				sq := g.square(g.index(c, r))
				g.blocked[g.index(c, r)] = !zones.Contains(sq) ||
					zones.HitsForbidden(sq) ||
					zones.HitsWall(sq) ||
					overlapsCell(sq, cells, cellBounds)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return g
}

func overlapsCell(b orb.Bound, cells *geom.Index, bounds []orb.Bound) bool {
	for _, id := range cells.Search(b) {
		if geom.BoundsOverlap(b, bounds[id]) {
			return true
		}
	}
	return false
}

// gridSize returns the node pitch for b: width, coarsened by 1.25x steps
// until the node count fits maxNodes (gridNodeLimit when 0).
func gridSize(b orb.Bound, width float64, maxNodes int) (pitch float64, cols, rows int) {
	limit := gridNodeLimit
	if maxNodes > 0 && maxNodes < limit {
		limit = maxNodes
	}
	nodes := func(p float64) float64 {
		return math.Ceil(geom.Width(b)/p) * math.Ceil(geom.Height(b)/p)
	}
	pitch = width
	for nodes(pitch) > float64(limit) {
		pitch *= 1.25
	}
	return pitch, int(math.Ceil(geom.Width(b) / pitch)), int(math.Ceil(geom.Height(b) / pitch))
}

func (g *obstacleGrid) index(c, r int) int { return r*g.cols + c }

func (g *obstacleGrid) coords(i int) (int, int) { return i % g.cols, i / g.cols }

func (g *obstacleGrid) square(i int) orb.Bound {
	c, r := g.coords(i)
	return geom.Rect(g.origin[0]+float64(c)*g.pitch, g.origin[1]+float64(r)*g.pitch, g.pitch, g.pitch)
}

func (g *obstacleGrid) center(i int) orb.Point {
	return g.square(i).Center()
}

// nearestFree returns the free node closest to b, lowest index on ties, or
// -1 when every node is blocked.
func (g *obstacleGrid) nearestFree(b orb.Bound) int {
	best, bestDist := -1, math.Inf(1)
	for i, blocked := range g.blocked {
		if blocked {
			continue
		}
		if d := geom.PointBoundDistance(g.center(i), b); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

type openNode struct {
	idx  int
	f, g int
}

// shortestPath runs 4-connected A* with a Manhattan heuristic from start to
// goal. Ties prefer the deeper node, then the lower index, so paths are
// deterministic. It returns nil when goal is unreachable.
func (g *obstacleGrid) shortestPath(ctx context.Context, start, goal int) []int {
	if start < 0 || goal < 0 {
		return nil
	}
	gc, gr := g.coords(goal)
	heuristic := func(i int) int {
		c, r := g.coords(i)
		return abs(c-gc) + abs(r-gr)
	}

	open := heap.New(func(a, b openNode) bool {
		if a.f != b.f {
			return a.f < b.f
		}
		if a.g != b.g {
			return a.g > b.g
		}
		return a.idx < b.idx
	})
	closed := mapset.New[int]()
	cost := map[int]int{start: 0}
	came := make(map[int]int)
	open.Push(openNode{idx: start, f: heuristic(start)})

	steps := [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	for expanded := 0; open.Size() > 0; expanded++ {
		if expanded%4096 == 0 && ctx.Err() != nil {
			return nil
		}
		cur, _ := open.Pop()
		if closed.Has(cur.idx) {
			continue
		}
		if cur.idx == goal {
			return reconstruct(came, start, goal)
		}
		closed.Put(cur.idx)

		c, r := g.coords(cur.idx)
		for _, s := range steps {
			nc, nr := c+s[0], r+s[1]
			if nc < 0 || nr < 0 || nc >= g.cols || nr >= g.rows {
				continue
			}
			next := g.index(nc, nr)
			if g.blocked[next] || closed.Has(next) {
				continue
			}
			tentative := cur.g + 1
			if old, seen := cost[next]; seen && tentative >= old {
				continue
			}
			cost[next] = tentative
			came[next] = cur.idx
			open.Push(openNode{idx: next, g: tentative, f: tentative + heuristic(next)})
		}
	}
	return nil
}

func reconstruct(came map[int]int, start, goal int) []int {
	path := []int{goal}
	for cur := goal; cur != start; {
		cur = came[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// polyline returns the centre line through the path nodes with collinear
// points removed.
func (g *obstacleGrid) polyline(path []int) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, n := range path {
		ls[i] = g.center(n)
	}
	if len(ls) < 3 {
		return ls
	}
	return simplify.DouglasPeucker(g.pitch * 1e-6).Simplify(ls.Clone()).(orb.LineString)
}

// footprint returns the union of the path's node squares as disjoint
// rectangles, one per horizontal run in each grid row.
func (g *obstacleGrid) footprint(path []int) orb.MultiPolygon {
	byRow := make(map[int][]int)
	var rows []int
	for _, n := range path {
		c, r := g.coords(n)
		if _, ok := byRow[r]; !ok {
			rows = append(rows, r)
		}
		byRow[r] = append(byRow[r], c)
	}
	sort.Ints(rows)

	var out orb.MultiPolygon
	for _, r := range rows {
		cols := byRow[r]
		sort.Ints(cols)
		runStart := cols[0]
		for k := 1; k <= len(cols); k++ {
			if k < len(cols) && (cols[k] == cols[k-1] || cols[k] == cols[k-1]+1) {
				continue
			}
			runEnd := cols[k-1]
			x := g.origin[0] + float64(runStart)*g.pitch
			y := g.origin[1] + float64(r)*g.pitch
			out = append(out, geom.Rect(x, y, float64(runEnd-runStart+1)*g.pitch, g.pitch).ToPolygon())
			if k < len(cols) {
				runStart = cols[k]
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
