package corridor

import (
	"sort"

	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/IlotPlan/internal/model"
)

// unionFind tracks which groups corridors have joined.
type unionFind struct {
	parent []int
	size   []int
	sets   int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n), sets: n}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

// union joins the sets of a and b and reports whether they were apart.
func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	if uf.size[ra] < uf.size[rb] || (uf.size[ra] == uf.size[rb] && rb < ra) {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	uf.sets--
	return true
}

// largest returns the size of the biggest set.
func (uf *unionFind) largest() int {
	best := 0
	for i := range uf.parent {
		if uf.find(i) == i && uf.size[i] > best {
			best = uf.size[i]
		}
	}
	return best
}

func (uf *unionFind) clone() *unionFind {
	c := &unionFind{
		parent: append([]int(nil), uf.parent...),
		size:   append([]int(nil), uf.size...),
		sets:   uf.sets,
	}
	return c
}

// edge is a pair of groups to connect, by position in the group slice.
type edge struct {
	a, b   int
	weight float64
}

// spanningEdges runs Kruskal over group centroid distances, starting from
// the components already joined in uf, and returns the edges that would
// connect everything. uf is not modified.
func spanningEdges(groups []model.RowGroup, uf *unionFind) []edge {
	var candidates []edge
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			candidates = append(candidates, edge{
				a:      i,
				b:      j,
				weight: planar.Distance(groups[i].Centroid(), groups[j].Centroid()),
			})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight < candidates[j].weight
		}
		if candidates[i].a != candidates[j].a {
			return candidates[i].a < candidates[j].a
		}
		return candidates[i].b < candidates[j].b
	})

	trial := uf.clone()
	var out []edge
	for _, e := range candidates {
		if trial.union(e.a, e.b) {
			out = append(out, e)
		}
		if trial.sets == 1 {
			break
		}
	}
	return out
}
