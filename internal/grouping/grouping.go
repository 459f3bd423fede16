// Package grouping collects placed cells into the row groups corridors are
// built between.
package grouping

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
)

// minGroupSize is the smallest group kept; single cells do not form a row.
const minGroupSize = 2

// Group dispatches to Rows or Clusters according to cfg.Grouping.
func Group(cells []model.PlacedCell, cfg model.Config) []model.RowGroup {
	switch cfg.Grouping {
	case model.GroupClusters:
		return Clusters(cells, cfg.ClusterRadius)
	default:
		return Rows(cells, cfg.RowTolerance)
	}
}

// sorted returns cells ordered by centre Y, then centre X, then spec index.
func sorted(cells []model.PlacedCell) []model.PlacedCell {
	out := append([]model.PlacedCell(nil), cells...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Center(), out[j].Center()
		if ci[1] != cj[1] {
			return ci[1] < cj[1]
		}
		if ci[0] != cj[0] {
			return ci[0] < cj[0]
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Rows sweeps cells bottom to top and starts a new group whenever a cell's
// centre lies more than tolerance above the first cell of the current group.
// Groups with fewer than two cells are dropped; ids ascend with Y.
func Rows(cells []model.PlacedCell, tolerance float64) []model.RowGroup {
	var groups []model.RowGroup
	var current []model.PlacedCell
	anchor := 0.0

	flush := func() {
		if len(current) >= minGroupSize {
			groups = append(groups, model.NewRowGroup(len(groups), current))
		}
		current = nil
	}

	for _, c := range sorted(cells) {
		y := c.Center()[1]
		if len(current) > 0 && y-anchor > tolerance {
			flush()
		}
		if len(current) == 0 {
			anchor = y
		}
		current = append(current, c)
	}
	flush()
	return groups
}

// Clusters groups cells whose centres are within radius of each other,
// transitively (DBSCAN with a minimum of two points). Isolated cells are
// dropped. Groups are ordered by mean Y.
func Clusters(cells []model.PlacedCell, radius float64) []model.RowGroup {
	pts := sorted(cells)
	ix := geom.NewIndex()
	for i, c := range pts {
		ctr := c.Center()
		ix.Insert(i, orb.Bound{Min: ctr, Max: ctr})
	}

	const unvisited = -1
	label := make([]int, len(pts))
	for i := range label {
		label[i] = unvisited
	}

	neighbours := func(i int) []int {
		ctr := pts[i].Center()
		var out []int
		for _, j := range ix.Within(orb.Bound{Min: ctr, Max: ctr}, radius+geom.Epsilon) {
			if j != i {
				out = append(out, j)
			}
		}
		return out
	}

	var members [][]int
	for i := range pts {
		if label[i] != unvisited {
			continue
		}
		seeds := neighbours(i)
		if len(seeds)+1 < minGroupSize {
			continue
		}
		id := len(members)
		label[i] = id
		cluster := []int{i}
		for len(seeds) > 0 {
			j := seeds[0]
			seeds = seeds[1:]
			if label[j] != unvisited {
				continue
			}
			label[j] = id
			cluster = append(cluster, j)
			if more := neighbours(j); len(more)+1 >= minGroupSize {
				seeds = append(seeds, more...)
			}
		}
		members = append(members, cluster)
	}

	groups := make([]model.RowGroup, 0, len(members))
	for _, m := range members {
		sort.Ints(m)
		cs := make([]model.PlacedCell, len(m))
		for k, idx := range m {
			cs[k] = pts[idx]
		}
		groups = append(groups, model.NewRowGroup(0, cs))
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].MeanY != groups[j].MeanY {
			return groups[i].MeanY < groups[j].MeanY
		}
		return groups[i].Cells[0].Index < groups[j].Cells[0].Index
	})
	for i := range groups {
		groups[i].ID = i
	}
	return groups
}
