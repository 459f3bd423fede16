// Package metrics summarises a finished layout.
package metrics

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"

	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
)

// Input is everything a layout run produced.
type Input struct {
	Specs           []model.CellSpec
	Cells           []model.PlacedCell
	Corridors       []model.CorridorSegment
	Groups          int
	ConnectedGroups int
	AvailableArea   float64
	AccessDistance  float64 // A cell closer than this to a corridor is accessible
}

// Calculate aggregates in. It has no side effects; ratios with a zero
// denominator are reported as 0.
func Calculate(in Input) model.Metrics {
	m := model.Metrics{
		CellsRequested:  len(in.Specs),
		CellsPlaced:     len(in.Cells),
		AvailableArea:   in.AvailableArea,
		CorridorCount:   len(in.Corridors),
		Groups:          in.Groups,
		ConnectedGroups: in.ConnectedGroups,
	}
	if m.CellsRequested > 0 {
		m.PlacementRate = float64(m.CellsPlaced) / float64(m.CellsRequested)
	}

	scores := make([]float64, 0, len(in.Cells))
	for _, c := range in.Cells {
		m.PlacedArea += c.Area()
		scores = append(scores, c.Score)
	}
	if len(scores) > 0 {
		m.AverageScore, _ = stats.Mean(scores)
	}

	for _, c := range in.Corridors {
		m.CorridorArea += c.Area
		m.CorridorLength += c.Length
	}
	if m.CorridorCount > 0 {
		m.AverageCorridorLength = m.CorridorLength / float64(m.CorridorCount)
	}
	if m.AvailableArea > 0 {
		m.SpaceUtilization = (m.PlacedArea + m.CorridorArea) / m.AvailableArea
	}
	if m.Groups > 0 {
		m.ConnectivityScore = float64(m.ConnectedGroups) / float64(m.Groups)
	}
	m.AccessibilityScore = accessibility(in.Cells, in.Corridors, in.AccessDistance)

	m.Categories = categories(in.Specs, in.Cells)
	m.MinSpacing, m.MeanSpacing, m.SpacingStdDev = spacing(in.Cells)
	return m
}

// categories returns per-category counts in order of first request.
func categories(specs []model.CellSpec, cells []model.PlacedCell) []model.CategoryMetrics {
	pos := make(map[string]int)
	var out []model.CategoryMetrics
	at := func(name string) *model.CategoryMetrics {
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, model.CategoryMetrics{Category: name})
		}
		return &out[i]
	}
	for _, s := range specs {
		at(s.Category).Requested++
	}
	for _, c := range cells {
		cm := at(c.Category)
		cm.Placed++
		cm.Area += c.Area()
	}
	return out
}

// spacing returns the min, mean and population standard deviation of the
// gap from every cell to its nearest neighbour. Fewer than two cells give
// zeros.
// accessibility returns the share of cells closer than dist to any corridor.
func accessibility(cells []model.PlacedCell, corridors []model.CorridorSegment, dist float64) float64 {
	if len(cells) == 0 || len(corridors) == 0 {
		return 0
	}
	ix := geom.NewIndex()
	var pieces []orb.Polygon
	for _, c := range corridors {
		for _, p := range c.Polygon {
			ix.Insert(len(pieces), p.Bound())
			pieces = append(pieces, p)
		}
	}
	reached := 0
	for _, c := range cells {
		b := c.Bound()
		for _, id := range ix.Within(b, dist) {
			if geom.BoundDistance(b, pieces[id]) < dist {
				reached++
				break
			}
		}
	}
	return float64(reached) / float64(len(cells))
}

func spacing(cells []model.PlacedCell) (float64, float64, float64) {
	if len(cells) < 2 {
		return 0, 0, 0
	}
	ix := geom.NewIndex()
	for i, c := range cells {
		ix.Insert(i, c.Bound())
	}
	gaps := make(stats.Float64Data, len(cells))
	for i, c := range cells {
		gaps[i] = math.Max(ix.Nearest(c.Bound(), func(id int) bool { return id == i }), 0)
	}
	lo, _ := gaps.Min()
	mean, _ := gaps.Mean()
	sd, _ := gaps.StandardDeviation()
	return lo, mean, sd
}
