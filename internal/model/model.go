package model

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// ZoneKind classifies a region of the floor plan.
type ZoneKind int

const (
	ZoneWall       ZoneKind = iota // Structural wall, cells may touch but not overlap
	ZoneRestricted                 // Area cells must never intersect
	ZoneEntrance                   // Entry or exit, buffered into the forbidden region
	ZoneAvailable                  // Usable floor
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneWall:
		return "wall"
	case ZoneRestricted:
		return "restricted"
	case ZoneEntrance:
		return "entrance"
	case ZoneAvailable:
		return "available"
	default:
		return fmt.Sprintf("ZoneKind(%d)", int(k))
	}
}

// ParseZoneKind converts a kind name (case-insensitive) into a ZoneKind.
func ParseZoneKind(s string) (ZoneKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wall", "walls":
		return ZoneWall, nil
	case "restricted":
		return ZoneRestricted, nil
	case "entrance", "entrances", "exit":
		return ZoneEntrance, nil
	case "available", "open":
		return ZoneAvailable, nil
	}
	return 0, fmt.Errorf("unknown zone kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k ZoneKind) MarshalText() ([]byte, error) {
	if k < ZoneWall || k > ZoneAvailable {
		return nil, fmt.Errorf("invalid zone kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ZoneKind) UnmarshalText(text []byte) error {
	parsed, err := ParseZoneKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Zone is a classified polygon of the floor plan. Coordinates share one
// arbitrary unit with every distance in Config.
type Zone struct {
	ID      string      `json:"id" yaml:"id" toml:"id"`
	Kind    ZoneKind    `json:"kind" yaml:"kind" toml:"kind"`
	Polygon orb.Polygon `json:"polygon" yaml:"polygon" toml:"polygon"`
}

// NewZone builds a zone from a single outer ring given as x, y pairs.
func NewZone(id string, kind ZoneKind, pts ...orb.Point) Zone {
	ring := make(orb.Ring, 0, len(pts)+1)
	ring = append(ring, pts...)
	if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		ring = append(ring, pts[0])
	}
	return Zone{ID: id, Kind: kind, Polygon: orb.Polygon{ring}}
}

// RectZone builds an axis-aligned rectangular zone.
func RectZone(id string, kind ZoneKind, x, y, w, h float64) Zone {
	return NewZone(id, kind,
		orb.Point{x, y}, orb.Point{x + w, y}, orb.Point{x + w, y + h}, orb.Point{x, y + h})
}

// CellSpec is a cell requested for placement, before it has a position.
type CellSpec struct {
	ID         string  `json:"id"`
	Index      int     `json:"index"` // Position in the generated spec list
	Category   string  `json:"category"`
	TargetArea float64 `json:"target_area"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Area returns the footprint of the spec.
func (s CellSpec) Area() float64 {
	return s.Width * s.Height
}

// PlacedCell is a cell spec assigned to a position. X, Y is the lower-left
// corner; Width and Height are the placed dimensions after rotation.
type PlacedCell struct {
	SpecID   string      `json:"spec_id"`
	Index    int         `json:"index"`
	Category string      `json:"category"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Rotation int         `json:"rotation"` // 0 or 90 degrees
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Polygon  orb.Polygon `json:"polygon"`
	Score    float64     `json:"placement_score"`
}

// NewPlacedCell places spec at x, y, swapping its dimensions when rotated.
func NewPlacedCell(spec CellSpec, x, y float64, rotated bool, score float64) PlacedCell {
	w, h, rot := spec.Width, spec.Height, 0
	if rotated {
		w, h, rot = spec.Height, spec.Width, 90
	}
	b := orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + w, y + h}}
	return PlacedCell{
		SpecID:   spec.ID,
		Index:    spec.Index,
		Category: spec.Category,
		X:        x,
		Y:        y,
		Rotation: rot,
		Width:    w,
		Height:   h,
		Polygon:  b.ToPolygon(),
		Score:    score,
	}
}

// Bound returns the axis-aligned extent of the cell.
func (c PlacedCell) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{c.X, c.Y}, Max: orb.Point{c.X + c.Width, c.Y + c.Height}}
}

// Area returns the placed footprint.
func (c PlacedCell) Area() float64 {
	return c.Width * c.Height
}

// Center returns the centre of the cell.
func (c PlacedCell) Center() orb.Point {
	return orb.Point{c.X + c.Width/2, c.Y + c.Height/2}
}

// RowGroup is a set of placed cells that share a row or cluster. Groups only
// exist while corridors are built.
type RowGroup struct {
	ID    int          `json:"id"`
	Cells []PlacedCell `json:"cells"`
	Bound orb.Bound    `json:"bound"`
	MeanY float64      `json:"mean_y"`
}

// NewRowGroup computes the bound and mean centre height of cells.
func NewRowGroup(id int, cells []PlacedCell) RowGroup {
	g := RowGroup{ID: id, Cells: cells}
	if len(cells) == 0 {
		return g
	}
	g.Bound = cells[0].Bound()
	sumY := 0.0
	for _, c := range cells {
		g.Bound = g.Bound.Union(c.Bound())
		sumY += c.Center()[1]
	}
	g.MeanY = sumY / float64(len(cells))
	return g
}

// Centroid returns the mean centre of the group's cells.
func (g RowGroup) Centroid() orb.Point {
	if len(g.Cells) == 0 {
		return g.Bound.Center()
	}
	var sx, sy float64
	for _, c := range g.Cells {
		ctr := c.Center()
		sx += ctr[0]
		sy += ctr[1]
	}
	n := float64(len(g.Cells))
	return orb.Point{sx / n, sy / n}
}

// CorridorKind tells how a corridor was produced.
type CorridorKind string

const (
	CorridorRow      CorridorKind = "row"      // Straight band between two facing rows
	CorridorRouted   CorridorKind = "routed"   // Grid path between disconnected groups
	CorridorEntrance CorridorKind = "entrance" // Grid path from an entrance to the nearest corridor
)

// CorridorSegment is a walkable strip connecting two groups. An entrance
// connection names its entrance zone and carries the groups of the corridor
// it joins.
type CorridorSegment struct {
	ID       string           `json:"id"`
	Kind     CorridorKind     `json:"kind"`
	Polygon  orb.MultiPolygon `json:"polygon"` // Row corridors hold a single polygon
	Path     orb.LineString   `json:"path"`    // Centre line
	Width    float64          `json:"width"`
	Length   float64          `json:"length"`
	Area     float64          `json:"area"`
	Connects [2]int           `json:"connects"` // Group ids
	Entrance string           `json:"entrance,omitempty"`
}

// CategoryMetrics breaks placement down per size category.
type CategoryMetrics struct {
	Category  string  `json:"category"`
	Requested int     `json:"requested"`
	Placed    int     `json:"placed"`
	Area      float64 `json:"area"`
}

// Metrics summarises the quality of a layout.
type Metrics struct {
	CellsRequested   int               `json:"cells_requested"`
	CellsPlaced      int               `json:"cells_placed"`
	PlacementRate    float64           `json:"placement_rate"`
	PlacedArea       float64           `json:"placed_area"`
	CorridorArea     float64           `json:"corridor_area"`
	AvailableArea    float64           `json:"available_area"`
	SpaceUtilization float64           `json:"space_utilization"`
	AverageScore     float64           `json:"average_score"`
	Categories       []CategoryMetrics `json:"categories"`

	CorridorCount         int     `json:"corridor_count"`
	CorridorLength        float64 `json:"corridor_length"`
	AverageCorridorLength float64 `json:"average_corridor_length"`
	Groups                int     `json:"groups"`
	ConnectedGroups       int     `json:"connected_groups"`
	ConnectivityScore     float64 `json:"connectivity_score"`
	AccessibilityScore    float64 `json:"accessibility_score"` // Cells within one corridor width of a corridor

	MinSpacing    float64 `json:"min_spacing"`
	MeanSpacing   float64 `json:"mean_spacing"`
	SpacingStdDev float64 `json:"spacing_std_dev"`
}

// StopReason records why a search ended.
type StopReason string

const (
	StopNone        StopReason = ""
	StopGenerations StopReason = "generations" // MaxGenerations reached
	StopStalled     StopReason = "stalled"     // No improvement for StallGenerations
	StopDeadline    StopReason = "deadline"    // Time budget or context expired
	StopComplete    StopReason = "complete"    // Single pass strategy finished
)

// SearchStats describes the optimizer run that produced a result.
type SearchStats struct {
	Strategy    PlacementStrategy `json:"strategy"`
	Generations int               `json:"generations"`
	BestFitness float64           `json:"best_fitness"`
	History     []float64         `json:"history"` // Best fitness so far, per generation
	StopReason  StopReason        `json:"stop_reason"`
}

// Result holds the full layout.
type Result struct {
	PlacedCells []PlacedCell      `json:"placed_cells"`
	Unplaced    []CellSpec        `json:"unplaced"`
	Corridors   []CorridorSegment `json:"corridors"`
	Metrics     Metrics           `json:"metrics"`
	Search      SearchStats       `json:"search"`
}
