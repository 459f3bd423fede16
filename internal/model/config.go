package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration contract violation.
var ErrInvalidConfig = errors.New("invalid layout config")

// PlacementStrategy selects the optimizer used to position cells.
type PlacementStrategy string

const (
	StrategyGenetic PlacementStrategy = "genetic" // Genetic search over positions (slower, better packing)
	StrategyGrid    PlacementStrategy = "grid"    // Greedy free-rectangle scan (fast)
)

// FallbackPolicy decides the buildable region when no available zone exists.
type FallbackPolicy string

const (
	FallbackBoundingBox FallbackPolicy = "bounding_box" // Bounding box of every supplied zone
	FallbackConvexHull  FallbackPolicy = "convex_hull"  // Convex hull of every supplied zone
	FallbackNone        FallbackPolicy = "none"         // Nothing is buildable
)

// GroupingMode selects how placed cells are grouped for corridors.
type GroupingMode string

const (
	GroupRows     GroupingMode = "rows"     // Cells sharing a Y band
	GroupClusters GroupingMode = "clusters" // Density based clusters
)

// CorridorMode selects how groups are connected.
type CorridorMode string

const (
	CorridorsRows CorridorMode = "rows" // Only straight corridors between facing rows
	CorridorsAuto CorridorMode = "auto" // Rows, then grid routing between disconnected groups
)

// Duration is a time.Duration that reads and writes as "25s" in config files.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// SizeCategory is a band of cell areas with the aspect ratios drawn for it.
type SizeCategory struct {
	Name      string  `json:"name" yaml:"name" toml:"name"`
	MinArea   float64 `json:"min_area" yaml:"min_area" toml:"min_area"`
	MaxArea   float64 `json:"max_area" yaml:"max_area" toml:"max_area"`
	MinAspect float64 `json:"min_aspect" yaml:"min_aspect" toml:"min_aspect"`
	MaxAspect float64 `json:"max_aspect" yaml:"max_aspect" toml:"max_aspect"`
}

// DefaultCategories returns the standard size bands. Small cells stay near
// square, larger room-like cells are elongated.
func DefaultCategories() []SizeCategory {
	return []SizeCategory{
		{Name: "0-1", MinArea: 0.5, MaxArea: 1.0, MinAspect: 1.0, MaxAspect: 1.2},
		{Name: "1-3", MinArea: 1.0, MaxArea: 3.0, MinAspect: 1.0, MaxAspect: 1.4},
		{Name: "3-5", MinArea: 3.0, MaxArea: 5.0, MinAspect: 1.2, MaxAspect: 1.8},
		{Name: "5-10", MinArea: 5.0, MaxArea: 10.0, MinAspect: 1.2, MaxAspect: 1.8},
	}
}

// FitnessWeights combine the terms of a chromosome's fitness. Count must
// outweigh Area + Score so one more placed cell always wins.
type FitnessWeights struct {
	Count float64 `json:"count" yaml:"count" toml:"count"` // Per valid cell
	Area  float64 `json:"area" yaml:"area" toml:"area"`    // Times placed / requested area
	Score float64 `json:"score" yaml:"score" toml:"score"` // Times mean placement score
}

// ScoreWeights combine the placement score terms.
type ScoreWeights struct {
	Centroid     float64 `json:"centroid" yaml:"centroid" toml:"centroid"`
	Spacing      float64 `json:"spacing" yaml:"spacing" toml:"spacing"`
	Fill         float64 `json:"fill" yaml:"fill" toml:"fill"`
	IdealSpacing float64 `json:"ideal_spacing" yaml:"ideal_spacing" toml:"ideal_spacing"`
}

// Config holds every knob of a layout run.
type Config struct {
	// Cell mix
	CategoryPercentages map[string]float64 `json:"category_percentages" yaml:"category_percentages" toml:"category_percentages"`
	Categories          []SizeCategory     `json:"categories" yaml:"categories" toml:"categories"`
	TotalCells          int                `json:"total_cells" yaml:"total_cells" toml:"total_cells"`

	// Geometry rules
	CorridorWidth          float64        `json:"corridor_width" yaml:"corridor_width" toml:"corridor_width"`
	EntranceBufferDistance float64        `json:"entrance_buffer_distance" yaml:"entrance_buffer_distance" toml:"entrance_buffer_distance"`
	MinClearance           float64        `json:"min_clearance" yaml:"min_clearance" toml:"min_clearance"`
	Fallback               FallbackPolicy `json:"fallback" yaml:"fallback" toml:"fallback"`

	// Optimizer
	Strategy         PlacementStrategy `json:"strategy" yaml:"strategy" toml:"strategy"`
	MaxGenerations   int               `json:"max_generations" yaml:"max_generations" toml:"max_generations"`
	PopulationSize   int               `json:"population_size" yaml:"population_size" toml:"population_size"`
	MutationRate     float64           `json:"mutation_rate" yaml:"mutation_rate" toml:"mutation_rate"`
	EliteCount       int               `json:"elite_count" yaml:"elite_count" toml:"elite_count"`
	StallGenerations int               `json:"stall_generations" yaml:"stall_generations" toml:"stall_generations"`
	InitRetries      int               `json:"init_retries" yaml:"init_retries" toml:"init_retries"`
	TimeBudget       Duration          `json:"time_budget" yaml:"time_budget" toml:"time_budget"`
	Seed             uint64            `json:"rng_seed" yaml:"rng_seed" toml:"rng_seed"`
	Workers          int               `json:"workers" yaml:"workers" toml:"workers"` // 0 = one per CPU
	SeedGreedy       bool              `json:"seed_greedy" yaml:"seed_greedy" toml:"seed_greedy"`
	GridStep         float64           `json:"grid_step" yaml:"grid_step" toml:"grid_step"`
	Fitness          FitnessWeights    `json:"fitness" yaml:"fitness" toml:"fitness"`
	Scoring          ScoreWeights      `json:"scoring" yaml:"scoring" toml:"scoring"`

	// Grouping and corridors
	Grouping        GroupingMode `json:"grouping" yaml:"grouping" toml:"grouping"`
	RowTolerance    float64      `json:"row_tolerance" yaml:"row_tolerance" toml:"row_tolerance"`
	ClusterRadius   float64      `json:"cluster_radius" yaml:"cluster_radius" toml:"cluster_radius"`
	Corridors       CorridorMode `json:"corridors" yaml:"corridors" toml:"corridors"`
	MaxRowGap       float64      `json:"max_row_gap" yaml:"max_row_gap" toml:"max_row_gap"`
	MinCorridorArea float64      `json:"min_corridor_area" yaml:"min_corridor_area" toml:"min_corridor_area"`
	MaxGridNodes    int          `json:"max_grid_nodes" yaml:"max_grid_nodes" toml:"max_grid_nodes"`
	EntranceReach   float64      `json:"entrance_reach" yaml:"entrance_reach" toml:"entrance_reach"` // 0 disables entrance connections
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CategoryPercentages: map[string]float64{
			"0-1":  0.10,
			"1-3":  0.25,
			"3-5":  0.30,
			"5-10": 0.35,
		},
		Categories:             DefaultCategories(),
		TotalCells:             50,
		CorridorWidth:          1.5,
		EntranceBufferDistance: 0.3,
		MinClearance:           0.3,
		Fallback:               FallbackBoundingBox,
		Strategy:               StrategyGenetic,
		MaxGenerations:         30,
		PopulationSize:         20,
		MutationRate:           0.05,
		EliteCount:             1,
		StallGenerations:       8,
		InitRetries:            10,
		TimeBudget:             Duration(25 * time.Second),
		Seed:                   42,
		Workers:                0,
		SeedGreedy:             true,
		GridStep:               0.5,
		Fitness:                FitnessWeights{Count: 10, Area: 1, Score: 1},
		Scoring:                ScoreWeights{Centroid: 0.4, Spacing: 0.3, Fill: 0.3, IdealSpacing: 1.0},
		Grouping:               GroupRows,
		RowTolerance:           3.0,
		ClusterRadius:          4.0,
		Corridors:              CorridorsAuto,
		MaxRowGap:              8.0,
		MinCorridorArea:        1.0,
		MaxGridNodes:           250000,
		EntranceReach:          5.0,
	}
}

// Category looks up a size category by name.
func (c Config) Category(name string) (SizeCategory, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return SizeCategory{}, false
}

// Validate reports contract violations. Infeasible but well-formed inputs,
// such as zero cells, are not errors.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	finite := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fail("%s must be finite, got %g", name, v)
		}
	}
	finite("corridor width", c.CorridorWidth)
	finite("entrance buffer distance", c.EntranceBufferDistance)
	finite("min clearance", c.MinClearance)
	finite("mutation rate", c.MutationRate)
	finite("grid step", c.GridStep)
	finite("row tolerance", c.RowTolerance)
	finite("cluster radius", c.ClusterRadius)
	finite("max row gap", c.MaxRowGap)
	finite("min corridor area", c.MinCorridorArea)
	finite("entrance reach", c.EntranceReach)
	finite("fitness count weight", c.Fitness.Count)
	finite("fitness area weight", c.Fitness.Area)
	finite("fitness score weight", c.Fitness.Score)
	finite("centroid weight", c.Scoring.Centroid)
	finite("spacing weight", c.Scoring.Spacing)
	finite("fill weight", c.Scoring.Fill)
	finite("ideal spacing", c.Scoring.IdealSpacing)

	if c.TotalCells < 0 {
		fail("total cells must be >= 0, got %d", c.TotalCells)
	}
	if c.CorridorWidth < 0 {
		fail("corridor width must be >= 0, got %g", c.CorridorWidth)
	}
	if c.EntranceBufferDistance < 0 {
		fail("entrance buffer distance must be >= 0, got %g", c.EntranceBufferDistance)
	}
	if c.MinClearance < 0 {
		fail("min clearance must be >= 0, got %g", c.MinClearance)
	}
	if c.MaxGenerations < 0 {
		fail("max generations must be >= 0, got %d", c.MaxGenerations)
	}
	if c.PopulationSize < 0 {
		fail("population size must be >= 0, got %d", c.PopulationSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		fail("mutation rate must be within [0, 1], got %g", c.MutationRate)
	}
	if c.EliteCount < 0 || c.StallGenerations < 0 || c.InitRetries < 0 || c.Workers < 0 {
		fail("elite count, stall generations, init retries and workers must be >= 0")
	}
	if c.TimeBudget < 0 {
		fail("time budget must be >= 0, got %s", time.Duration(c.TimeBudget))
	}
	if c.GridStep < 0 {
		fail("grid step must be >= 0, got %g", c.GridStep)
	}
	if c.RowTolerance < 0 || c.ClusterRadius < 0 || c.MaxRowGap < 0 || c.MinCorridorArea < 0 || c.MaxGridNodes < 0 || c.EntranceReach < 0 {
		fail("grouping and corridor limits must be >= 0")
	}

	for name, pct := range c.CategoryPercentages {
		finite(fmt.Sprintf("percentage for category %q", name), pct)
		if pct < 0 {
			fail("percentage for category %q must be >= 0, got %g", name, pct)
		}
	}
	for _, cat := range c.Categories {
		for _, v := range []float64{cat.MinArea, cat.MaxArea, cat.MinAspect, cat.MaxAspect} {
			finite(fmt.Sprintf("bounds of category %q", cat.Name), v)
		}
		if cat.MinArea <= 0 || cat.MaxArea < cat.MinArea {
			fail("category %q needs 0 < min_area <= max_area", cat.Name)
		}
		if cat.MinAspect <= 0 || cat.MaxAspect < cat.MinAspect {
			fail("category %q needs 0 < min_aspect <= max_aspect", cat.Name)
		}
	}

	w := c.Fitness
	if w.Count < 0 || w.Area < 0 || w.Score < 0 {
		fail("fitness weights must be >= 0")
	} else if w.Count <= w.Area+w.Score {
		fail("fitness count weight %g must exceed area + score weights %g", w.Count, w.Area+w.Score)
	}
	s := c.Scoring
	if s.Centroid < 0 || s.Spacing < 0 || s.Fill < 0 || s.IdealSpacing < 0 {
		fail("scoring weights must be >= 0")
	}

	switch c.Strategy {
	case StrategyGenetic, StrategyGrid:
	default:
		fail("unknown strategy %q", c.Strategy)
	}
	switch c.Fallback {
	case FallbackBoundingBox, FallbackConvexHull, FallbackNone:
	default:
		fail("unknown fallback policy %q", c.Fallback)
	}
	switch c.Grouping {
	case GroupRows, GroupClusters:
	default:
		fail("unknown grouping mode %q", c.Grouping)
	}
	switch c.Corridors {
	case CorridorsRows, CorridorsAuto:
	default:
		fail("unknown corridor mode %q", c.Corridors)
	}

	return errors.Join(errs...)
}
