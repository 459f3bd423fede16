// Package ilotplan lays out rectangular cells inside a typed floor plan and
// connects them with corridors.
//
// A run generates cell specs from the configured size mix, places them with a
// genetic search or a greedy grid packer, groups the placed cells into rows,
// builds corridors between the rows and reports layout metrics. Only invalid
// configuration is an error; cells that do not fit and groups that cannot be
// connected are part of a normal result.
package ilotplan

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/IlotPlan/internal/cellspec"
	"github.com/piwi3910/IlotPlan/internal/corridor"
	"github.com/piwi3910/IlotPlan/internal/engine"
	"github.com/piwi3910/IlotPlan/internal/grouping"
	"github.com/piwi3910/IlotPlan/internal/logging"
	"github.com/piwi3910/IlotPlan/internal/metrics"
	"github.com/piwi3910/IlotPlan/internal/model"
	"github.com/piwi3910/IlotPlan/internal/zone"
)

type (
	Zone            = model.Zone
	ZoneKind        = model.ZoneKind
	Config          = model.Config
	SizeCategory    = model.SizeCategory
	CellSpec        = model.CellSpec
	PlacedCell      = model.PlacedCell
	CorridorSegment = model.CorridorSegment
	Metrics         = model.Metrics
	SearchStats     = model.SearchStats
	Result          = model.Result
	Scenario        = engine.ComparisonScenario
)

const (
	ZoneWall       = model.ZoneWall
	ZoneRestricted = model.ZoneRestricted
	ZoneEntrance   = model.ZoneEntrance
	ZoneAvailable  = model.ZoneAvailable

	StrategyGenetic = model.StrategyGenetic
	StrategyGrid    = model.StrategyGrid
)

var (
	// ErrInvalidConfig is wrapped by every error OptimizeLayout returns.
	ErrInvalidConfig = model.ErrInvalidConfig

	NewZone           = model.NewZone
	RectZone          = model.RectZone
	DefaultConfig     = model.DefaultConfig
	DefaultCategories = model.DefaultCategories
	DefaultScenarios  = engine.BuildDefaultScenarios
)

// WithLogger attaches the logger a run reports progress to. Without one,
// log.Default() is used.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return logging.WithLogger(ctx, l)
}

// OptimizeLayout places cfg's cell mix inside zones and connects the result
// with corridors. The same zones, config and seed give the same result as
// long as the time budget does not cut the search short. When ctx is
// cancelled or the budget runs out the best layout found so far is returned.
func OptimizeLayout(ctx context.Context, zones []Zone, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	return run(ctx, zones, cfg, logging.FromContext(ctx)), nil
}

func run(ctx context.Context, zones []Zone, cfg Config, logger *log.Logger) Result {
	start := time.Now()
	set := zone.NewSet(zones, cfg, logger)
	rng := engine.NewRand(cfg.Seed)
	specs := cellspec.Generate(cfg, rng, logger)
	logger.Info("layout started", "cells", len(specs), "zones", len(zones), "strategy", cfg.Strategy)

	p := engine.New(cfg, set, logger).Place(ctx, specs, rng)
	groups := grouping.Group(p.Cells, cfg)
	net := corridor.New(cfg, set, logger).Build(ctx, groups, p.Cells)

	res := Result{
		PlacedCells: nonNil(p.Cells),
		Unplaced:    nonNil(p.Unplaced),
		Corridors:   nonNil(net.Corridors),
		Search:      p.Stats,
	}
	res.Metrics = metrics.Calculate(metrics.Input{
		Specs:           specs,
		Cells:           res.PlacedCells,
		Corridors:       res.Corridors,
		Groups:          net.Groups,
		ConnectedGroups: net.ConnectedGroups,
		AvailableArea:   set.Area(),
		AccessDistance:  cfg.CorridorWidth,
	})
	logger.Info("layout finished",
		"placed", res.Metrics.CellsPlaced,
		"requested", res.Metrics.CellsRequested,
		"corridors", res.Metrics.CorridorCount,
		"connectivity", res.Metrics.ConnectivityScore,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Comparison is the outcome of one scenario of CompareStrategies.
type Comparison struct {
	Scenario      Scenario
	Result        Result
	Placed        int
	PlacementRate float64
	PlacedArea    float64
	MeanScore     float64
	UnplacedCount int
}

// CompareStrategies runs the full layout once per scenario over the same
// zones and returns the results in scenario order. With no scenarios the
// what-if variants of DefaultScenarios(cfg) are used. Every scenario config
// is validated before anything runs.
func CompareStrategies(ctx context.Context, zones []Zone, cfg Config, scenarios []Scenario) ([]Comparison, error) {
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios(cfg)
	}
	for _, s := range scenarios {
		if err := s.Settings.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}

	logger := logging.FromContext(ctx)
	out := make([]Comparison, 0, len(scenarios))
	for _, s := range scenarios {
		res := run(ctx, zones, s.Settings, logger.With("scenario", s.Name))
		out = append(out, Comparison{
			Scenario:      s,
			Result:        res,
			Placed:        res.Metrics.CellsPlaced,
			PlacementRate: res.Metrics.PlacementRate,
			PlacedArea:    res.Metrics.PlacedArea,
			MeanScore:     res.Metrics.AverageScore,
			UnplacedCount: len(res.Unplaced),
		})
	}
	return out, nil
}
