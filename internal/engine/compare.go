package engine

import (
	"fmt"

	"github.com/piwi3910/IlotPlan/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Config
}

// BuildDefaultScenarios generates comparison scenarios based on the current
// settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.Config) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	// Scenario: Try the other strategy
	alt := base
	if base.Strategy == model.StrategyGrid {
		alt.Strategy = model.StrategyGenetic
		scenarios = append(scenarios, ComparisonScenario{Name: "Genetic Search", Settings: alt})
	} else {
		alt.Strategy = model.StrategyGrid
		scenarios = append(scenarios, ComparisonScenario{Name: "Grid Packing", Settings: alt})
	}

	// Scenario: Halved clearance between cells
	if base.MinClearance > 0 {
		tight := base
		tight.MinClearance = base.MinClearance / 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Clearance %.2f (half)", tight.MinClearance),
			Settings: tight,
		})
	}

	// Scenario: Larger population for the genetic search
	if base.Strategy == model.StrategyGenetic && base.PopulationSize > 0 {
		wide := base
		wide.PopulationSize = base.PopulationSize * 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Population %d", wide.PopulationSize),
			Settings: wide,
		})
	}

	// Scenario: No entrance buffer
	if base.EntranceBufferDistance > 0 {
		noBuffer := base
		noBuffer.EntranceBufferDistance = 0
		scenarios = append(scenarios, ComparisonScenario{Name: "No Entrance Buffer", Settings: noBuffer})
	}

	return scenarios
}
