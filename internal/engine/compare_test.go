package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/IlotPlan/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	base := model.DefaultConfig()
	scenarios := BuildDefaultScenarios(base)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"Current Settings",
		"Grid Packing",
		"Clearance 0.15 (half)",
		"Population 40",
		"No Entrance Buffer",
	}, names)
	assert.Equal(t, model.StrategyGrid, scenarios[1].Settings.Strategy)

	grid := base
	grid.Strategy = model.StrategyGrid
	grid.MinClearance = 0
	grid.EntranceBufferDistance = 0
	scenarios = BuildDefaultScenarios(grid)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "Genetic Search", scenarios[1].Name)
}
