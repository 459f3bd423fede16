package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/IlotPlan/internal/model"
)

func TestSaveAndLoadConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 12
	cfg.CorridorWidth = 2
	cfg.Strategy = model.StrategyGrid
	cfg.TimeBudget = model.Duration(3 * time.Second)
	cfg.CategoryPercentages = map[string]float64{"1-3": 1}

	for _, name := range []string{"config.json", "config.yaml", "config.yml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, SaveConfig(path, cfg))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"partial.json", `{"total_cells": 7, "time_budget": "2s"}`},
		{"partial.yaml", "total_cells: 7\ntime_budget: 2s\n"},
		{"partial.toml", "total_cells = 7\ntime_budget = \"2s\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)

			want := model.DefaultConfig()
			want.TotalCells = 7
			want.TimeBudget = model.Duration(2 * time.Second)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestLoadConfigReplacesCategoryMix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("category_percentages:\n  small: 1.0\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"small": 1.0}, cfg.CategoryPercentages)
	assert.Equal(t, model.DefaultCategories(), cfg.Categories)
}

func TestLoadConfigNonFiniteRejected(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"inf.yaml", "category_percentages:\n  1-3: .inf\n"},
		{"nan.yaml", "min_clearance: .nan\n"},
		{"inf.toml", "corridor_width = inf\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfig)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	kind := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(kind, []byte("x=1"), 0644))
	_, err = LoadConfig(kind)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.ErrorIs(t, SaveConfig(filepath.Join(dir, "out.txt"), model.DefaultConfig()), ErrUnknownFormat)
}

func TestSaveAndLoadScenario(t *testing.T) {
	s := Scenario{
		Name: "two rooms",
		Zones: []model.Zone{
			model.RectZone("a", model.ZoneAvailable, 0, 0, 20, 10),
			model.RectZone("b", model.ZoneAvailable, 0, 14, 20, 10),
			model.RectZone("door", model.ZoneEntrance, 9, 0, 2, 0.5),
		},
		Config: model.DefaultConfig(),
	}
	s.Config.MaxRowGap = 20

	for _, name := range []string{"plan.json", "plan.yaml", "plan.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveScenario(path, s))

			loaded, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, s, loaded)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadScenarioDefaultsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	body := `name: hall
zones:
  - id: floor
    kind: available
    polygon: [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "hall", s.Name)
	require.Len(t, s.Zones, 1)
	assert.Equal(t, model.ZoneAvailable, s.Zones[0].Kind)
	assert.Equal(t, model.RectZone("floor", model.ZoneAvailable, 0, 0, 10, 10), s.Zones[0])
	assert.Equal(t, model.DefaultConfig(), s.Config)
}
