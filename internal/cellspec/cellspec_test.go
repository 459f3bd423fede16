package cellspec

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/IlotPlan/internal/logging"
	"github.com/piwi3910/IlotPlan/internal/model"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestCountsDefaultMix(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 50

	got := Counts(cfg, logging.Discard())
	// 5, 12.5, 15, 17.5: the single leftover goes to the first .5 remainder.
	assert.Equal(t, map[string]int{"0-1": 5, "1-3": 13, "3-5": 15, "5-10": 17}, got)
}

func TestCountsLargestRemainder(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 10
	cfg.CategoryPercentages = map[string]float64{"0-1": 0.33, "1-3": 0.33, "3-5": 0.34}

	got := Counts(cfg, logging.Discard())
	assert.Equal(t, map[string]int{"0-1": 3, "1-3": 3, "3-5": 4}, got)
}

func TestCountsUndershoot(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 10
	cfg.CategoryPercentages = map[string]float64{"1-3": 0.5}

	got := Counts(cfg, logging.Discard())
	assert.Equal(t, map[string]int{"1-3": 5}, got)
}

func TestCountsOvershootCapped(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 10
	cfg.CategoryPercentages = map[string]float64{"0-1": 0.8, "1-3": 0.8}

	got := Counts(cfg, logging.Discard())
	assert.Equal(t, 10, got["0-1"]+got["1-3"])
}

func TestCountsHugeShares(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 10

	cfg.CategoryPercentages = map[string]float64{"1-3": 1e300}
	assert.Equal(t, map[string]int{"1-3": 10}, Counts(cfg, logging.Discard()))

	cfg.CategoryPercentages = map[string]float64{"0-1": math.Inf(1), "1-3": 0.5}
	assert.Equal(t, map[string]int{"0-1": 10, "1-3": 0}, Counts(cfg, logging.Discard()))

	cfg.CategoryPercentages = map[string]float64{"0-1": math.NaN(), "1-3": 1}
	assert.Equal(t, map[string]int{"1-3": 10}, Counts(cfg, logging.Discard()))
}

func TestCountsIgnoresUnknown(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 4
	cfg.CategoryPercentages = map[string]float64{"huge": 0.5, "1-3": 1.0}

	got := Counts(cfg, logging.Discard())
	assert.Equal(t, map[string]int{"1-3": 4}, got)
}

func TestGenerateDimensions(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 200

	specs := Generate(cfg, testRand(1), logging.Discard())
	require.Len(t, specs, 200)

	seen := make(map[string]bool)
	for i, s := range specs {
		cat, ok := cfg.Category(s.Category)
		require.True(t, ok)
		assert.Equal(t, i, s.Index)
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true

		assert.GreaterOrEqual(t, s.TargetArea, cat.MinArea)
		assert.LessOrEqual(t, s.TargetArea, cat.MaxArea)
		assert.InDelta(t, s.TargetArea, s.Area(), 1e-9)
		aspect := s.Width / s.Height
		assert.GreaterOrEqual(t, aspect, cat.MinAspect-1e-9)
		assert.LessOrEqual(t, aspect, cat.MaxAspect+1e-9)
		assert.InDelta(t, math.Sqrt(s.TargetArea*aspect), s.Width, 1e-9)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := model.DefaultConfig()
	a := Generate(cfg, testRand(7), logging.Discard())
	b := Generate(cfg, testRand(7), logging.Discard())
	assert.Equal(t, a, b)

	c := Generate(cfg, testRand(8), logging.Discard())
	assert.NotEqual(t, a, c)
	assert.Equal(t, a[0].ID, c[0].ID, "ids depend on position, not on the draw")
}

func TestGenerateEmpty(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.TotalCells = 0
	assert.Empty(t, Generate(cfg, testRand(1), logging.Discard()))

	cfg.TotalCells = 10
	cfg.CategoryPercentages = nil
	assert.Empty(t, Generate(cfg, testRand(1), logging.Discard()))
}
