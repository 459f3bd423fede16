// Package cellspec turns the size category mix of a config into the concrete
// list of cells to place.
package cellspec

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/piwi3910/IlotPlan/internal/model"
)

// idSpace namespaces the name-based cell ids.
var idSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ilotplan/cell"))

// ID returns the stable id of the index-th spec of a category.
func ID(category string, index int) string {
	u := uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d", category, index)))
	return "cell-" + u.String()[:8]
}

type share struct {
	cat   model.SizeCategory
	count int
	frac  float64
}

// Counts returns how many cells each category receives, in cfg.Categories
// order. Every category gets floor(total * pct). When the percentages add up
// to at least 1 the leftover is handed out by largest fractional part so the
// total is met; otherwise the shortfall stays. The sum never exceeds
// cfg.TotalCells.
func Counts(cfg model.Config, logger *log.Logger) map[string]int {
	shares := counts(cfg, logger)
	out := make(map[string]int, len(shares))
	for _, s := range shares {
		out[s.cat.Name] = s.count
	}
	return out
}

func counts(cfg model.Config, logger *log.Logger) []share {
	if logger == nil {
		logger = log.Default()
	}

	var unknown []string
	for name := range cfg.CategoryPercentages {
		if _, ok := cfg.Category(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		logger.Warn("ignoring unknown size category", "category", name)
	}

	var shares []share
	sum := 0.0
	for _, cat := range cfg.Categories {
		pct := cfg.CategoryPercentages[cat.Name]
		if !(pct > 0) { // also NaN
			continue
		}
		sum += pct
		raw := math.Min(float64(cfg.TotalCells)*pct, float64(cfg.TotalCells))
		n := math.Floor(raw + 1e-9)
		shares = append(shares, share{cat: cat, count: int(n), frac: raw - n})
	}
	if len(shares) == 0 {
		return nil
	}
	if math.Abs(sum-1) > 0.01 {
		logger.Warn("category percentages do not sum to 1", "sum", sum)
	}

	assigned := 0
	for _, s := range shares {
		assigned += s.count
	}
	if sum >= 1-1e-9 && assigned < cfg.TotalCells {
		order := make([]int, len(shares))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return shares[order[a]].frac > shares[order[b]].frac
		})
		for i := 0; assigned < cfg.TotalCells; i++ {
			shares[order[i%len(order)]].count++
			assigned++
		}
	}
	for i := len(shares) - 1; i >= 0 && assigned > cfg.TotalCells; i-- {
		cut := min(shares[i].count, assigned-cfg.TotalCells)
		shares[i].count -= cut
		assigned -= cut
	}
	return shares
}

// Generate draws the cell specs for cfg. Each spec gets a uniform area within
// its category band and a uniform aspect ratio, with width = sqrt(area *
// aspect) and height = area / width. Specs are ordered by category, then by
// index within the category.
func Generate(cfg model.Config, rng *rand.Rand, logger *log.Logger) []model.CellSpec {
	if cfg.TotalCells <= 0 {
		return nil
	}
	shares := counts(cfg, logger)

	var specs []model.CellSpec
	for _, s := range shares {
		for i := 0; i < s.count; i++ {
			area := s.cat.MinArea + rng.Float64()*(s.cat.MaxArea-s.cat.MinArea)
			aspect := s.cat.MinAspect + rng.Float64()*(s.cat.MaxAspect-s.cat.MinAspect)
			w := math.Sqrt(area * aspect)
			specs = append(specs, model.CellSpec{
				ID:         ID(s.cat.Name, i),
				Index:      len(specs),
				Category:   s.cat.Name,
				TargetArea: area,
				Width:      w,
				Height:     area / w,
			})
		}
	}
	return specs
}
