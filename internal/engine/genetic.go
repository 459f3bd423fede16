package engine

import (
	"context"
	"math/rand/v2"
	"sort"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/IlotPlan/internal/constraint"
	"github.com/piwi3910/IlotPlan/internal/geom"
	"github.com/piwi3910/IlotPlan/internal/model"
)

// minPopulation keeps crossover possible for tiny configured populations.
const minPopulation = 2

// gene is the position decision for one spec: lower-left corner and rotation.
type gene struct {
	x, y    float64
	rotated bool
}

// chromosome holds one gene per spec, in spec order.
type chromosome struct {
	genes   []gene
	fitness float64
	valid   int
}

// geneticOptimizer searches positions with a generational genetic algorithm.
// All randomness is drawn on the calling goroutine; evaluation is pure, so
// the outcome does not depend on the worker count.
type geneticOptimizer struct {
	opt       *Optimizer
	settings  model.Config
	specs     []model.CellSpec
	bounds    orb.Bound
	requested float64
	rng       *rand.Rand
}

func (o *Optimizer) placeGenetic(ctx context.Context, specs []model.CellSpec, rng *rand.Rand) Placement {
	requested := 0.0
	for _, s := range specs {
		requested += s.Area()
	}
	g := &geneticOptimizer{
		opt:       o,
		settings:  o.Settings,
		specs:     specs,
		bounds:    o.zones.Bounds(),
		requested: requested,
		rng:       rng,
	}
	best, stats := g.optimize(ctx)
	return collect(specs, g.decode(best), stats)
}

// optimize runs the genetic algorithm and returns the best chromosome found.
func (g *geneticOptimizer) optimize(ctx context.Context) (chromosome, model.SearchStats) {
	population := g.initPopulation(ctx)
	g.evaluate(population)

	best := g.copyChromosome(fittest(population))
	stats := model.SearchStats{
		Strategy:   model.StrategyGenetic,
		History:    []float64{best.fitness},
		StopReason: model.StopGenerations,
	}

	stall := 0
	for gen := 0; gen < g.settings.MaxGenerations; gen++ {
		if ctx.Err() != nil {
			stats.StopReason = model.StopDeadline
			break
		}

		population = g.nextGeneration(population)
		g.evaluate(population)
		stats.Generations++

		if cand := fittest(population); cand.fitness > best.fitness {
			best = g.copyChromosome(cand)
			stall = 0
		} else {
			stall++
		}
		stats.History = append(stats.History, best.fitness)
		g.opt.log.Debug("generation", "gen", gen+1, "best", best.fitness, "placed", best.valid)

		if g.settings.StallGenerations > 0 && stall >= g.settings.StallGenerations {
			stats.StopReason = model.StopStalled
			break
		}
	}

	stats.BestFitness = best.fitness
	return best, stats
}

// initPopulation creates the initial population. Each gene is redrawn up to
// InitRetries times until it is admissible on its own; the first member is
// the grid-greedy layout when SeedGreedy is set.
func (g *geneticOptimizer) initPopulation(ctx context.Context) []chromosome {
	size := max(g.settings.PopulationSize, minPopulation)
	population := make([]chromosome, size)
	for i := range population {
		genes := make([]gene, len(g.specs))
		for j := range genes {
			genes[j] = g.drawGene(j)
		}
		population[i] = chromosome{genes: genes}
	}

	if g.settings.SeedGreedy {
		population[0] = g.createGreedyChromosome(ctx)
	}
	return population
}

// drawGene draws a position for spec i, biased toward admissible ones.
func (g *geneticOptimizer) drawGene(i int) gene {
	gn := g.randomGene(i)
	for try := 0; try < g.settings.InitRetries; try++ {
		if g.opt.rules.Admissible(g.geneBound(i, gn)) {
			break
		}
		gn = g.randomGene(i)
	}
	return gn
}

// randomGene draws a uniform position for spec i inside the buildable bounds.
func (g *geneticOptimizer) randomGene(i int) gene {
	spec := g.specs[i]
	rotated := spec.Width != spec.Height && g.rng.IntN(2) == 1
	w, h := spec.Width, spec.Height
	if rotated {
		w, h = h, w
	}
	return gene{
		x:       g.bounds.Min[0] + g.rng.Float64()*max(geom.Width(g.bounds)-w, 0),
		y:       g.bounds.Min[1] + g.rng.Float64()*max(geom.Height(g.bounds)-h, 0),
		rotated: rotated,
	}
}

// createGreedyChromosome encodes the grid-greedy layout. Specs the greedy
// pass could not place get a position outside the buildable bounds so they
// cannot displace greedy cells when decoded.
func (g *geneticOptimizer) createGreedyChromosome(ctx context.Context) chromosome {
	slots, _ := g.opt.greedySlots(ctx, g.specs)
	genes := make([]gene, len(g.specs))
	for i, s := range slots {
		if s == nil {
			genes[i] = gene{
				x: g.bounds.Min[0] - g.specs[i].Width - g.specs[i].Height - 1,
				y: g.bounds.Min[1],
			}
			continue
		}
		genes[i] = gene{x: s.bound.Min[0], y: s.bound.Min[1], rotated: s.rotated}
	}
	return chromosome{genes: genes}
}

func (g *geneticOptimizer) geneBound(i int, gn gene) orb.Bound {
	w, h := g.specs[i].Width, g.specs[i].Height
	if gn.rotated {
		w, h = h, w
	}
	return geom.Rect(gn.x, gn.y, w, h)
}

// decode resolves genes in spec order, first come first served: a gene is
// kept when it is valid against the cells accepted before it.
func (g *geneticOptimizer) decode(c chromosome) []*slot {
	placed := constraint.NewPlaced()
	slots := make([]*slot, len(c.genes))
	for i, gn := range c.genes {
		b := g.geneBound(i, gn)
		if !g.opt.rules.IsValid(b, placed) {
			continue
		}
		score := g.opt.rules.Score(b, placed)
		placed.Add(b)
		slots[i] = &slot{bound: b, rotated: gn.rotated, score: score}
	}
	return slots
}

// fitness weighs the number of valid cells far above the placed area ratio
// and mean placement score, which both lie in [0, 1].
func (g *geneticOptimizer) fitness(slots []*slot) (float64, int) {
	valid := 0
	area, score := 0.0, 0.0
	for _, s := range slots {
		if s == nil {
			continue
		}
		valid++
		area += geom.Area(s.bound)
		score += s.score
	}
	w := g.settings.Fitness
	f := w.Count * float64(valid)
	if g.requested > 0 {
		f += w.Area * min(area/g.requested, 1)
	}
	if valid > 0 {
		f += w.Score * score / float64(valid)
	}
	return f, valid
}

// evaluate computes the fitness of every chromosome on a bounded worker pool.
func (g *geneticOptimizer) evaluate(population []chromosome) {
	var eg errgroup.Group
	eg.SetLimit(g.opt.workers())
	for i := range population {
		eg.Go(func() error {
			population[i].fitness, population[i].valid = g.fitness(g.decode(population[i]))
			return nil
		})
	}
	_ = eg.Wait()
}

// nextGeneration breeds a new population: the fitter half survives, the best
// EliteCount members carry over unchanged and the rest are children of two
// distinct survivors.
func (g *geneticOptimizer) nextGeneration(population []chromosome) []chromosome {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})

	survivors := population[:max(len(population)/2, minPopulation)]
	newPop := make([]chromosome, 0, len(population))

	// Elitism: carry over the best individuals unchanged
	eliteCount := min(g.settings.EliteCount, len(population))
	for i := 0; i < eliteCount; i++ {
		newPop = append(newPop, g.copyChromosome(population[i]))
	}

	for len(newPop) < len(population) {
		a := g.rng.IntN(len(survivors))
		b := g.rng.IntN(len(survivors) - 1)
		if b >= a {
			b++
		}
		child := g.crossover(survivors[a], survivors[b])
		g.mutate(&child)
		newPop = append(newPop, child)
	}
	return newPop
}

// crossover takes the genes before a random cut point from one parent and
// the rest from the other.
func (g *geneticOptimizer) crossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	child := chromosome{genes: make([]gene, n)}
	if n < 2 {
		copy(child.genes, parent1.genes)
		return child
	}
	cut := 1 + g.rng.IntN(n-1)
	copy(child.genes[:cut], parent1.genes[:cut])
	copy(child.genes[cut:], parent2.genes[cut:])
	return child
}

// mutate redraws each gene with probability MutationRate.
func (g *geneticOptimizer) mutate(c *chromosome) {
	for i := range c.genes {
		if g.rng.Float64() < g.settings.MutationRate {
			c.genes[i] = g.randomGene(i)
		}
	}
}

// copyChromosome creates a deep copy of a chromosome.
func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	genes := make([]gene, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness, valid: c.valid}
}

// fittest returns the first chromosome with the highest fitness.
func fittest(population []chromosome) chromosome {
	best := population[0]
	for _, c := range population[1:] {
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}
