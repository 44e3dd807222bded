package genetic

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type Population struct {
	timetables []*Timetable
}

// NewPopulation holds size independently initialized random timetables
func NewPopulation(size int, data *model.Data, fitnessFunction FitnessFunction, rng *rand.Rand, logger *zap.Logger) (*Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be positive (got %v)", ErrInvalidConfig, size)
	}

	timetables := make([]*Timetable, 0, size)
	for range size {
		timetables = append(timetables, NewTimetable(data, fitnessFunction).Initialize(rng, logger))
	}
	return &Population{timetables: timetables}, nil
}

func newPopulationOf(timetables []*Timetable) *Population {
	return &Population{timetables: timetables}
}

// SortByFitness orders the timetables by descending fitness. Ties keep their relative order
func (population *Population) SortByFitness() *Population {
	slices.SortStableFunc(population.timetables, func(a, b *Timetable) int {
		return cmp.Compare(b.Fitness(), a.Fitness())
	})
	return population
}

// EvaluateFitness scores every dirty timetable using at most workers goroutines
func (population *Population) EvaluateFitness(workers int) {
	dirty := lo.Filter(population.timetables, func(timetable *Timetable, _ int) bool { return timetable.Dirty() })
	if len(dirty) == 0 {
		return
	}
	if workers <= 1 || len(dirty) == 1 {
		lo.ForEach(dirty, func(timetable *Timetable, _ int) { timetable.Fitness() })
		return
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, timetable := range dirty {
		p.Go(func() {
			timetable.Fitness()
		})
	}
	p.Wait()
}

func (population *Population) Best() *Timetable {
	if len(population.timetables) == 0 {
		return nil
	}
	return population.timetables[0]
}

func (population *Population) AverageFitness() float64 {
	if len(population.timetables) == 0 {
		return 0
	}
	return lo.SumBy(population.timetables, func(timetable *Timetable) float64 { return timetable.Fitness() }) / float64(len(population.timetables))
}

func (population *Population) Len() int {
	return len(population.timetables)
}

func (population *Population) At(index int) *Timetable {
	return population.timetables[index]
}

func (population *Population) Timetables() []*Timetable {
	return slices.Clone(population.timetables)
}
