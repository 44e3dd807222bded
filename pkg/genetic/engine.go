package genetic

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"go.uber.org/zap"
)

type GenerationReport struct {
	Generation     int
	BestFitness    float64
	AverageFitness float64
	BestConflicts  int
}

type Result struct {
	Best       *Timetable
	Generation int  // Last generation that was produced
	Solved     bool // Best fitness reached the target
	Seed       int64
	History    []GenerationReport
}

// Engine evolves populations of timetables. It is not safe for concurrent use: every run owns its engine
type Engine struct {
	config       Config
	data         *model.Data
	rng          *rand.Rand
	seed         int64
	logger       *zap.Logger
	onGeneration func(GenerationReport)
	onPopulation func(generation int, population *Population)
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// OnGeneration registers a callback that receives the report of every generation, including the initial one
func OnGeneration(callback func(GenerationReport)) Option {
	return func(engine *Engine) {
		engine.onGeneration = callback
	}
}

// OnPopulation registers a callback that receives every sorted generation. The population must not be modified
func OnPopulation(callback func(generation int, population *Population)) Option {
	return func(engine *Engine) {
		engine.onPopulation = callback
	}
}

func New(config Config, data *model.Data, options ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed := config.Seed
	for seed == 0 {
		seed = rand.Int64()
	}

	engine := &Engine{
		config: config,
		data:   data,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)),
		seed:   seed,
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine, nil
}

// Seed returns the seed of the engine's random source, which reproduces the run when fed back into Config.Seed
func (engine *Engine) Seed() int64 {
	return engine.seed
}

func (engine *Engine) Config() Config {
	return engine.config
}

// NewPopulation initializes a random population of the configured size from the engine's random source
func (engine *Engine) NewPopulation() (*Population, error) {
	engine.data.ResetTeacherHours()
	return NewPopulation(engine.config.PopulationSize, engine.data, engine.config.FitnessFunction, engine.rng, engine.logger)
}

// Evolve produces the next generation: crossover, mutation, predation, periodic rain and size stabilization.
// The returned population has the same size as the given one and is not sorted
func (engine *Engine) Evolve(population *Population, generation int) *Population {
	size := population.Len()
	engine.sort(population)

	next := engine.mutatePopulation(engine.crossoverPopulation(population))
	engine.predation(next)
	if generation%engine.config.RainPeriod == 0 {
		engine.rain(next)
	}
	engine.stabilize(next, size)
	return next
}

// Run evolves the population until the best timetable reaches the target fitness, the generation budget is spent
// or the context is done. In the last case the best timetable so far is returned together with the context error
func (engine *Engine) Run(ctx context.Context, population *Population) (Result, error) {
	result := Result{Seed: engine.seed}
	if population.Len() == 0 {
		return result, fmt.Errorf("%w: cannot run an empty population", ErrInvalidConfig)
	}
	engine.sort(population)
	result.History = append(result.History, engine.report(population, 0))
	engine.logger.Info("evolution started",
		zap.Int64("seed", engine.seed),
		zap.Int("populationSize", population.Len()),
		zap.String("fitnessFunction", string(engine.config.FitnessFunction)),
		zap.Float64("bestFitness", population.Best().Fitness()),
	)

	bestFitness := population.Best().Fitness()
	for generation := 1; generation <= engine.config.MaxGenerations && bestFitness < engine.config.TargetFitness; generation++ {
		if err := ctx.Err(); err != nil {
			engine.logger.Warn("evolution interrupted", zap.Int("generation", result.Generation), zap.Error(err))
			result.Best = population.Best()
			return result, err
		}

		population = engine.Evolve(population, generation)
		engine.sort(population)
		result.Generation = generation

		report := engine.report(population, generation)
		result.History = append(result.History, report)
		if report.BestFitness > bestFitness {
			engine.logger.Info("fitness improved",
				zap.Int("generation", generation),
				zap.Float64("bestFitness", report.BestFitness),
				zap.Int("conflicts", report.BestConflicts),
			)
		}
		bestFitness = report.BestFitness
	}

	result.Best = population.Best()
	result.Solved = bestFitness >= engine.config.TargetFitness
	engine.logger.Info("evolution finished",
		zap.Int("generation", result.Generation),
		zap.Bool("solved", result.Solved),
		zap.Float64("bestFitness", bestFitness),
		zap.Int("conflicts", result.Best.Conflicts()),
	)
	return result, nil
}

func (engine *Engine) sort(population *Population) {
	population.EvaluateFitness(engine.config.Workers)
	population.SortByFitness()
}

func (engine *Engine) report(population *Population, generation int) GenerationReport {
	report := GenerationReport{
		Generation:     generation,
		BestFitness:    population.Best().Fitness(),
		AverageFitness: population.AverageFitness(),
		BestConflicts:  population.Best().Conflicts(),
	}
	engine.logger.Debug("generation",
		zap.Int("generation", report.Generation),
		zap.Float64("bestFitness", report.BestFitness),
		zap.Float64("averageFitness", report.AverageFitness),
		zap.Int("bestConflicts", report.BestConflicts),
	)
	if engine.onGeneration != nil {
		engine.onGeneration(report)
	}
	if engine.onPopulation != nil {
		engine.onPopulation(generation, population)
	}
	return report
}
