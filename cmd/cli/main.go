package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/evotimetabling/internal/config"
	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/limaJavier/evotimetabling/pkg/report"
	"github.com/limaJavier/evotimetabling/pkg/storage"
	"go.uber.org/zap"
)

var validFormats = []report.Format{report.Text, report.Table, report.CSV, report.JSON}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	// Define arguments; environment values act as defaults
	populationSizePtr := flag.Int("population", cfg.Genetic.PopulationSize, "Number of timetables per generation")
	eliteCountPtr := flag.Int("elite", cfg.Genetic.EliteCount, "Number of best timetables copied unchanged into the next generation")
	crossoverRatePtr := flag.Float64("crossover", cfg.Genetic.CrossoverRate, "Probability of breeding a child instead of copying a parent")
	mutationRatePtr := flag.Float64("mutation", cfg.Genetic.MutationRate, "Probability of mutating a non-elite timetable")
	tournamentSizePtr := flag.Int("tournament", cfg.Genetic.TournamentSize, "Number of contenders in a selection tournament")
	predationRatePtr := flag.Float64("predation", cfg.Genetic.PredationRate, "Fraction of the population replaced by aggressively mutated clones of the best")
	rainRatePtr := flag.Float64("rain", cfg.Genetic.RainRate, "Fraction of the population replaced by random timetables during rain")
	rainPeriodPtr := flag.Int("rain-period", cfg.Genetic.RainPeriod, "Rain happens every this many generations")
	cascadingRainPtr := flag.Bool("cascading-rain", cfg.Genetic.CascadingRain, "Re-sort after every rain replacement")
	fitnessPtr := flag.String("fitness", cfg.Genetic.FitnessFunction, `Fitness function. Allowed values are: "conflicts", "gaps" and "combined"`)
	generationsPtr := flag.Int("generations", cfg.Genetic.MaxGenerations, "Maximum number of generations")
	targetPtr := flag.Float64("target", cfg.Genetic.TargetFitness, "Fitness that stops the evolution once reached")
	seedPtr := flag.Int64("seed", cfg.Genetic.Seed, "Seed of the random source; 0 picks a random one")
	workersPtr := flag.Int("workers", cfg.Genetic.Workers, "Number of goroutines evaluating fitness")

	filePathPtr := flag.String("file", cfg.Input.File, "Path to the JSON input file")
	dirPathPtr := flag.String("dir", cfg.Input.Directory, "Path to a directory holding the CSV input files")
	delimiterPtr := flag.String("delimiter", cfg.Input.Delimiter, "Delimiter of the CSV input files")
	fromDatabasePtr := flag.Bool("db", false, "Load the input from the database")
	outFilePathPtr := flag.String("out", cfg.Output.File, "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	formatPtr := flag.String("format", cfg.Output.Format, `Output format. Allowed values are: "text", "table", "csv" and "json"`)
	repairRoomsPtr := flag.Bool("repair-rooms", cfg.Output.RepairRooms, "Reassign classrooms of the best timetable by maximum matching")
	verbosePtr := flag.Bool("verbose", false, "Print the input summary and the population of every generation")
	savePtr := flag.Bool("save", false, "Persist the input and the best timetable into the database")
	runPtr := flag.String("run", "", "Identifier of a stored run to export instead of evolving a new timetable; implies -db")
	flag.Parse()

	cfg.Genetic.PopulationSize = *populationSizePtr
	cfg.Genetic.EliteCount = *eliteCountPtr
	cfg.Genetic.CrossoverRate = *crossoverRatePtr
	cfg.Genetic.MutationRate = *mutationRatePtr
	cfg.Genetic.TournamentSize = *tournamentSizePtr
	cfg.Genetic.PredationRate = *predationRatePtr
	cfg.Genetic.RainRate = *rainRatePtr
	cfg.Genetic.RainPeriod = *rainPeriodPtr
	cfg.Genetic.CascadingRain = *cascadingRainPtr
	cfg.Genetic.FitnessFunction = *fitnessPtr
	cfg.Genetic.MaxGenerations = *generationsPtr
	cfg.Genetic.TargetFitness = *targetPtr
	cfg.Genetic.Seed = *seedPtr
	cfg.Genetic.Workers = *workersPtr
	format := report.Format(strings.ToLower(*formatPtr))

	var runID uuid.UUID
	if *runPtr != "" {
		if runID, err = uuid.Parse(*runPtr); err != nil {
			log.Fatalf("%v is not a valid run identifier: %v", *runPtr, err)
		}
		*fromDatabasePtr = true
	}

	// Validate arguments
	geneticConfig, err := cfg.GeneticConfig()
	if err != nil {
		log.Fatalf("invalid engine parameters: %v", err)
	} else if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	} else if *filePathPtr == "" && *dirPathPtr == "" && !*fromDatabasePtr {
		log.Fatal("an input file, an input directory or the database must be specified")
	} else if *dirPathPtr != "" && len([]rune(*delimiterPtr)) != 1 {
		log.Fatalf("delimiter must be a single character: %q", *delimiterPtr)
	} else if (*fromDatabasePtr || *savePtr) && cfg.Database.DSN == "" {
		log.Fatal("DATABASE_DSN must be set to use the database")
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var repository *storage.Repository
	if *fromDatabasePtr || *savePtr {
		repository = openRepository(ctx, cfg)
	}

	// Extract input
	var data *model.Data
	switch {
	case *fromDatabasePtr:
		data, err = repository.LoadData(ctx)
	case *dirPathPtr != "":
		data, err = model.InputFromCsv(*dirPathPtr, []rune(*delimiterPtr)[0])
	default:
		data, err = model.InputFromJson(*filePathPtr)
	}
	if err != nil {
		log.Fatalf("cannot parse input: %v", err)
	}
	logger.Info("input loaded",
		zap.Int("courses", len(data.Courses)),
		zap.Int("teachers", len(data.Teachers)),
		zap.Int("classrooms", len(data.Classrooms)),
		zap.Int("timeSlots", len(data.TimeSlots)),
		zap.Int("groups", len(data.Groups)),
		zap.Int("expectedSessions", data.ExpectedSessions()),
	)
	if *verbosePtr {
		if err := report.WriteData(os.Stderr, data); err != nil {
			logger.Warn("cannot print input", zap.Error(err))
		}
	}

	// Export a stored run
	if *runPtr != "" {
		sessions, err := repository.LoadTimetable(ctx, runID, data)
		if err != nil {
			log.Fatalf("cannot load run %v: %v", runID, err)
		} else if len(sessions) == 0 {
			log.Fatalf("run %v has no stored sessions", runID)
		}

		timetable := genetic.NewTimetable(data, geneticConfig.FitnessFunction)
		timetable.Append(sessions...)
		writeOutput(*outFilePathPtr, format, timetable)
		return
	}

	// Initialize engine
	options := []genetic.Option{genetic.WithLogger(logger)}
	if *verbosePtr {
		options = append(options, genetic.OnPopulation(func(generation int, population *genetic.Population) {
			if err := report.WritePopulation(os.Stderr, generation, population); err != nil {
				logger.Warn("cannot print population", zap.Error(err))
			}
		}))
	}
	engine, err := genetic.New(geneticConfig, data, options...)
	if err != nil {
		log.Fatalf("cannot create engine: %v", err)
	}

	population, err := engine.NewPopulation()
	if err != nil {
		log.Fatalf("cannot initialize population: %v", err)
	}

	// Evolve timetable
	result, err := engine.Run(ctx, population)
	if err != nil && result.Best == nil {
		log.Fatalf("an error occurred during evolution: %v", err)
	} else if err != nil {
		logger.Warn("evolution stopped early, keeping the best timetable so far", zap.Error(err))
	}
	best := result.Best

	if *repairRoomsPtr {
		unmatched, err := genetic.ReassignClassrooms(best)
		if err != nil {
			log.Fatalf("cannot reassign classrooms: %v", err)
		}
		logger.Info("classrooms reassigned", zap.Int("unmatched", unmatched), zap.Float64("fitness", best.Fitness()))
	}

	if *savePtr {
		if err := repository.SaveData(ctx, data); err != nil {
			log.Fatalf("cannot save input: %v", err)
		}
		runID := uuid.New()
		if err := repository.SaveTimetable(ctx, runID, best.Fitness(), best.Conflicts(), best.Sessions()); err != nil {
			log.Fatalf("cannot save timetable: %v", err)
		}
		logger.Info("timetable saved", zap.Stringer("runId", runID))
	}

	writeOutput(*outFilePathPtr, format, best)

	if format != report.Text {
		fmt.Fprintf(os.Stderr, "Fitness: %v\n", best.Fitness())
		fmt.Fprintf(os.Stderr, "Number of conflicts: %v\n", best.Conflicts())
	}
	fmt.Fprintf(os.Stderr, "Generations: %v\n", result.Generation)
	fmt.Fprintf(os.Stderr, "Seed: %v\n", result.Seed)
}

func openRepository(ctx context.Context, cfg *config.Config) *storage.Repository {
	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	dbpool, err := storage.Open(connectCtx, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("cannot connect to the database: %v", err)
	}
	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	queryTimeout, transactionTimeout := cfg.Database.Timeouts()
	repository := storage.NewRepository(dbpool, queryTimeout, transactionTimeout)
	if err := repository.CreateSchema(ctx); err != nil {
		log.Fatalf("cannot create database schema: %v", err)
	}
	return repository
}

// writeOutput writes the timetable into the file, or into the Standard Output when no file is given
func writeOutput(outFile string, format report.Format, timetable *genetic.Timetable) {
	var writer io.Writer = os.Stdout
	if outFile != "" {
		file, err := os.Create(outFile)
		if err != nil {
			log.Fatalf("cannot create output file: %v", err)
		}
		defer file.Close()
		writer = file
	}

	if err := report.Write(writer, format, timetable); err != nil {
		log.Fatalf("an error occurred while writing the output: %v", err)
	}
}
