package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
)

const (
	defaultInputFile         = "../../testdata/input.json"
	resultsFile              = "benchmark_results.csv"
	MB               float64 = 1024 * 1024
)

var (
	populationSizes = []int{20, 50, 100}
	seeds           = []int64{1, 2, 3, 4, 5}
)

type TestMetadata struct {
	Name             string
	Courses          int
	Teachers         int
	Classrooms       int
	TimeSlots        int
	Groups           int
	ExpectedSessions int
}

type BenchmarkCase struct {
	FitnessFunction genetic.FitnessFunction
	PopulationSize  int
	Seed            int64
}

type BenchmarkResult struct {
	Case        BenchmarkCase
	Test        TestMetadata
	Duration    int64   // Milliseconds
	Memory      float64 // Megabytes allocated during the run
	Generations int
	Fitness     float64
	Conflicts   int
	Solved      bool
}

func main() {
	inputFilePtr := flag.String("file", defaultInputFile, "Path to the JSON input file")
	generationsPtr := flag.Int("generations", 200, "Maximum number of generations of every run")
	flag.Parse()

	test := getTest(*inputFilePtr)
	cases := getCases()
	results := make([]BenchmarkResult, 0, len(cases))

	for _, benchmarkCase := range cases {
		fmt.Printf("Benchmarking test \"%v\" with fitness \"%v\", population \"%v\" and seed \"%v\"\n", test.Name, benchmarkCase.FitnessFunction, benchmarkCase.PopulationSize, benchmarkCase.Seed)

		result, err := measure(test, benchmarkCase, *generationsPtr)
		if err != nil {
			log.Fatalf("an error occurred at test \"%v\" using fitness \"%v\", population \"%v\", seed \"%v\": %v", test.Name, benchmarkCase.FitnessFunction, benchmarkCase.PopulationSize, benchmarkCase.Seed, err)
		}
		results = append(results, result)
	}

	toCsv(results)
}

func getTest(filename string) TestMetadata {
	input, err := model.InputFromJson(filename)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	return TestMetadata{
		Name:             filename,
		Courses:          len(input.Courses),
		Teachers:         len(input.Teachers),
		Classrooms:       len(input.Classrooms),
		TimeSlots:        len(input.TimeSlots),
		Groups:           len(input.Groups),
		ExpectedSessions: input.ExpectedSessions(),
	}
}

func getCases() []BenchmarkCase {
	cases := make([]BenchmarkCase, 0, len(genetic.FitnessFunctions)*len(populationSizes)*len(seeds))
	for _, fitnessFunction := range genetic.FitnessFunctions {
		for _, populationSize := range populationSizes {
			for _, seed := range seeds {
				cases = append(cases, BenchmarkCase{FitnessFunction: fitnessFunction, PopulationSize: populationSize, Seed: seed})
			}
		}
	}
	return cases
}

func measure(test TestMetadata, benchmarkCase BenchmarkCase, maxGenerations int) (BenchmarkResult, error) {
	// Every run owns its data since teacher loads are tracked on the entities
	data, err := model.InputFromJson(test.Name)
	if err != nil {
		return BenchmarkResult{}, err
	}

	config := genetic.DefaultConfig()
	config.FitnessFunction = benchmarkCase.FitnessFunction
	config.PopulationSize = benchmarkCase.PopulationSize
	config.Seed = benchmarkCase.Seed
	config.MaxGenerations = maxGenerations
	config.Workers = runtime.NumCPU()

	engine, err := genetic.New(config, data)
	if err != nil {
		return BenchmarkResult{}, err
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	population, err := engine.NewPopulation()
	if err != nil {
		return BenchmarkResult{}, err
	}
	result, err := engine.Run(context.Background(), population)
	if err != nil {
		return BenchmarkResult{}, err
	}

	duration := time.Since(start)
	runtime.ReadMemStats(&after)

	return BenchmarkResult{
		Case:        benchmarkCase,
		Test:        test,
		Duration:    duration.Milliseconds(),
		Memory:      float64(after.TotalAlloc-before.TotalAlloc) / MB,
		Generations: result.Generation,
		Fitness:     result.Best.Fitness(),
		Conflicts:   result.Best.Conflicts(),
		Solved:      result.Solved,
	}, nil
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create(resultsFile)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := writeCsv(file, results); err != nil {
		log.Panicf("cannot write CSV file: %v", err)
	}
}

// resultRow is the flat CSV shape of a BenchmarkResult
type resultRow struct {
	FitnessFunction  string  `csv:"Fitness Function"`
	PopulationSize   int     `csv:"Population"`
	Seed             int64   `csv:"Seed"`
	Test             string  `csv:"Test"`
	Courses          int     `csv:"Courses"`
	Teachers         int     `csv:"Teachers"`
	Classrooms       int     `csv:"Classrooms"`
	TimeSlots        int     `csv:"TimeSlots"`
	Groups           int     `csv:"Groups"`
	ExpectedSessions int     `csv:"Sessions"`
	Duration         int64   `csv:"Duration(ms)"`
	Memory           float64 `csv:"Memory(MB)"`
	Generations      int     `csv:"Generations"`
	Fitness          float64 `csv:"Fitness"`
	Conflicts        int     `csv:"Conflicts"`
	Solved           bool    `csv:"Solved"`
}

func writeCsv(out io.Writer, results []BenchmarkResult) error {
	rows := lo.Map(results, func(result BenchmarkResult, _ int) resultRow {
		return resultRow{
			FitnessFunction:  string(result.Case.FitnessFunction),
			PopulationSize:   result.Case.PopulationSize,
			Seed:             result.Case.Seed,
			Test:             result.Test.Name,
			Courses:          result.Test.Courses,
			Teachers:         result.Test.Teachers,
			Classrooms:       result.Test.Classrooms,
			TimeSlots:        result.Test.TimeSlots,
			Groups:           result.Test.Groups,
			ExpectedSessions: result.Test.ExpectedSessions,
			Duration:         result.Duration,
			Memory:           math.Round(result.Memory*10) / 10,
			Generations:      result.Generations,
			Fitness:          math.Round(result.Fitness*10000) / 10000,
			Conflicts:        result.Conflicts,
			Solved:           result.Solved,
		}
	})
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("cannot write CSV records: %w", err)
	}
	return nil
}
