package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCases(t *testing.T) {
	cases := getCases()

	assert.Len(t, cases, len(genetic.FitnessFunctions)*len(populationSizes)*len(seeds))
	assert.Equal(t, BenchmarkCase{FitnessFunction: genetic.FitnessFunctions[0], PopulationSize: populationSizes[0], Seed: seeds[0]}, cases[0])
}

func TestMeasure(t *testing.T) {
	//** Arrange
	test := getTest(defaultInputFile)
	benchmarkCase := BenchmarkCase{FitnessFunction: genetic.FitnessConflicts, PopulationSize: 10, Seed: 3}

	//** Act
	result, err := measure(test, benchmarkCase, 5)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, 18, result.Test.ExpectedSessions)
	assert.LessOrEqual(t, result.Generations, 5)
	assert.Greater(t, result.Fitness, 0.0)
	assert.LessOrEqual(t, result.Fitness, 1.0)
	assert.Equal(t, result.Solved, result.Fitness >= 1.0)
}

func TestWriteCsv(t *testing.T) {
	var buffer bytes.Buffer
	results := []BenchmarkResult{{
		Case:        BenchmarkCase{FitnessFunction: genetic.FitnessGaps, PopulationSize: 20, Seed: 1},
		Test:        TestMetadata{Name: "input.json", Courses: 7, Teachers: 5, Classrooms: 4, TimeSlots: 12, Groups: 3, ExpectedSessions: 18},
		Duration:    1520,
		Memory:      3.34,
		Generations: 40,
		Fitness:     0.50004,
		Conflicts:   1,
	}}

	require.NoError(t, writeCsv(&buffer, results))

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Fitness Function,Population,Seed"))
	assert.Equal(t, "gaps,20,1,input.json,7,5,4,12,3,18,1520,3.3,40,0.5,1,false", lines[1])
}
