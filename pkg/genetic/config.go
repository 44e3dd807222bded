package genetic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidConfig = errors.New("invalid genetic configuration")

// FitnessFunction selects how a timetable is scored. It is fixed for a whole run
type FitnessFunction string

const (
	FitnessConflicts FitnessFunction = "conflicts"
	FitnessGaps      FitnessFunction = "gaps"
	FitnessCombined  FitnessFunction = "combined"
)

var FitnessFunctions = []FitnessFunction{FitnessConflicts, FitnessGaps, FitnessCombined}

func ParseFitnessFunction(name string) (FitnessFunction, error) {
	function := FitnessFunction(strings.ToLower(strings.TrimSpace(name)))
	switch function {
	case FitnessConflicts, FitnessGaps, FitnessCombined:
		return function, nil
	default:
		return "", fmt.Errorf("%w: unknown fitness function %q", ErrInvalidConfig, name)
	}
}

type Config struct {
	PopulationSize int     `validate:"gt=0"`
	EliteCount     int     `validate:"gte=0,ltfield=PopulationSize"`
	CrossoverRate  float64 `validate:"gte=0,lte=1"`
	MutationRate   float64 `validate:"gte=0,lte=1"`
	TournamentSize int     `validate:"gte=2"`
	PredationRate  float64 `validate:"gte=0,lte=1"`
	RainRate       float64 `validate:"gte=0,lte=1"`
	RainPeriod     int     `validate:"gt=0"`
	CascadingRain  bool    // Replace the worst individual one at a time, re-sorting in between

	FitnessFunction FitnessFunction `validate:"oneof=conflicts gaps combined"`
	MaxGenerations  int             `validate:"gte=0"`
	TargetFitness   float64         `validate:"gt=0,lte=1"`

	Seed    int64 // 0 picks a random seed
	Workers int   `validate:"gte=1"` // Concurrent fitness evaluations
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:  50,
		EliteCount:      2,
		CrossoverRate:   0.7,
		MutationRate:    0.15,
		TournamentSize:  5,
		PredationRate:   0.2,
		RainRate:        0.1,
		RainPeriod:      7,
		FitnessFunction: FitnessCombined,
		MaxGenerations:  100,
		TargetFitness:   1.0,
		Workers:         1,
	}
}

var validate = validator.New()

func (config Config) Validate() error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fieldError := validationErrors[0]
		return fmt.Errorf("%w: %v failed on %q %v (value: %v)", ErrInvalidConfig, fieldError.Field(), fieldError.Tag(), fieldError.Param(), fieldError.Value())
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}
