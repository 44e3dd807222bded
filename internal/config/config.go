package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Genetic struct {
	PopulationSize  int     `env:"POPULATION_SIZE" envDefault:"50"`
	EliteCount      int     `env:"ELITE_COUNT" envDefault:"2"`
	CrossoverRate   float64 `env:"CROSSOVER_RATE" envDefault:"0.7"`
	MutationRate    float64 `env:"MUTATION_RATE" envDefault:"0.15"`
	TournamentSize  int     `env:"TOURNAMENT_SIZE" envDefault:"5"`
	PredationRate   float64 `env:"PREDATION_RATE" envDefault:"0.2"`
	RainRate        float64 `env:"RAIN_RATE" envDefault:"0.1"`
	RainPeriod      int     `env:"RAIN_PERIOD" envDefault:"7"`
	CascadingRain   bool    `env:"CASCADING_RAIN" envDefault:"false"`
	FitnessFunction string  `env:"FITNESS_FUNCTION" envDefault:"combined"`
	MaxGenerations  int     `env:"MAX_GENERATIONS" envDefault:"100"`
	TargetFitness   float64 `env:"TARGET_FITNESS" envDefault:"1.0"`
	Seed            int64   `env:"SEED" envDefault:"0"`
	Workers         int     `env:"WORKERS" envDefault:"1"`
}

type Database struct {
	DSN                string `env:"DSN"`
	ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
	QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
	TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
	MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
}

type Config struct {
	Environment string  `env:"ENVIRONMENT" envDefault:"development"`
	Genetic     Genetic `envPrefix:"GA_"`
	Input       struct {
		File      string `env:"FILE"`
		Directory string `env:"DIR"`
		Delimiter string `env:"DELIMITER" envDefault:","`
	} `envPrefix:"INPUT_"`
	Output struct {
		File        string `env:"FILE"`
		Format      string `env:"FORMAT" envDefault:"text"`
		RepairRooms bool   `env:"REPAIR_ROOMS" envDefault:"false"`
	} `envPrefix:"OUTPUT_"`
	Database Database `envPrefix:"DATABASE_"`
	Server   struct {
		Port            string `env:"PORT" envDefault:"8080"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"300"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		RunTimeout      int    `env:"RUN_TIMEOUT" envDefault:"240"` // Upper bound of a single evolution run
	} `envPrefix:"SERVER_"`
	Log struct {
		Level string `env:"LEVEL" envDefault:"info"`
	} `envPrefix:"LOG_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok && len(aggErr.Errors) > 0 {
			// Only the first error keeps the message readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}

// ToGenetic converts the environment section into an engine configuration
func (cfg Genetic) ToGenetic() (genetic.Config, error) {
	fitnessFunction, err := genetic.ParseFitnessFunction(cfg.FitnessFunction)
	if err != nil {
		return genetic.Config{}, err
	}

	config := genetic.Config{
		PopulationSize:  cfg.PopulationSize,
		EliteCount:      cfg.EliteCount,
		CrossoverRate:   cfg.CrossoverRate,
		MutationRate:    cfg.MutationRate,
		TournamentSize:  cfg.TournamentSize,
		PredationRate:   cfg.PredationRate,
		RainRate:        cfg.RainRate,
		RainPeriod:      cfg.RainPeriod,
		CascadingRain:   cfg.CascadingRain,
		FitnessFunction: fitnessFunction,
		MaxGenerations:  cfg.MaxGenerations,
		TargetFitness:   cfg.TargetFitness,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
	}
	return config, config.Validate()
}

// GeneticConfig returns the validated engine configuration
func (cfg *Config) GeneticConfig() (genetic.Config, error) {
	return cfg.Genetic.ToGenetic()
}

func (cfg Database) Timeouts() (query, transaction time.Duration) {
	return time.Duration(cfg.QueryTimeout) * time.Second, time.Duration(cfg.TransactionTimeout) * time.Second
}

// NewLogger builds a console logger in development and a JSON logger otherwise
func (cfg *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	var zapConfig zap.Config
	if cfg.Environment == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}
