package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/limaJavier/evotimetabling/pkg/report"
	"github.com/limaJavier/evotimetabling/pkg/storage"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

type Handler struct {
	validate   *validator.Validate
	logger     *zap.Logger
	defaults   genetic.Config
	repository *storage.Repository // nil when no database is configured
	runTimeout time.Duration

	Mux *chi.Mux
}

func NewHandler(defaults genetic.Config, repository *storage.Repository, runTimeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		defaults:   defaults,
		repository: repository,
		runTimeout: runTimeout,

		Mux: chi.NewRouter(),
	}
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/health", h.Health)
	h.Mux.Post("/timetables", h.CreateTimetable)
}

// parameters overrides the server defaults; absent fields keep them
type parameters struct {
	PopulationSize  *int     `json:"populationSize" validate:"omitempty,gt=0,lte=1000"`
	EliteCount      *int     `json:"eliteCount" validate:"omitempty,gte=0"`
	CrossoverRate   *float64 `json:"crossoverRate" validate:"omitempty,gte=0,lte=1"`
	MutationRate    *float64 `json:"mutationRate" validate:"omitempty,gte=0,lte=1"`
	TournamentSize  *int     `json:"tournamentSize" validate:"omitempty,gte=2"`
	PredationRate   *float64 `json:"predationRate" validate:"omitempty,gte=0,lte=1"`
	RainRate        *float64 `json:"rainRate" validate:"omitempty,gte=0,lte=1"`
	RainPeriod      *int     `json:"rainPeriod" validate:"omitempty,gt=0"`
	CascadingRain   *bool    `json:"cascadingRain"`
	FitnessFunction *string  `json:"fitnessFunction" validate:"omitempty,oneof=conflicts gaps combined"`
	MaxGenerations  *int     `json:"maxGenerations" validate:"omitempty,gte=0,lte=10000"`
	TargetFitness   *float64 `json:"targetFitness" validate:"omitempty,gte=0,lte=1"`
	Seed            *int64   `json:"seed"`
}

type timetableRequest struct {
	Input       map[string]any `json:"input" validate:"required"`
	Parameters  parameters     `json:"parameters"`
	RepairRooms bool           `json:"repairRooms"`
	Save        bool           `json:"save"`
}

type timetableResponse struct {
	RunID      uuid.UUID    `json:"runId"`
	Fitness    float64      `json:"fitness"`
	Conflicts  int          `json:"conflicts"`
	Generation int          `json:"generation"`
	Solved     bool         `json:"solved"`
	Seed       int64        `json:"seed"`
	Sessions   []report.Row `json:"sessions"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}

func (h *Handler) CreateTimetable(w http.ResponseWriter, r *http.Request) {
	var req timetableRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Save && h.repository == nil {
		h.badRequest(w, r, errors.New("saving requires a configured database"))
		return
	}

	config, err := req.Parameters.apply(h.defaults)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	data, err := model.InputFromMap(req.Input)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	engine, err := genetic.New(config, data, genetic.WithLogger(h.logger))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	population, err := engine.NewPopulation()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	result, err := engine.Run(ctx, population)
	if err != nil && result.Best == nil {
		h.internalServerError(w, r, err)
		return
	} else if err != nil {
		h.logger.Warn("evolution stopped early", zap.Error(err), zap.Int("generation", result.Generation))
	}
	best := result.Best

	if req.RepairRooms {
		if _, err := genetic.ReassignClassrooms(best); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	rows, err := report.Rows(best)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	runID := uuid.New()
	if req.Save {
		if err := h.repository.SaveTimetable(r.Context(), runID, best.Fitness(), best.Conflicts(), best.Sessions()); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "timetable generated", timetableResponse{
		RunID:      runID,
		Fitness:    best.Fitness(),
		Conflicts:  best.Conflicts(),
		Generation: result.Generation,
		Solved:     result.Solved,
		Seed:       result.Seed,
		Sessions:   rows,
	})
}

func (p parameters) apply(config genetic.Config) (genetic.Config, error) {
	assign(&config.PopulationSize, p.PopulationSize)
	assign(&config.EliteCount, p.EliteCount)
	assign(&config.CrossoverRate, p.CrossoverRate)
	assign(&config.MutationRate, p.MutationRate)
	assign(&config.TournamentSize, p.TournamentSize)
	assign(&config.PredationRate, p.PredationRate)
	assign(&config.RainRate, p.RainRate)
	assign(&config.RainPeriod, p.RainPeriod)
	assign(&config.CascadingRain, p.CascadingRain)
	assign(&config.MaxGenerations, p.MaxGenerations)
	assign(&config.TargetFitness, p.TargetFitness)
	assign(&config.Seed, p.Seed)

	if p.FitnessFunction != nil {
		fitnessFunction, err := genetic.ParseFitnessFunction(*p.FitnessFunction)
		if err != nil {
			return config, err
		}
		config.FitnessFunction = fitnessFunction
	}
	return config, config.Validate()
}

func assign[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

//** JSON helpers

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("cannot encode response", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	message := err.Error()

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fieldError := validationErrors[0]
		message = fmt.Sprintf("%v failed on %q %v", fieldError.Namespace(), fieldError.Tag(), fieldError.Param())
	}

	h.writeJSON(w, r, http.StatusBadRequest, Response{Success: false, Message: message})
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal server error", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	h.writeJSON(w, r, http.StatusInternalServerError, Response{Success: false, Message: "internal server error"})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

//** Middlewares

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("request handled",
			zap.Int("status", rw.statusCode),
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.logger.Error("panic", zap.Any("error", err), zap.ByteString("stack", debug.Stack()))
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
