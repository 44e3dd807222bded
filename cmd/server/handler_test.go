package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler() *Handler {
	handler := NewHandler(genetic.DefaultConfig(), nil, time.Minute, zap.NewNop())
	handler.RegisterRoutes()
	return handler
}

func loadInput(t *testing.T) map[string]any {
	bytes, err := os.ReadFile("../../testdata/input.json")
	require.NoError(t, err)

	var input map[string]any
	require.NoError(t, json.Unmarshal(bytes, &input))
	return input
}

func post(t *testing.T, handler *Handler, body any) (*httptest.ResponseRecorder, Response) {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, "/timetables", bytes.NewReader(payload))
	recorder := httptest.NewRecorder()
	handler.Mux.ServeHTTP(recorder, request)

	var response Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return recorder, response
}

func TestHealth(t *testing.T) {
	handler := newTestHandler()
	recorder := httptest.NewRecorder()

	handler.Mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"success":true`)
}

func TestCreateTimetable(t *testing.T) {
	t.Run("Generates a timetable", func(t *testing.T) {
		//** Arrange
		handler := newTestHandler()
		body := map[string]any{
			"input": loadInput(t),
			"parameters": map[string]any{
				"populationSize": 10,
				"maxGenerations": 3,
				"seed":           5,
			},
			"repairRooms": true,
		}

		//** Act
		recorder, response := post(t, handler, body)

		//** Assert
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
		assert.True(t, response.Success)

		data, ok := response.Data.(map[string]any)
		require.True(t, ok)
		assert.NotEmpty(t, data["runId"])
		assert.Equal(t, float64(5), data["seed"])
		assert.LessOrEqual(t, data["generation"], float64(3))
		assert.Len(t, data["sessions"], 18)
	})

	t.Run("Same seed, same timetable", func(t *testing.T) {
		//** Arrange
		handler := newTestHandler()
		body := map[string]any{
			"input":      loadInput(t),
			"parameters": map[string]any{"populationSize": 8, "maxGenerations": 2, "seed": 9},
		}

		//** Act
		_, first := post(t, handler, body)
		_, second := post(t, handler, body)

		//** Assert
		firstData, secondData := first.Data.(map[string]any), second.Data.(map[string]any)
		assert.Equal(t, firstData["fitness"], secondData["fitness"])
		assert.Equal(t, firstData["sessions"], secondData["sessions"])
	})

	t.Run("Rejected requests", func(t *testing.T) {
		cases := []struct {
			name string
			body any
		}{
			{"Missing input", map[string]any{"parameters": map[string]any{"populationSize": 10}}},
			{"Parameter out of range", map[string]any{"input": loadInput(t), "parameters": map[string]any{"mutationRate": 2}}},
			{"Unknown fitness function", map[string]any{"input": loadInput(t), "parameters": map[string]any{"fitnessFunction": "speed"}}},
			{"Elite count not below population", map[string]any{"input": loadInput(t), "parameters": map[string]any{"populationSize": 4, "eliteCount": 4}}},
			{"Invalid input", map[string]any{"input": map[string]any{"Courses": "none"}}},
			{"Save without database", map[string]any{"input": loadInput(t), "save": true}},
			{"Unknown field", map[string]any{"input": loadInput(t), "generations": 5}},
			{"Body too large", map[string]any{"input": map[string]any{"Padding": strings.Repeat("x", maxBodyBytes+1)}}},
		}

		handler := newTestHandler()
		for _, c := range cases {
			recorder, response := post(t, handler, c.body)

			assert.Equal(t, http.StatusBadRequest, recorder.Code, c.name)
			assert.False(t, response.Success, c.name)
			assert.NotEmpty(t, response.Message, c.name)
		}
	})
}
