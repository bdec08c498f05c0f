package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/edusynth/generator"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/predictor"
	"github.com/YuminosukeSato/edusynth/scenario"
)

func testServer(t *testing.T, profiles ...scenario.Scenario) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log.Setup(log.Config{Level: log.LevelError})

	cfg := generator.DefaultConfig(42, 50)
	if len(profiles) > 0 {
		cfg.Profiles = nil
		for _, s := range profiles {
			cfg.Profiles = append(cfg.Profiles, scenario.DefaultProfile(s, 50))
		}
	}
	ds, err := generator.Generate(cfg)
	require.NoError(t, err)
	p, err := predictor.Train(ds, predictor.DefaultTrainConfig(42))
	require.NoError(t, err)

	return New(Config{Port: "0", Mode: gin.TestMode}, p)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthAndRequestID(t *testing.T) {
	s := testServer(t)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	w = do(t, s, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = do(t, s, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestScenariosEndpoint(t *testing.T) {
	s := testServer(t, scenario.UrbanPublic, scenario.ArtsCreative)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/scenarios", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Scenarios []ScenarioInfo `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Scenarios, scenario.Count())
	for _, info := range body.Scenarios {
		want := info.Key == "urban_public" || info.Key == "arts_creative"
		assert.Equal(t, want, info.Supported, info.Key)
	}
}

func TestModelEndpoint(t *testing.T) {
	s := testServer(t)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, predictor.ModelType, info.ModelType)
	assert.Len(t, info.Scenarios, scenario.Count())
	assert.Equal(t, 240, info.TrainRows)
	assert.Equal(t, 60, info.TestRows)
	assert.Contains(t, info.FeatureNames, "scenario_frequency")
}

func TestPredictJSON(t *testing.T) {
	s := testServer(t)

	w := do(t, s, jsonRequest(`{"scenario":"STEM Magnet","study_hours":5,"attendance":85,
		"previous_grade":75,"sleep_hours":6,"family_support":8,"extra_activities":2}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "stem_magnet", resp.Scenario)
	assert.GreaterOrEqual(t, resp.PredictedScore, 0.0)
	assert.LessOrEqual(t, resp.PredictedScore, 100.0)
	assert.Equal(t, predictor.Level(resp.PredictedScore), resp.Level)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
	assert.Equal(t, []string{
		"Increase study hours to 8-12 per week",
		"Improve attendance to 90%+ for better outcomes",
		"Aim for 7-8 hours of sleep per night",
	}, resp.Recommendations)
}

func TestPredictForm(t *testing.T) {
	s := testServer(t)

	form := url.Values{
		"scenario":       {"rural_community"},
		"study_hours":    {"10"},
		"attendance":     {"92"},
		"previous_grade": {"70"},
		"family_support": {"7"},
	}
	w := do(t, s, formRequest(form))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rural_community", resp.Scenario)
}

func TestPredictUnprocessable(t *testing.T) {
	tests := []struct {
		name  string
		req   *http.Request
		field string
	}{
		{"missing attendance", jsonRequest(`{"scenario":"urban_public","study_hours":5,"previous_grade":60,"family_support":5}`), "attendance"},
		{"unknown scenario", jsonRequest(`{"scenario":"boarding","study_hours":5,"attendance":80,"previous_grade":60,"family_support":5}`), "scenario"},
		{"malformed json", jsonRequest(`{"scenario":`), "body"},
		{"infinite sleep hours", formRequest(url.Values{
			"scenario":       {"urban_public"},
			"study_hours":    {"5"},
			"attendance":     {"80"},
			"previous_grade": {"60"},
			"family_support": {"5"},
			"sleep_hours":    {"Inf"},
		}), "sleep_hours"},
	}
	s := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.req)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, log.ErrorSchema, resp.Error.Code)
			assert.Equal(t, tt.field, resp.Error.Field)
		})
	}
}

func TestPredictUnseenScenario(t *testing.T) {
	s := testServer(t, scenario.UrbanPublic, scenario.ArtsCreative)

	w := do(t, s, jsonRequest(`{"scenario":"international","study_hours":5,"attendance":80,"previous_grade":60,"family_support":5}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := testServer(t)
	s.config.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
