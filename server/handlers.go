package server

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/metrics"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/predictor"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// PredictRequest is the body of POST /api/v1/predict, as JSON or as a form.
// Absent numeric fields are treated as missing.
type PredictRequest struct {
	Scenario        string   `json:"scenario" form:"scenario"`
	StudyHours      *float64 `json:"study_hours" form:"study_hours"`
	Attendance      *float64 `json:"attendance" form:"attendance"`
	PreviousGrade   *float64 `json:"previous_grade" form:"previous_grade"`
	SleepHours      *float64 `json:"sleep_hours" form:"sleep_hours"`
	FamilySupport   *float64 `json:"family_support" form:"family_support"`
	ExtraActivities *float64 `json:"extra_activities" form:"extra_activities"`
}

// Record converts the request into a StudentRecord.
func (r PredictRequest) Record() (dataset.StudentRecord, error) {
	s, err := scenario.Parse(r.Scenario)
	if err != nil {
		return dataset.StudentRecord{}, errors.NewSchemaError(0, dataset.ColScenario, "unknown scenario "+r.Scenario)
	}
	value := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	return dataset.StudentRecord{
		Scenario:        s,
		StudyHours:      value(r.StudyHours),
		Attendance:      value(r.Attendance),
		PreviousGrade:   value(r.PreviousGrade),
		SleepHours:      value(r.SleepHours),
		FamilySupport:   value(r.FamilySupport),
		ExtraActivities: value(r.ExtraActivities),
		ExamScore:       math.NaN(),
	}, nil
}

// PredictResponse is returned by POST /api/v1/predict.
type PredictResponse struct {
	RequestID       string   `json:"request_id"`
	Scenario        string   `json:"scenario"`
	PredictedScore  float64  `json:"predicted_score"`
	Level           string   `json:"performance_level"`
	Recommendations []string `json:"recommendations"`
}

// ScenarioInfo is one entry of GET /api/v1/scenarios.
type ScenarioInfo struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	// Supported reports whether the loaded model saw the scenario in training.
	Supported bool `json:"supported"`
}

// ModelInfo is returned by GET /api/v1/model.
type ModelInfo struct {
	ModelType    string         `json:"model_type"`
	DatasetID    string         `json:"dataset_id"`
	FeatureNames []string       `json:"feature_names"`
	Scenarios    []string       `json:"scenarios"`
	TrainRows    int            `json:"train_rows"`
	TestRows     int            `json:"test_rows"`
	TestMetrics  metrics.Report `json:"test_metrics"`
	ScoreMin     float64        `json:"score_min"`
	ScoreMax     float64        `json:"score_max"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) scenarios(c *gin.Context) {
	trained := make(map[string]bool)
	for _, key := range s.predictor.Artifact().Pipeline.Scenarios {
		trained[key] = true
	}
	out := make([]ScenarioInfo, 0, scenario.Count())
	for _, sc := range scenario.All() {
		out = append(out, ScenarioInfo{
			Key:         sc.String(),
			DisplayName: sc.DisplayName(),
			Supported:   trained[sc.String()],
		})
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}

func (s *Server) model(c *gin.Context) {
	a := s.predictor.Artifact()
	c.JSON(http.StatusOK, ModelInfo{
		ModelType:    a.ModelType,
		DatasetID:    a.DatasetID,
		FeatureNames: a.FeatureNames,
		Scenarios:    a.Pipeline.Scenarios,
		TrainRows:    a.TrainRows,
		TestRows:     a.TestRows,
		TestMetrics:  a.TestMetrics,
		ScoreMin:     a.ScoreMin,
		ScoreMax:     a.ScoreMax,
		CreatedAt:    a.CreatedAt,
	})
}

func (s *Server) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBind(&req); err != nil {
		s.handleError(c, errors.NewSchemaError(0, "body", "malformed request: "+err.Error()))
		return
	}
	record, err := req.Record()
	if err != nil {
		s.handleError(c, err)
		return
	}
	var pred predictor.Prediction
	err = errors.SafeExecute("predict", func() (err error) {
		pred, err = s.predictor.Predict(record)
		return err
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.logger.Info("prediction served",
		log.RequestIDKey, requestID(c),
		log.OperationKey, log.OperationPredict,
		log.ScenarioKey, pred.Scenario,
		log.PredictionKey, pred.Score,
	)
	c.JSON(http.StatusOK, PredictResponse{
		RequestID:       requestID(c),
		Scenario:        pred.Scenario,
		PredictedScore:  pred.Score,
		Level:           pred.Level,
		Recommendations: pred.Recommendations,
	})
}
