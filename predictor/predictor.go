// Package predictor trains the exam-score model on a generated dataset and
// serves single-record predictions from a saved artifact.
package predictor

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/features"
	"github.com/YuminosukeSato/edusynth/linear"
	"github.com/YuminosukeSato/edusynth/metrics"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/preprocessing"
)

// TrainConfig controls one training run.
type TrainConfig struct {
	// TestRatio is the held-out fraction, in (0, 1).
	TestRatio float64
	// Alpha is the ridge penalty. The one-hot scenario columns are collinear
	// with the intercept, so zero only works for single-scenario data.
	Alpha float64
	// Scaler is "standard" or "minmax".
	Scaler string
	// Seed drives the train/test split.
	Seed uint64
	// ScoreMin and ScoreMax clip predictions.
	ScoreMin float64
	ScoreMax float64
}

// DefaultTrainConfig mirrors the configuration defaults.
func DefaultTrainConfig(seed uint64) TrainConfig {
	return TrainConfig{
		TestRatio: 0.2,
		Alpha:     1.0,
		Scaler:    preprocessing.ScalerStandard,
		Seed:      seed,
		ScoreMin:  0,
		ScoreMax:  100,
	}
}

// Predictor scores raw records with a fitted pipeline and regression model.
// It is read-only after construction and safe for concurrent use.
type Predictor struct {
	artifact Artifact
	pipeline *features.Pipeline
	model    *linear.LinearRegression
	logger   log.Logger
}

// Prediction is the result for one record.
type Prediction struct {
	Score           float64  `json:"predicted_score"`
	Level           string   `json:"performance_level"`
	Recommendations []string `json:"recommendations"`
	Scenario        string   `json:"scenario"`
}

// Train splits ds, fits the feature pipeline on the training part, fits a
// ridge regression and evaluates it on both parts.
func Train(ds *dataset.Dataset, cfg TrainConfig) (*Predictor, error) {
	start := time.Now()
	logger := log.GetLoggerWithName("predictor")

	if cfg.ScoreMin >= cfg.ScoreMax {
		return nil, errors.NewConfigurationError("score_range", "min must be less than max", cfg.ScoreMin)
	}
	if cfg.Alpha < 0 || math.IsNaN(cfg.Alpha) {
		return nil, errors.NewConfigurationError("training.alpha", "must not be negative", cfg.Alpha)
	}
	train, test, err := dataset.TrainTestSplit(ds, cfg.TestRatio, cfg.Seed)
	if err != nil {
		return nil, err
	}

	pipeline, err := features.NewPipeline(features.WithScaler(cfg.Scaler))
	if err != nil {
		return nil, err
	}
	Xtrain, err := pipeline.Run(train.Records, features.FitMode)
	if err != nil {
		return nil, errors.Wrap(err, "building training features")
	}
	ytrain, err := features.Targets(train.Records)
	if err != nil {
		return nil, err
	}

	lr := linear.NewLinearRegression(linear.WithAlpha(cfg.Alpha))
	if err := lr.Fit(Xtrain, ytrain); err != nil {
		return nil, err
	}

	trainReport, err := evaluate(lr, Xtrain, ytrain)
	if err != nil {
		return nil, err
	}

	Xtest, err := pipeline.Run(test.Records, features.ApplyMode)
	if err != nil {
		return nil, errors.Wrap(err, "building test features")
	}
	ytest, err := features.Targets(test.Records)
	if err != nil {
		return nil, err
	}
	testReport, err := evaluate(lr, Xtest, ytest)
	if err != nil {
		return nil, err
	}

	state, err := pipeline.State()
	if err != nil {
		return nil, err
	}
	params, err := lr.Params()
	if err != nil {
		return nil, err
	}

	p := &Predictor{
		artifact: Artifact{
			ModelType:    ModelType,
			FeatureNames: pipeline.FeatureNames(),
			Pipeline:     state,
			Model:        params,
			TrainMetrics: trainReport,
			TestMetrics:  testReport,
			DatasetID:    ds.ID,
			Seed:         cfg.Seed,
			TrainRows:    train.Len(),
			TestRows:     test.Len(),
			ScoreMin:     cfg.ScoreMin,
			ScoreMax:     cfg.ScoreMax,
			CreatedAt:    time.Now().UTC(),
		},
		pipeline: pipeline,
		model:    lr,
		logger:   logger,
	}

	logger.Info("model trained",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DatasetIDKey, ds.ID,
		log.SamplesKey, train.Len(),
		log.FeaturesKey, pipeline.NumFeatures(),
		log.R2ScoreKey, testReport.R2,
		log.RMSEKey, testReport.RMSE,
		log.MAEKey, testReport.MAE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return p, nil
}

func evaluate(lr *linear.LinearRegression, X *mat.Dense, y *mat.VecDense) (metrics.Report, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.Evaluate(y, metrics.ColumnVector(pred))
}

// FromArtifact rebuilds a predictor from a decoded artifact.
func FromArtifact(a Artifact) (*Predictor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	pipeline, err := features.NewPipelineFromState(a.Pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "restoring feature pipeline")
	}
	if got := pipeline.NumFeatures(); got != len(a.Model.Coefficients) {
		return nil, errors.NewDimensionError("predictor.FromArtifact", len(a.Model.Coefficients), got, 1)
	}
	lr, err := linear.FromParams(a.Model)
	if err != nil {
		return nil, err
	}
	return &Predictor{
		artifact: a,
		pipeline: pipeline,
		model:    lr,
		logger:   log.GetLoggerWithName("predictor"),
	}, nil
}

// Artifact returns a copy of the stored artifact.
func (p *Predictor) Artifact() Artifact {
	a := p.artifact
	a.FeatureNames = append([]string(nil), a.FeatureNames...)
	a.Model.Coefficients = append([]float64(nil), a.Model.Coefficients...)
	return a
}

// PredictScores returns clipped scores for records. Errors from the feature
// pipeline, such as a SchemaError, are returned unchanged.
func (p *Predictor) PredictScores(records []dataset.StudentRecord) ([]float64, error) {
	X, err := p.pipeline.Run(records, features.ApplyMode)
	if err != nil {
		return nil, err
	}
	raw, err := p.model.Predict(X)
	if err != nil {
		return nil, err
	}
	scores := mat.Col(nil, 0, raw)
	for i, s := range scores {
		scores[i] = errors.ClipValue(math.Round(s*10)/10, p.artifact.ScoreMin, p.artifact.ScoreMax)
	}
	return scores, nil
}

// Predict scores one record and attaches its performance level and
// recommendations.
func (p *Predictor) Predict(record dataset.StudentRecord) (Prediction, error) {
	scores, err := p.PredictScores([]dataset.StudentRecord{record})
	if err != nil {
		return Prediction{}, err
	}
	score := scores[0]
	p.logger.Debug("prediction",
		log.OperationKey, log.OperationPredict,
		log.ScenarioKey, record.Scenario.String(),
		log.PredictionKey, score,
	)
	return Prediction{
		Score:           score,
		Level:           Level(score),
		Recommendations: Recommend(record),
		Scenario:        record.Scenario.String(),
	}, nil
}
