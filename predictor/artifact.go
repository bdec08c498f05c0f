package predictor

import (
	"io"
	"time"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/features"
	"github.com/YuminosukeSato/edusynth/linear"
	"github.com/YuminosukeSato/edusynth/metrics"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
)

// ModelType identifies the estimator stored in an Artifact.
const ModelType = "ridge_regression"

// Artifact is everything needed to score a raw record after training.
// It is plain data and is stored as JSON.
type Artifact struct {
	ModelType    string         `json:"model_type"`
	FeatureNames []string       `json:"feature_names"`
	Pipeline     features.State `json:"pipeline"`
	Model        linear.Params  `json:"model"`
	TrainMetrics metrics.Report `json:"train_metrics"`
	TestMetrics  metrics.Report `json:"test_metrics"`
	DatasetID    string         `json:"dataset_id"`
	Seed         uint64         `json:"seed"`
	TrainRows    int            `json:"train_rows"`
	TestRows     int            `json:"test_rows"`
	ScoreMin     float64        `json:"score_min"`
	ScoreMax     float64        `json:"score_max"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks that the artifact can be turned into a Predictor.
func (a Artifact) Validate() error {
	if a.ModelType != ModelType {
		return errors.NewValueError("Artifact.Validate", "unsupported model type "+a.ModelType)
	}
	if len(a.FeatureNames) == 0 || len(a.FeatureNames) != len(a.Model.Coefficients) {
		return errors.NewDimensionError("Artifact.Validate", len(a.FeatureNames), len(a.Model.Coefficients), 1)
	}
	if a.ScoreMin >= a.ScoreMax {
		return errors.NewValueError("Artifact.Validate", "score_min must be less than score_max")
	}
	return nil
}

// Save writes the predictor's artifact to path.
func (p *Predictor) Save(path string) error {
	if err := model.SaveJSON(path, p.artifact); err != nil {
		return errors.Wrapf(err, "save artifact %s", path)
	}
	p.logger.Info("artifact saved", log.PathKey, path)
	return nil
}

// Load reads an artifact from path and rebuilds the predictor.
func Load(path string) (*Predictor, error) {
	var a Artifact
	if err := model.LoadJSON(path, &a); err != nil {
		return nil, errors.Wrapf(err, "load artifact %s", path)
	}
	return FromArtifact(a)
}

// LoadFrom reads an artifact from r.
func LoadFrom(r io.Reader) (*Predictor, error) {
	var a Artifact
	if err := model.LoadJSONFromReader(r, &a); err != nil {
		return nil, errors.Wrap(err, "decode artifact")
	}
	return FromArtifact(a)
}

// WriteArtifact writes the artifact as JSON to w.
func (p *Predictor) WriteArtifact(w io.Writer) error {
	return model.SaveJSONToWriter(w, p.artifact)
}
