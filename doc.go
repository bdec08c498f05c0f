// Package edusynth generates scenario-based synthetic student datasets and
// trains an exam-score predictor on them.
//
// Six school scenarios (Elite Private, Urban Public, Rural Community, STEM
// Magnet, Arts Creative, International) each carry a statistical profile.
// The generator samples records from those profiles with seeded PCG streams,
// so a seed and a configuration always produce the same dataset.
//
// # Quick Start
//
//	cfg := generator.DefaultConfig(42, 100)
//	ds, err := generator.Generate(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := predictor.Train(ds, predictor.DefaultTrainConfig(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := p.Predict(ds.Records[0])
//
// # Packages
//
//   - scenario: scenario enumeration and generation profiles
//   - generator: seeded synthetic record generation
//   - dataset: records, CSV interchange, manifests, train/test split
//   - features: feature construction pipeline with fit and apply modes
//   - preprocessing: scalers, median imputer, one-hot and frequency encoders
//   - linear: least squares and ridge regression
//   - metrics: regression metrics (R², MSE, RMSE, MAE, MAPE)
//   - predictor: training, artifacts, performance levels, recommendations
//   - report: per-scenario statistics and charts
//   - server: HTTP prediction service
//   - config: YAML and environment configuration
//   - core/model, core/parallel: estimator base types and row parallelism
//   - pkg/errors, pkg/log: error types and structured logging
//
// The edusynth command wires these together:
//
//	edusynth --config configs/edusynth.yaml generate
//	edusynth --config configs/edusynth.yaml train
//	edusynth --config configs/edusynth.yaml serve
package edusynth
