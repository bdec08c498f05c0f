// Package log defines standard attribute keys for edusynth operations.
//
// Using these keys keeps generator, pipeline, training and server logs
// consistent so a run can be followed end to end. Keys follow a
// hierarchical naming convention (e.g. "data.samples", "ml.operation").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator or transformer.
	// Examples: "LinearRegression", "StandardScaler", "Pipeline"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: see the Operation* constants below.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "generator", "features", "server"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the workflow.
	PhaseKey = "ml.phase"

	// ModeKey records the feature pipeline mode ("fit" or "apply").
	ModeKey = "pipeline.mode"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ScenarioKey identifies a school scenario by key, e.g. "stem_magnet".
	ScenarioKey = "data.scenario"

	// ScenariosKey records how many scenarios take part in an operation.
	ScenariosKey = "data.scenarios"

	// FieldKey names a record field, e.g. "sleep_hours".
	FieldKey = "data.field"

	// DatasetIDKey is the deterministic identifier of a generated dataset.
	DatasetIDKey = "data.dataset_id"

	// PathKey is a file system path read or written by the operation.
	PathKey = "io.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// MSEKey records the mean squared error.
	MSEKey = "metrics.mse"

	// RMSEKey records the root mean squared error.
	RMSEKey = "metrics.rmse"

	// MAEKey records the mean absolute error.
	MAEKey = "metrics.mae"
)

// Prediction and HTTP Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// PredictionKey records a single predicted exam score.
	PredictionKey = "preds.value"

	// RequestIDKey carries the request identifier assigned by the server.
	RequestIDKey = "http.request_id"

	// RouteKey is the matched HTTP route.
	RouteKey = "http.route"

	// StatusKey is the HTTP response status code.
	StatusKey = "http.status"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated when an error is passed as the first field.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigPathKey records which configuration file was loaded.
	ConfigPathKey = "config.path"
)

// Standard attribute value constants for common operations.
const (
	OperationGenerate     = "generate"
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationReport       = "report"

	PhaseGeneration    = "generation"
	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidConfig     = "INVALID_CONFIG"
	ErrorSchema            = "SCHEMA_VIOLATION"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
