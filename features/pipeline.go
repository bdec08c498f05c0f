// Package features turns student records into a numeric feature matrix.
//
// A Pipeline runs in one of two modes. In fit mode it learns imputation
// medians, scaler parameters and the scenario vocabulary from the records it
// is given. In apply mode it uses only that frozen state, so the feature
// vector of a row depends on nothing but the row itself and the state.
//
// Column order:
//
//	study_hours, attendance, previous_grade, sleep_hours, family_support,
//	extra_activities                      scaled raw fields
//	study_hours_x_family_support,
//	attendance_x_previous_grade,
//	study_hours_x_attendance              products of raw (imputed) fields
//	scenario_<key>...                     one-hot, scenarios seen at fit
//	scenario_frequency                    share of fit rows in the scenario
package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/core/parallel"
	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/preprocessing"
	"github.com/YuminosukeSato/edusynth/scenario"
)

// Mode selects whether Run learns state or only applies it.
type Mode int

const (
	FitMode Mode = iota
	ApplyMode
)

func (m Mode) String() string {
	switch m {
	case FitMode:
		return "fit"
	case ApplyMode:
		return "apply"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// RawColumns are the scaled input fields, in matrix order.
var RawColumns = []string{
	dataset.ColStudyHours,
	dataset.ColAttendance,
	dataset.ColPreviousGrade,
	dataset.ColSleepHours,
	dataset.ColFamilySupport,
	dataset.ColExtraActivities,
}

// OptionalColumns may be missing and are imputed with fit-time medians.
var OptionalColumns = []string{dataset.ColSleepHours, dataset.ColExtraActivities}

// InteractionColumns are the pairwise products, in matrix order.
var InteractionColumns = []string{
	"study_hours_x_family_support",
	"attendance_x_previous_grade",
	"study_hours_x_attendance",
}

// FrequencyColumn is the last column of the matrix.
const FrequencyColumn = "scenario_frequency"

const parallelThreshold = 2000

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScaler selects "standard" (default) or "minmax" scaling.
func WithScaler(kind string) Option {
	return func(p *Pipeline) {
		p.scalerKind = kind
	}
}

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// Pipeline is the feature construction pipeline.
type Pipeline struct {
	model.BaseEstimator

	scalerKind string
	logger     log.Logger

	imputer *preprocessing.MedianImputer
	scaler  preprocessing.Scaler
	onehot  *preprocessing.OneHotEncoder
	freq    *preprocessing.FrequencyEncoder
	fitRows int
}

// NewPipeline returns an unfitted pipeline.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		scalerKind: preprocessing.ScalerStandard,
		logger:     log.GetLoggerWithName("features"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if _, err := preprocessing.NewScaler(p.scalerKind); err != nil {
		return nil, err
	}
	return p, nil
}

// Run fits (FitMode) or reuses (ApplyMode) the pipeline state and returns
// the feature matrix of records.
func (p *Pipeline) Run(records []dataset.StudentRecord, mode Mode) (*mat.Dense, error) {
	switch mode {
	case FitMode:
		return p.FitTransform(records)
	case ApplyMode:
		return p.Transform(records)
	}
	return nil, errors.NewValueError("Pipeline.Run", "unknown mode "+mode.String())
}

// FitTransform fits on records and returns their feature matrix.
func (p *Pipeline) FitTransform(records []dataset.StudentRecord) (*mat.Dense, error) {
	if err := p.Fit(records); err != nil {
		return nil, err
	}
	return p.Transform(records)
}

// Fit learns medians, scaler parameters and scenario statistics. Any
// previous state is replaced.
func (p *Pipeline) Fit(records []dataset.StudentRecord) error {
	if len(records) == 0 {
		return errors.NewModelError("Pipeline.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := ValidateRecords(records); err != nil {
		return err
	}

	imputer := preprocessing.NewMedianImputer(OptionalColumns...)
	if err := imputer.Fit(optionalMatrix(records)); err != nil {
		return errors.Wrap(err, "fitting imputer")
	}
	raw, err := imputedRaw(records, imputer)
	if err != nil {
		return err
	}

	scaler, err := preprocessing.NewScaler(p.scalerKind)
	if err != nil {
		return err
	}
	if err := scaler.Fit(raw); err != nil {
		return errors.Wrap(err, "fitting scaler")
	}

	labels := scenarioLabels(records)
	onehot := preprocessing.NewOneHotEncoder()
	if err := onehot.Fit(labels); err != nil {
		return err
	}
	freq := preprocessing.NewFrequencyEncoder()
	if err := freq.Fit(labels); err != nil {
		return err
	}

	p.imputer, p.scaler, p.onehot, p.freq = imputer, scaler, onehot, freq
	p.fitRows = len(records)
	p.SetFitted()

	p.logger.Info("feature pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(records),
		log.FeaturesKey, p.NumFeatures(),
		log.ScenariosKey, p.scenarioKeys(),
	)
	return nil
}

// Transform applies the frozen state to records. It never changes the state,
// so repeated calls on the same records return identical matrices.
func (p *Pipeline) Transform(records []dataset.StudentRecord) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	if len(records) == 0 {
		return nil, errors.NewModelError("Pipeline.Transform", "empty data", errors.ErrEmptyData)
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	labels := scenarioLabels(records)
	onehot, err := p.onehot.Transform(labels)
	if err != nil {
		return nil, unseenScenario(err)
	}
	freq, err := p.freq.Transform(labels)
	if err != nil {
		return nil, unseenScenario(err)
	}

	raw, err := imputedRaw(records, p.imputer)
	if err != nil {
		return nil, err
	}
	scaled, err := p.scaler.Transform(raw)
	if err != nil {
		return nil, errors.Wrap(err, "scaling raw fields")
	}

	nRaw := len(RawColumns)
	nInter := len(InteractionColumns)
	nCat := len(p.onehot.Categories)
	n := len(records)
	out := mat.NewDense(n, p.NumFeatures(), nil)

	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < nRaw; j++ {
				out.Set(i, j, scaled.At(i, j))
			}
			study, attendance := raw.At(i, 0), raw.At(i, 1)
			previous, family := raw.At(i, 2), raw.At(i, 4)
			out.Set(i, nRaw, study*family)
			out.Set(i, nRaw+1, attendance*previous)
			out.Set(i, nRaw+2, study*attendance)
			for j := 0; j < nCat; j++ {
				out.Set(i, nRaw+nInter+j, onehot.At(i, j))
			}
			out.Set(i, nRaw+nInter+nCat, freq[i])
		}
	})

	p.logger.Debug("features constructed",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, n,
		log.FeaturesKey, p.NumFeatures(),
	)
	return out, nil
}

// NumFeatures returns the number of matrix columns, or 0 before Fit.
func (p *Pipeline) NumFeatures() int {
	if !p.IsFitted() {
		return 0
	}
	return len(RawColumns) + len(InteractionColumns) + len(p.onehot.Categories) + 1
}

// FeatureNames returns the column names of the matrix in order. Before Fit
// it returns nil because the one-hot columns are not known yet.
func (p *Pipeline) FeatureNames() []string {
	if !p.IsFitted() {
		return nil
	}
	names := make([]string, 0, p.NumFeatures())
	names = append(names, RawColumns...)
	names = append(names, InteractionColumns...)
	for _, key := range p.scenarioKeys() {
		names = append(names, "scenario_"+key)
	}
	return append(names, FrequencyColumn)
}

// Scenarios returns the scenarios seen during fit, in enumeration order.
func (p *Pipeline) Scenarios() []scenario.Scenario {
	if !p.IsFitted() {
		return nil
	}
	out := make([]scenario.Scenario, len(p.onehot.Categories))
	for i, c := range p.onehot.Categories {
		out[i] = scenario.Scenario(c)
	}
	return out
}

func (p *Pipeline) scenarioKeys() []string {
	scenarios := p.Scenarios()
	keys := make([]string, len(scenarios))
	for i, s := range scenarios {
		keys[i] = s.String()
	}
	return keys
}

// Targets returns the exam_score column as a vector. A missing score is a
// SchemaError.
func Targets(records []dataset.StudentRecord) (*mat.VecDense, error) {
	if len(records) == 0 {
		return nil, errors.NewModelError("Targets", "empty data", errors.ErrEmptyData)
	}
	y := mat.NewVecDense(len(records), nil)
	for i, r := range records {
		if math.IsNaN(r.ExamScore) {
			return nil, errors.NewSchemaError(i, dataset.ColExamScore, "required field is missing")
		}
		y.SetVec(i, r.ExamScore)
	}
	return y, nil
}

// ValidateRecords checks that every record has a valid scenario and all
// required numeric fields.
func ValidateRecords(records []dataset.StudentRecord) error {
	for i, r := range records {
		if !r.Scenario.Valid() {
			return errors.NewSchemaError(i, dataset.ColScenario, fmt.Sprintf("invalid scenario value %d", int(r.Scenario)))
		}
		for _, col := range dataset.RequiredColumns[1:] {
			v, _ := r.Value(col)
			if math.IsNaN(v) {
				return errors.NewSchemaError(i, col, "required field is missing")
			}
			if math.IsInf(v, 0) {
				return errors.NewSchemaError(i, col, "value is not finite")
			}
		}
		// 欠損(NaN)は補完できるが Inf は補完されずに特徴量へ流れる
		for _, col := range OptionalColumns {
			if v, _ := r.Value(col); math.IsInf(v, 0) {
				return errors.NewSchemaError(i, col, "value is not finite")
			}
		}
	}
	return nil
}

func unseenScenario(err error) error {
	var unknown *preprocessing.UnknownCategoryError
	if errors.As(err, &unknown) {
		return errors.NewSchemaError(unknown.Row, dataset.ColScenario,
			fmt.Sprintf("scenario %q was not seen during fit", scenario.Scenario(unknown.Value)))
	}
	return err
}

func scenarioLabels(records []dataset.StudentRecord) []int {
	labels := make([]int, len(records))
	for i, r := range records {
		labels[i] = int(r.Scenario)
	}
	return labels
}

// optionalMatrix returns the optional columns, NaN where missing.
func optionalMatrix(records []dataset.StudentRecord) *mat.Dense {
	m := mat.NewDense(len(records), len(OptionalColumns), nil)
	for i, r := range records {
		for j, col := range OptionalColumns {
			v, _ := r.Value(col)
			m.Set(i, j, v)
		}
	}
	return m
}

// imputedRaw returns the raw field matrix with optional fields imputed.
func imputedRaw(records []dataset.StudentRecord, imputer *preprocessing.MedianImputer) (*mat.Dense, error) {
	filled, err := imputer.Transform(optionalMatrix(records))
	if err != nil {
		return nil, errors.Wrap(err, "imputing optional fields")
	}
	raw := mat.NewDense(len(records), len(RawColumns), nil)
	for i, r := range records {
		raw.Set(i, 0, r.StudyHours)
		raw.Set(i, 1, r.Attendance)
		raw.Set(i, 2, r.PreviousGrade)
		raw.Set(i, 3, filled.At(i, 0))
		raw.Set(i, 4, r.FamilySupport)
		raw.Set(i, 5, filled.At(i, 1))
	}
	return raw, nil
}
