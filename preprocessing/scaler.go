package preprocessing

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// スケーラーの種類
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// 幅がこれ未満の列は定数列とみなし scale=1 にする
const minScale = 1e-8

// Scaler は列単位のアフィン変換。学習済みパラメータを ScalerParams として書き出せる
type Scaler interface {
	model.InverseTransformer
	IsFitted() bool
	Params() (ScalerParams, error)
}

// ScalerParams は学習済みスケーラーの状態
//
//	out = (x - Offset[j]) / Scale[j] * (RangeMax - RangeMin) + RangeMin
//
// standard では RangeMin=0, RangeMax=1 として扱う。
type ScalerParams struct {
	Kind     string    `json:"kind"`
	Offset   []float64 `json:"offset"`
	Scale    []float64 `json:"scale"`
	RangeMin float64   `json:"range_min,omitempty"`
	RangeMax float64   `json:"range_max,omitempty"`
}

// NewScaler returns an unfitted scaler for kind ("standard" or "minmax").
// The empty string selects standard.
func NewScaler(kind string) (Scaler, error) {
	switch strings.ToLower(kind) {
	case "", ScalerStandard:
		return NewStandardScalerDefault(), nil
	case ScalerMinMax, "min_max":
		return NewMinMaxScalerDefault(), nil
	default:
		return nil, errors.NewConfigurationError("features.scaler", "must be 'standard' or 'minmax'", kind)
	}
}

// ScalerFromParams rebuilds a fitted scaler from exported parameters.
func ScalerFromParams(p ScalerParams) (Scaler, error) {
	if len(p.Offset) == 0 || len(p.Offset) != len(p.Scale) {
		return nil, errors.NewValueError("ScalerFromParams", "offset and scale must be non-empty and of equal length")
	}
	for j, s := range p.Scale {
		if s == 0 || math.IsNaN(s) {
			return nil, errors.NewValueError("ScalerFromParams", fmt.Sprintf("scale[%d] must be non-zero", j))
		}
	}
	offset := append([]float64(nil), p.Offset...)
	scale := append([]float64(nil), p.Scale...)

	var s Scaler
	switch p.Kind {
	case ScalerStandard:
		std := &StandardScaler{WithMean: true, WithStd: true, Mean: offset, Scale: scale, NFeatures: len(offset)}
		std.SetFitted()
		s = std
	case ScalerMinMax:
		mm := &MinMaxScaler{FeatureRange: [2]float64{p.RangeMin, p.RangeMax}, DataMin: offset, Scale: scale, NFeatures: len(offset)}
		mm.SetFitted()
		s = mm
	default:
		return nil, errors.NewValueError("ScalerFromParams", "unknown scaler kind: "+p.Kind)
	}
	return s, nil
}

// columnMap は (x - offset) / scale * width + lo を列ごとに適用する
type columnMap struct {
	name          string
	offset, scale []float64
	lo, width     float64
}

func (m columnMap) check(op string, fitted bool, X mat.Matrix) (int, int, error) {
	if !fitted {
		return 0, 0, errors.NewNotFittedError(m.name, op)
	}
	r, c := X.Dims()
	if c != len(m.offset) {
		return 0, 0, errors.NewDimensionError(m.name+"."+op, len(m.offset), c, 1)
	}
	return r, c, nil
}

func (m columnMap) forward(fitted bool, X mat.Matrix) (mat.Matrix, error) {
	r, c, err := m.check("Transform", fitted, X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v-m.offset[j])/m.scale[j]*m.width + m.lo
	}, X)
	return out, nil
}

func (m columnMap) inverse(fitted bool, X mat.Matrix) (mat.Matrix, error) {
	r, c, err := m.check("InverseTransform", fitted, X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v-m.lo)/m.width*m.scale[j] + m.offset[j]
	}, X)
	return out, nil
}

// fitColumns は各列に stats を適用し offset と scale を得る
func fitColumns(op string, X mat.Matrix, stats func(col []float64) (offset, scale float64)) ([]float64, []float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	offset := make([]float64, c)
	scale := make([]float64, c)
	col := make([]float64, r)
	for j := range offset {
		mat.Col(col, j, X)
		offset[j], scale[j] = stats(col)
		if scale[j] < minScale {
			scale[j] = 1
		}
	}
	return offset, scale, nil
}

// StandardScaler は列を平均0、母標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator
	Mean      []float64
	Scale     []float64 // 母標準偏差。定数列は1
	NFeatures int
	WithMean  bool
	WithStd   bool
}

func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{WithMean: withMean, WithStd: withStd}
}

func NewStandardScalerDefault() *StandardScaler { return NewStandardScaler(true, true) }

func (s *StandardScaler) Fit(X mat.Matrix) error {
	mean, scale, err := fitColumns("StandardScaler.Fit", X, func(col []float64) (float64, float64) {
		mu, variance := stat.PopMeanVariance(col, nil)
		if !s.WithMean {
			mu = 0
		}
		if !s.WithStd {
			return mu, 1
		}
		return mu, math.Sqrt(variance)
	})
	if err != nil {
		return err
	}
	s.Mean, s.Scale, s.NFeatures = mean, scale, len(mean)
	s.SetFitted()
	return nil
}

func (s *StandardScaler) columns() columnMap {
	return columnMap{name: "StandardScaler", offset: s.Mean, scale: s.Scale, lo: 0, width: 1}
}

func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.columns().forward(s.IsFitted(), X)
}

func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.columns().inverse(s.IsFitted(), X)
}

func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *StandardScaler) Params() (ScalerParams, error) {
	if !s.IsFitted() {
		return ScalerParams{}, errors.NewNotFittedError("StandardScaler", "Params")
	}
	return ScalerParams{
		Kind:   ScalerStandard,
		Offset: append([]float64(nil), s.Mean...),
		Scale:  append([]float64(nil), s.Scale...),
	}, nil
}

func (s *StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler maps each column linearly onto FeatureRange using the
// training minimum and maximum. Values outside the training range are not
// clipped.
type MinMaxScaler struct {
	model.BaseEstimator
	DataMin      []float64
	Scale        []float64 // max - min。定数列は1
	NFeatures    int
	FeatureRange [2]float64
}

func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: featureRange}
}

func NewMinMaxScalerDefault() *MinMaxScaler { return NewMinMaxScaler([2]float64{0, 1}) }

func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValueError("MinMaxScaler.Fit", "feature range min must be less than max")
	}
	dataMin, scale, err := fitColumns("MinMaxScaler.Fit", X, func(col []float64) (float64, float64) {
		lo := floats.Min(col)
		return lo, floats.Max(col) - lo
	})
	if err != nil {
		return err
	}
	m.DataMin, m.Scale, m.NFeatures = dataMin, scale, len(dataMin)
	m.SetFitted()
	return nil
}

func (m *MinMaxScaler) columns() columnMap {
	return columnMap{
		name:   "MinMaxScaler",
		offset: m.DataMin,
		scale:  m.Scale,
		lo:     m.FeatureRange[0],
		width:  m.FeatureRange[1] - m.FeatureRange[0],
	}
}

func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return m.columns().forward(m.IsFitted(), X)
}

func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return m.columns().inverse(m.IsFitted(), X)
}

func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

func (m *MinMaxScaler) Params() (ScalerParams, error) {
	if !m.IsFitted() {
		return ScalerParams{}, errors.NewNotFittedError("MinMaxScaler", "Params")
	}
	return ScalerParams{
		Kind:     ScalerMinMax,
		Offset:   append([]float64(nil), m.DataMin...),
		Scale:    append([]float64(nil), m.Scale...),
		RangeMin: m.FeatureRange[0],
		RangeMax: m.FeatureRange[1],
	}, nil
}

func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g], n_features=%d)", m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
