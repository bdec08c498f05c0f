package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// MedianImputer はNaNを学習時の列の中央値で置き換える
type MedianImputer struct {
	model.BaseEstimator

	// Medians は各列の中央値（NaNを除いて計算）
	Medians []float64

	NFeatures int

	// Columns は警告メッセージ用の列名（任意）
	Columns []string
}

// NewMedianImputer は新しいMedianImputerを作成する
func NewMedianImputer(columns ...string) *MedianImputer {
	return &MedianImputer{Columns: columns}
}

// ImputerFromMedians は保存済みの中央値から学習済みImputerを復元する
func ImputerFromMedians(medians []float64, columns ...string) (*MedianImputer, error) {
	if len(medians) == 0 {
		return nil, errors.NewValueError("ImputerFromMedians", "medians must not be empty")
	}
	for j, m := range medians {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, errors.NewValueError("ImputerFromMedians", fmt.Sprintf("median[%d] is not finite", j))
		}
	}
	imp := &MedianImputer{
		Medians:   append([]float64(nil), medians...),
		NFeatures: len(medians),
		Columns:   columns,
	}
	imp.SetFitted()
	return imp, nil
}

// Median returns the median of the non-NaN values of x.
func Median(x []float64) (float64, bool) {
	values := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	n := len(values)
	if n == 0 {
		return math.NaN(), false
	}
	sort.Float64s(values)
	med := stat.Quantile(0.5, stat.Empirical, values, nil)
	if n%2 == 0 {
		// Empiricalは下側の中央値を返すので上側と平均する
		med = (med + values[n/2]) / 2
	}
	return med, true
}

// Fit は各列の中央値を計算する
func (m *MedianImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MedianImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	m.NFeatures = c
	m.Medians = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		med, ok := Median(col)
		if !ok {
			return errors.NewValueError("MedianImputer.Fit", fmt.Sprintf("column %s has no observed values", m.columnName(j)))
		}
		m.Medians[j] = med
	}

	m.SetFitted()
	return nil
}

// Transform はNaNを中央値で埋めた新しい行列を返す
// 値を埋めた場合はDataConversionWarningを発行する
func (m *MedianImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MedianImputer", "Transform")
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MedianImputer.Transform", m.NFeatures, c, 1)
	}

	filled := make([]int, c)
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			filled[j]++
			return m.Medians[j]
		}
		return v
	}, X)

	for j, n := range filled {
		if n > 0 {
			errors.Warn(errors.NewDataConversionWarning("missing", "median",
				fmt.Sprintf("%d missing values in %s imputed with %g", n, m.columnName(j), m.Medians[j])))
		}
	}
	return result, nil
}

// FitTransform は学習と変換を同時に行う
func (m *MedianImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

func (m *MedianImputer) columnName(j int) string {
	if j < len(m.Columns) {
		return m.Columns[j]
	}
	return fmt.Sprintf("column %d", j)
}
