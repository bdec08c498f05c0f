package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// UnknownCategoryError は学習時に存在しなかったカテゴリを変換しようとした場合のエラー
type UnknownCategoryError struct {
	Row   int
	Value int
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("row %d: category %d was not seen during fit", e.Row, e.Value)
}

// OneHotEncoder は整数カテゴリを0/1の列に展開する
// 列の順序はカテゴリ値の昇順
type OneHotEncoder struct {
	model.BaseEstimator

	Categories []int
	index      map[int]int
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// OneHotFromCategories は保存済みのカテゴリ一覧から学習済みエンコーダを復元する
func OneHotFromCategories(categories []int) (*OneHotEncoder, error) {
	if len(categories) == 0 {
		return nil, errors.NewValueError("OneHotFromCategories", "categories must not be empty")
	}
	e := &OneHotEncoder{}
	e.setCategories(categories)
	if len(e.Categories) != len(categories) {
		return nil, errors.NewValueError("OneHotFromCategories", "categories must be unique")
	}
	e.SetFitted()
	return e, nil
}

func (e *OneHotEncoder) setCategories(values []int) {
	e.index = make(map[int]int)
	e.Categories = e.Categories[:0]
	for _, v := range values {
		if _, ok := e.index[v]; !ok {
			e.index[v] = 0
			e.Categories = append(e.Categories, v)
		}
	}
	sort.Ints(e.Categories)
	for i, v := range e.Categories {
		e.index[v] = i
	}
}

// Fit は出現したカテゴリを記録する
func (e *OneHotEncoder) Fit(labels []int) error {
	if len(labels) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	e.setCategories(labels)
	e.SetFitted()
	return nil
}

// Index は値の列位置を返す
func (e *OneHotEncoder) Index(label int) (int, bool) {
	i, ok := e.index[label]
	return i, ok
}

// Transform は len(labels) × len(Categories) の0/1行列を返す
func (e *OneHotEncoder) Transform(labels []int) (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(labels) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	out := mat.NewDense(len(labels), len(e.Categories), nil)
	for i, v := range labels {
		j, ok := e.index[v]
		if !ok {
			return nil, errors.WithStack(&UnknownCategoryError{Row: i, Value: v})
		}
		out.Set(i, j, 1)
	}
	return out, nil
}

// FrequencyEncoder はカテゴリを学習データ中の出現割合に置き換える
type FrequencyEncoder struct {
	model.BaseEstimator

	Frequencies map[int]float64
}

// NewFrequencyEncoder は新しいFrequencyEncoderを作成する
func NewFrequencyEncoder() *FrequencyEncoder {
	return &FrequencyEncoder{}
}

// FrequencyFromMap は保存済みの出現割合から学習済みエンコーダを復元する
func FrequencyFromMap(freq map[int]float64) (*FrequencyEncoder, error) {
	if len(freq) == 0 {
		return nil, errors.NewValueError("FrequencyFromMap", "frequencies must not be empty")
	}
	e := &FrequencyEncoder{Frequencies: make(map[int]float64, len(freq))}
	for k, v := range freq {
		if v < 0 || v > 1 {
			return nil, errors.NewValueError("FrequencyFromMap", fmt.Sprintf("frequency of %d must be in [0, 1]", k))
		}
		e.Frequencies[k] = v
	}
	e.SetFitted()
	return e, nil
}

// Fit は各カテゴリの出現割合を計算する
func (e *FrequencyEncoder) Fit(labels []int) error {
	if len(labels) == 0 {
		return errors.NewModelError("FrequencyEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	counts := make(map[int]int)
	for _, v := range labels {
		counts[v]++
	}
	e.Frequencies = make(map[int]float64, len(counts))
	n := float64(len(labels))
	for k, c := range counts {
		e.Frequencies[k] = float64(c) / n
	}
	e.SetFitted()
	return nil
}

// Transform は各ラベルの出現割合を返す
func (e *FrequencyEncoder) Transform(labels []int) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("FrequencyEncoder", "Transform")
	}
	out := make([]float64, len(labels))
	for i, v := range labels {
		f, ok := e.Frequencies[v]
		if !ok {
			return nil, errors.WithStack(&UnknownCategoryError{Row: i, Value: v})
		}
		out[i] = f
	}
	return out, nil
}
