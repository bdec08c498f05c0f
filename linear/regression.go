// Package linear は正規方程式による線形回帰（任意でL2正則化）を提供する
package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/core/parallel"
	"github.com/YuminosukeSato/edusynth/metrics"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// LinearRegression は線形回帰モデル
//
// Alpha > 0 の場合はリッジ回帰となり、切片以外の重みに Alpha·I を加えて解く。
// one-hot列と切片が共線になる特徴量でも解が一意に定まる。
type LinearRegression struct {
	model.BaseEstimator
	Weights      *mat.VecDense // 重み（係数）
	Intercept    float64       // 切片
	NFeatures    int           // 特徴量の数
	Alpha        float64       // L2正則化の強さ（0で通常の最小二乗法）
	FitIntercept bool          // 切片を学習するか
}

// NewLinearRegression は新しい線形回帰モデルを作成する
//
// 使用例:
//
//	lr := linear.NewLinearRegression(linear.WithAlpha(1.0))
//	err := lr.Fit(X, y)
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{FitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// (X^T X + αI) w = X^T y を解く
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if lr.Alpha < 0 || math.IsNaN(lr.Alpha) {
		return errors.NewValueError("LinearRegression.Fit", fmt.Sprintf("alpha must be non-negative, got %g", lr.Alpha))
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", X, r, c); err != nil {
		return err
	}

	// 切片項のために X に 1 の列を追加: [1, X]
	offset := 0
	if lr.FitIntercept {
		offset = 1
	}
	design := mat.NewDense(r, c+offset, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var XTX mat.Dense
	XTX.Mul(design.T(), design)
	for j := offset; j < c+offset; j++ {
		XTX.Set(j, j, XTX.At(j, j)+lr.Alpha)
	}

	yVec := metrics.ColumnVector(y)
	var XTy mat.VecDense
	XTy.MulVec(design.T(), yVec)

	weights := mat.NewVecDense(c+offset, nil)
	if err := weights.SolveVec(&XTX, &XTy); err != nil {
		cond, ok := err.(mat.Condition)
		if !ok || math.IsInf(float64(cond), 1) {
			return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
		}
		// 悪条件だが解は得られている
		errors.Warn(errors.NewNumericalInstabilityError("LinearRegression.Fit", -1, -1, float64(cond)))
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", weights, c+offset, 1); err != nil {
		return err
	}

	lr.NFeatures = c
	lr.Intercept = 0
	if offset == 1 {
		lr.Intercept = weights.AtVec(0)
	}
	lr.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.Weights.SetVec(j, weights.AtVec(j+offset))
	}

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う (n×1)
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	// y = X * weights + intercept
	pred := mat.NewVecDense(r, nil)
	pred.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		pred.SetVec(i, pred.AtVec(i)+lr.Intercept)
	}
	return pred, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(metrics.ColumnVector(y), metrics.ColumnVector(yPred))
}

// Params はJSONで保存できる学習済みパラメータ
type Params struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Alpha        float64   `json:"alpha"`
}

// Params は学習済みパラメータを返す
func (lr *LinearRegression) Params() (Params, error) {
	if !lr.IsFitted() {
		return Params{}, errors.NewNotFittedError("LinearRegression", "Params")
	}
	return Params{
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		Alpha:        lr.Alpha,
	}, nil
}

// FromParams は保存済みパラメータから学習済みモデルを復元する
func FromParams(p Params) (*LinearRegression, error) {
	if len(p.Coefficients) == 0 {
		return nil, errors.NewValueError("linear.FromParams", "coefficients must not be empty")
	}
	lr := &LinearRegression{
		Weights:      mat.NewVecDense(len(p.Coefficients), append([]float64(nil), p.Coefficients...)),
		Intercept:    p.Intercept,
		NFeatures:    len(p.Coefficients),
		Alpha:        p.Alpha,
		FitIntercept: true,
	}
	lr.SetFitted()
	return lr, nil
}

var _ model.LinearModel = (*LinearRegression)(nil)
