package metrics

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// checkPair は入力ベクトルの長さを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// residuals は yTrue - yPred を返す
func residuals(yTrue, yPred *mat.VecDense) []float64 {
	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return mat.Col(nil, 0, &diff)
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, d := range residuals(yTrue, yPred) {
		sum += d * d
	}
	return sum / float64(n), nil
}

// MSEMatrix は n×1 行列の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}
	return MSE(ColumnVector(yTrue), ColumnVector(yPred))
}

// ColumnVector は n×1 行列の先頭列をVecDenseとしてコピーする
func ColumnVector(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	return mat.NewVecDense(r, mat.Col(nil, 0, m))
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, d := range residuals(yTrue, yPred) {
		sum += math.Abs(d)
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
// yTrueの分散が0の場合R²は定義されないため、UndefinedMetricWarningを発行して0を返す
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	truth := mat.Col(nil, 0, yTrue)
	mean := stat.Mean(truth, nil)

	var tss, rss float64
	for i, d := range residuals(yTrue, yPred) {
		tss += (truth[i] - mean) * (truth[i] - mean)
		rss += d * d
	}

	if tss == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "yTrue has no variance", 0))
		return 0, nil
	}
	return 1 - rss/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrueが0の要素は除外する
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("MAPE", yTrue, yPred); err != nil {
		return 0, err
	}

	var sum float64
	validCount := 0
	for i, d := range residuals(yTrue, yPred) {
		if v := yTrue.AtVec(i); v != 0 {
			sum += math.Abs(d) / math.Abs(v)
			validCount++
		}
	}
	if validCount == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return (sum / float64(validCount)) * 100, nil
}

// ExplainedVarianceScore は説明分散スコア 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("ExplainedVarianceScore", yTrue, yPred); err != nil {
		return 0, err
	}

	_, varTrue := stat.PopMeanVariance(mat.Col(nil, 0, yTrue), nil)
	_, varDiff := stat.PopMeanVariance(residuals(yTrue, yPred), nil)

	if varTrue == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("ExplainedVarianceScore", "yTrue has no variance", 0))
		return 0, nil
	}
	return 1 - varDiff/varTrue, nil
}

// Report はモデル評価の指標一式
type Report struct {
	Samples           int     `json:"samples"`
	R2                float64 `json:"r2"`
	MSE               float64 `json:"mse"`
	RMSE              float64 `json:"rmse"`
	MAE               float64 `json:"mae"`
	MAPE              float64 `json:"mape"`
	ExplainedVariance float64 `json:"explained_variance"`
}

// MarshalZerologObject はzerologのイベントに指標を追加する
func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Int("samples", r.Samples).
		Float64("r2", r.R2).
		Float64("mse", r.MSE).
		Float64("rmse", r.RMSE).
		Float64("mae", r.MAE).
		Float64("mape", r.MAPE).
		Float64("explained_variance", r.ExplainedVariance)
}

// Evaluate は全ての回帰指標を計算する
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	n, err := checkPair("Evaluate", yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	r := Report{Samples: n}
	if r.R2, err = R2Score(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.MSE, err = MSE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	r.RMSE = math.Sqrt(r.MSE)
	if r.MAE, err = MAE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.MAPE, err = MAPE(yTrue, yPred); err != nil {
		// 全てのyTrueが0の場合のみ。JSONに書けるよう0とする
		r.MAPE = 0
	}
	if r.ExplainedVariance, err = ExplainedVarianceScore(yTrue, yPred); err != nil {
		return Report{}, err
	}
	return r, nil
}
