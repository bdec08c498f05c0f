package linear

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// syntheticData は y = 1 + Σ 0.5(j+1)·x_j + 小さなノイズ を生成する
func syntheticData(rows, cols int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()*2.0 - 1.0
			X.Set(i, j, v)
			sum += v * float64(j+1) * 0.5
		}
		y.Set(i, 0, sum+(rng.Float64()-0.5)*0.01)
	}
	return X, y
}

func TestLinearRegressionExactLine(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	assert.InDelta(t, 2.0, lr.GetWeights()[0], 1e-9)
	assert.InDelta(t, 1.0, lr.GetIntercept(), 1e-9)

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 11.0, pred.At(0, 0), 1e-9)
	assert.InDelta(t, 13.0, pred.At(1, 0), 1e-9)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestLinearRegressionNoIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	assert.InDelta(t, 2.0, lr.GetWeights()[0], 1e-9)
	assert.Equal(t, 0.0, lr.GetIntercept())
}

func TestLinearRegressionRecoversWeights(t *testing.T) {
	X, y := syntheticData(1500, 4)
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	for j, w := range lr.GetWeights() {
		assert.InDelta(t, float64(j+1)*0.5, w, 0.01)
	}
	assert.InDelta(t, 1.0, lr.GetIntercept(), 0.01)
}

func TestLinearRegressionCollinear(t *testing.T) {
	// 2列が同一なので最小二乗法では特異行列になる
	X := mat.NewDense(4, 2, []float64{1, 1, 0, 0, 1, 1, 0, 0})
	y := mat.NewDense(4, 1, []float64{2, 1, 2, 1})

	err := NewLinearRegression().Fit(X, y)
	require.Error(t, err)
	var unstable *errors.NumericalInstabilityError
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix) || errors.As(err, &unstable), "got %v", err)

	ridge := NewLinearRegression(WithAlpha(0.1))
	require.NoError(t, ridge.Fit(X, y))
	w := ridge.GetWeights()
	assert.InDelta(t, w[0], w[1], 1e-9)
}

func TestLinearRegressionErrors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.Error(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, nil)))
	assert.Error(t, lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, nil)))
	assert.Error(t, NewLinearRegression(WithAlpha(-1)).Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, nil)))

	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 4})))
	_, err = lr.Predict(mat.NewDense(1, 2, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestParamsRoundTrip(t *testing.T) {
	X, y := syntheticData(200, 3)
	lr := NewLinearRegression(WithAlpha(0.5))
	require.NoError(t, lr.Fit(X, y))

	params, err := lr.Params()
	require.NoError(t, err)
	assert.Equal(t, 0.5, params.Alpha)

	restored, err := FromParams(params)
	require.NoError(t, err)

	want, err := lr.Predict(X)
	require.NoError(t, err)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))

	_, err = FromParams(Params{})
	assert.Error(t, err)
	_, err = NewLinearRegression().Params()
	assert.Error(t, err)
}

func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name       string
		rows, cols int
	}{
		{"Small_500x10", 500, 10},
		{"Medium_2000x16", 2000, 16},
		{"Large_10000x20", 10000, 20},
	}
	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := syntheticData(size.rows, size.cols)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
