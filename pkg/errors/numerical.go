package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// NumericalInstabilityError は計算結果に NaN / Inf が現れたことを示す。
// 位置が特定できない場合 Row, Col は -1、Value には条件数などを入れる
type NumericalInstabilityError struct {
	Operation string
	Row, Col  int
	Value     float64
}

func (e *NumericalInstabilityError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("edusynth: %s is numerically unstable (%g)", e.Operation, e.Value)
	}
	return fmt.Sprintf("edusynth: %s produced %g at (%d, %d)", e.Operation, e.Value, e.Row, e.Col)
}

func NewNumericalInstabilityError(operation string, row, col int, value float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Row: row, Col: col, Value: value})
}

// CheckMatrix scans rows×cols in row-major order and reports the first
// non-finite value.
func CheckMatrix(operation string, m interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return NewNumericalInstabilityError(operation, i, j, v)
			}
		}
	}
	return nil
}

// ClipValue は value を [lo, hi] に収める
func ClipValue(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}
