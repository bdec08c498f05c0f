package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/zerolog"
)

// 警告の出力先。優先順位は SetWarningHandler で設定したハンドラ、
// pkg/log が登録する zerolog 出力、標準の log パッケージの順
var (
	warningMu      sync.RWMutex
	warningHandler func(w error)
	zerologWarn    func(w error)
)

// SetWarningHandler installs a handler that receives every warning. nil
// restores the default routing.
func SetWarningHandler(handler func(w error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc is called by pkg/log at init. This package cannot import
// pkg/log without a cycle.
func SetZerologWarnFunc(fn func(w error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	zerologWarn = fn
}

// Warn reports a non-fatal condition. Processing continues.
func Warn(w error) {
	warningMu.RLock()
	handler, zl := warningHandler, zerologWarn
	warningMu.RUnlock()

	switch {
	case handler != nil:
		handler(w)
	case zl != nil:
		zl(w)
	default:
		log.Printf("edusynth warning: %v", w)
	}
}

// DataConversionWarning は値が暗黙に変換されたことを示す（欠損値の補完など）
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s: %s", w.FromType, w.ToType, w.Reason)
}

func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "DataConversionWarning").
		Str("from", w.FromType).
		Str("to", w.ToType).
		Str("reason", w.Reason)
}

func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// UndefinedMetricWarning は指標が定義できず Result で代用したことを示す
// 例: 正解値の分散が0のときの R²
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("%s is undefined (%s); returning %g", w.Metric, w.Condition, w.Result)
}

func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "UndefinedMetricWarning").
		Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result)
}

func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}
