// Package errors は edusynth のエラー型と警告を定義する
//
// 全ての New* コンストラクタは cockroachdb/errors でスタックトレースを付与する。
// 判定には errors.As / IsConfigurationError / IsSchemaError を使う。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Sentinel errors. Compare with Is.
var (
	ErrEmptyData      = errors.New("empty data")
	ErrSingularMatrix = errors.New("singular matrix")
)

// ConfigurationError reports an invalid or missing setting. Field is the
// dotted path of the setting, e.g. "urban_public.study_hours.stddev".
type ConfigurationError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("edusynth: invalid configuration %s: %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ConfigurationError").
		Str("field", e.Field).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

func NewConfigurationError(field, reason string, value interface{}) error {
	return errors.WithStack(&ConfigurationError{Field: field, Reason: reason, Value: value})
}

// SchemaError reports a record the pipeline cannot accept: a missing
// required field, an invalid scenario, or a scenario unseen at fit time.
// Row is 0-based, -1 when the problem is not tied to a row (e.g. a header).
type SchemaError struct {
	Row    int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("edusynth: schema violation in %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("edusynth: schema violation at row %d in %s: %s", e.Row, e.Field, e.Reason)
}

func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "SchemaError").
		Int("row", e.Row).
		Str("field", e.Field).
		Str("reason", e.Reason)
}

func NewSchemaError(row int, field, reason string) error {
	return errors.WithStack(&SchemaError{Row: row, Field: field, Reason: reason})
}

// NotFittedError は学習前に Transform や Predict を呼んだ場合のエラー
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("edusynth: %s is not fitted; call Fit before %s", e.ModelName, e.Method)
}

func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NotFittedError").
		Str("model_name", e.ModelName).
		Str("method", e.Method)
}

func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は行数または列数の不一致
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0: 行, 1: 列
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("edusynth: %s: expected %d %s, got %d", e.Op, e.Expected, e.axisName(), e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "DimensionError").
		Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("axis", e.axisName())
}

func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError is an argument with an unusable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("edusynth: %s: %s", e.Op, e.Message)
}

func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError wraps a failure inside an estimator. Kind is a short label
// such as "empty data" or "singular matrix"; Err is the cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("edusynth: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("edusynth: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// cockroachdb/errors の薄いラッパー。呼び出し側が二つのerrorsパッケージを
// import しなくて済むようにする

func Is(err, target error) bool                 { return errors.Is(err, target) }
func As(err error, target interface{}) bool     { return errors.As(err, target) }
func Wrap(err error, message string) error      { return errors.Wrap(err, message) }
func New(message string) error                  { return errors.New(message) }
func WithStack(err error) error                 { return errors.WithStack(err) }
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
