package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewConfigurationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		reason  string
		value   interface{}
		wantMsg string
	}{
		{
			name:    "non-positive sample count",
			field:   "scenarios[0].samples",
			reason:  "must be positive",
			value:   0,
			wantMsg: "edusynth: invalid configuration scenarios[0].samples: must be positive (got 0)",
		},
		{
			name:    "negative standard deviation",
			field:   "study_hours.stddev",
			reason:  "must not be negative",
			value:   -1.5,
			wantMsg: "edusynth: invalid configuration study_hours.stddev: must not be negative (got -1.5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError(tt.field, tt.reason, tt.value)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var cfgErr *ConfigurationError
			if !As(err, &cfgErr) {
				t.Fatal("Error should be castable to *ConfigurationError")
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %v, want %v", cfgErr.Field, tt.field)
			}
			if !IsConfigurationError(Wrap(err, "load config")) {
				t.Error("IsConfigurationError should see through wrapping")
			}
		})
	}
}

func TestNewSchemaError(t *testing.T) {
	tests := []struct {
		name    string
		row     int
		field   string
		reason  string
		wantMsg string
	}{
		{
			name:    "with row",
			row:     3,
			field:   "study_hours",
			reason:  "required field is missing",
			wantMsg: "edusynth: schema violation at row 3 in study_hours: required field is missing",
		},
		{
			name:    "without row",
			row:     -1,
			field:   "scenario",
			reason:  "unknown column",
			wantMsg: "edusynth: schema violation in scenario: unknown column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSchemaError(tt.row, tt.field, tt.reason)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}
			if !IsSchemaError(err) {
				t.Error("Error should be detected as SchemaError")
			}
			if IsConfigurationError(err) {
				t.Error("SchemaError must not be a ConfigurationError")
			}
		})
	}
}

func TestNewModelError(t *testing.T) {
	err := NewModelError("Fit", "invalid input", fmt.Errorf("test error"))

	want := "edusynth: Fit: invalid input: test error"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var modelErr *ModelError
	if !As(err, &modelErr) {
		t.Error("Error should be castable to *ModelError")
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Transform", 6, 4, 1)

	want := "edusynth: Transform: expected 6 features, got 4"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Pipeline", "Transform")

	want := "edusynth: Pipeline is not fitted; call Fit before Transform"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Fit", 10, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Fit: expected 10, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestWarnUsesHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewDataConversionWarning("missing", "median", "sleep_hours imputed"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "sleep_hours imputed") {
		t.Errorf("unexpected warning: %v", got[0])
	}
}

func TestWarnHandlerTakesPrecedence(t *testing.T) {
	var viaZerolog, viaHandler int
	SetZerologWarnFunc(func(error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("R2Score", "yTrue has no variance", 0))
	if viaZerolog != 1 {
		t.Fatalf("zerolog sink called %d times, want 1", viaZerolog)
	}

	SetWarningHandler(func(error) { viaHandler++ })
	defer SetWarningHandler(nil)
	Warn(NewUndefinedMetricWarning("R2Score", "yTrue has no variance", 0))
	if viaHandler != 1 || viaZerolog != 1 {
		t.Errorf("handler=%d zerolog=%d, want 1 and 1", viaHandler, viaZerolog)
	}
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := CheckMatrix("test", ok, 2, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := mat.NewDense(2, 2, []float64{1, 2, math.NaN(), 4})
	err := CheckMatrix("test", bad, 2, 2)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Row != 1 || numErr.Col != 0 {
		t.Errorf("got position (%d, %d), want (1, 0)", numErr.Row, numErr.Col)
	}
}

func TestClipValue(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{-5, 0, 100, 0},
		{105.2, 0, 100, 100},
		{42.5, 0, 100, 42.5},
	}
	for _, tt := range tests {
		if got := ClipValue(tt.value, tt.min, tt.max); got != tt.want {
			t.Errorf("ClipValue(%v, %v, %v) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		if err := SafeExecute("op", func() error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("function error", func(t *testing.T) {
		original := fmt.Errorf("function error")
		if err := SafeExecute("op", func() error { return original }); err != original {
			t.Fatalf("expected original error, got %v", err)
		}
	})

	t.Run("panic", func(t *testing.T) {
		err := SafeExecute("predict", func() error { panic("boom") })

		var panicErr *PanicError
		if !As(err, &panicErr) {
			t.Fatalf("expected PanicError, got %T", err)
		}
		if panicErr.Error() != "panic in predict: boom" {
			t.Errorf("unexpected message: %s", panicErr.Error())
		}
		if panicErr.StackTrace == "" {
			t.Error("expected non-empty stack trace")
		}
	})
}

func TestRecoverWithExistingError(t *testing.T) {
	original := New("original error")
	fn := func() (err error) {
		defer Recover(&err, "op")
		err = original
		panic("after error")
	}

	err := fn()
	if !Is(err, original) {
		t.Error("wrapped error should still match the original")
	}
	if !strings.Contains(err.Error(), "panic in op") {
		t.Errorf("missing panic info: %v", err)
	}
}
