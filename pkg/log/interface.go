// Package log は edusynth 全体で使う構造化ロガーを提供する
//
// Logger は log/slog と同じ形の key/value API を持ち、実装は zerolog
// (logger.go)。テストでは TestLogger で出力を検査する。
//
//	logger := log.GetLoggerWithName("generator").With(log.RandomSeedKey, 42)
//	logger.Info("dataset generated",
//	    log.OperationKey, log.OperationGenerate,
//	    log.SamplesKey, 600,
//	)
package log

import (
	"context"
)

// Logger is a leveled key/value logger.
//
// fields alternate keys and values. Error additionally accepts a leading
// error, which the zerolog backend records with its stack trace:
//
//	logger.Error("training failed", err, log.SamplesKey, n)
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a child logger that adds fields to every entry.
	With(fields ...any) Logger

	// Enabled reports whether entries at level would be written, so callers
	// can skip building expensive fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level uses the slog numbering.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// LoggerProvider hands out component loggers. SetProvider swaps the global
// one, which is how tests and the CLI install their backend.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
