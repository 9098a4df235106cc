package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger instance. It stays nil until Init or Replace,
// and every helper below is a no-op while it is.
var Log *zap.Logger

// Init builds the JSON logger used by the API and linkctl. level accepts the
// zap level names (debug, info, warn, error); an empty level means info.
func Init(env, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: env == "development",
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		InitialFields:    map[string]any{"env": env},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := config.Build()
	if err != nil {
		return err
	}

	Replace(l)
	return nil
}

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) (restore func()) {
	prev := Log
	Log = l
	if l == nil {
		return func() { Log = prev }
	}
	undoGlobals := zap.ReplaceGlobals(l)
	return func() {
		Log = prev
		undoGlobals()
	}
}

func parseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return lvl, nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func Info(msg string, fields ...zap.Field) { emit(zapcore.InfoLevel, msg, fields) }

func Error(msg string, fields ...zap.Field) { emit(zapcore.ErrorLevel, msg, fields) }

func Warn(msg string, fields ...zap.Field) { emit(zapcore.WarnLevel, msg, fields) }

func Debug(msg string, fields ...zap.Field) { emit(zapcore.DebugLevel, msg, fields) }

// Fatal logs and exits the process.
func Fatal(msg string, fields ...zap.Field) { emit(zapcore.FatalLevel, msg, fields) }

// emit sits two frames below the caller we want reported.
func emit(lvl zapcore.Level, msg string, fields []zap.Field) {
	if Log == nil {
		return
	}
	Log.WithOptions(zap.AddCallerSkip(2)).Log(lvl, msg, fields...)
}
