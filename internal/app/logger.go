package app

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface for app layer
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// zapLogger adapts a zap SugaredLogger to Logger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// ParseLevel converts a level name to a zap level, defaulting to warn
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// NewLogger builds a console logger writing to output at the given level
func NewLogger(level string, output io.Writer) Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(output),
		zap.NewAtomicLevelAt(ParseLevel(level)),
	)
	return &zapLogger{sugar: zap.New(core).Sugar()}
}

// NopLogger discards everything
func NopLogger() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

// globalLogger is the logger instance used by app layer
var globalLogger = NewLogger("warn", os.Stderr)

// SetLogger sets the global logger for app layer
func SetLogger(logger Logger) {
	if logger != nil {
		globalLogger = logger
	}
}

// GetLogger returns the current logger
func GetLogger() Logger {
	return globalLogger
}
