package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"stock-data-service/src/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Logger is the printf-style application logger shared by every component.
// Components prefix their messages with their own name ("%s : ...").
type Logger struct {
	Name  string
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// -----------------------------------------------------------------------------

// NewLogger builds the application logger from the logger section of the config.
// An invalid level falls back to info, an unusable output falls back to stdout.
func NewLogger(config *config.Config, name string) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if lvl, err := ParseLevel(config.Logger.Level); err == nil {
		level.SetLevel(lvl)
	}

	writer := outputWriter(config.Logger.Output, config.Logger.MaxAge, config.Logger.MaxSize)
	return newLogger(name, level, config.Logger.Format, writer)
}

// -----------------------------------------------------------------------------

// NewNopLogger returns a logger that discards everything, used by tests.
func NewNopLogger() *Logger {
	return &Logger{
		Name:  "nop",
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
		sugar: zap.NewNop().Sugar(),
	}
}

// -----------------------------------------------------------------------------

func newLogger(name string, level zap.AtomicLevel, format string, writer io.Writer) *Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), level)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named(name)

	return &Logger{
		Name:  name,
		level: level,
		sugar: base.Sugar(),
	}
}

// -----------------------------------------------------------------------------

func outputWriter(output string, maxAge, maxSize int) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	if maxSize <= 0 {
		maxSize = 100
	}
	return &lumberjack.Logger{
		Filename: output,
		MaxAge:   maxAge,
		MaxSize:  maxSize,
		Compress: true,
	}
}

// -----------------------------------------------------------------------------

// ParseLevel maps the configured level names onto zap levels.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warning", "warn":
		return zapcore.WarnLevel, nil
	case "error", "critical":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level '%s'", level)
	}
}

// -----------------------------------------------------------------------------

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// -----------------------------------------------------------------------------

// Named returns a child logger sharing level and output. Components prefix
// their own name in messages, the zap logger name stays the root one.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Name:  name,
		level: l.level,
		sugar: l.sugar,
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warning(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Critical logs at error level and tags the entry so alerting can pick it up.
func (l *Logger) Critical(format string, args ...any) {
	l.sugar.Errorw(fmt.Sprintf(format, args...), "critical", true)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
