package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp layout used in every log line.
const TimeLayout = "2006-01-02 15:04:05"

// Options configures New
type Options struct {
	Level string
	// File receives a plain copy of every line. Empty disables file output.
	File string
	// Console receives colored lines. Nil means stderr.
	Console zapcore.WriteSyncer
	NoColor bool
}

var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel: "35",
	zapcore.InfoLevel:  "32",
	zapcore.WarnLevel:  "33",
	zapcore.ErrorLevel: "31",
}

var (
	mu     sync.RWMutex
	global = zap.NewNop().Sugar()
)

// EncoderConfig returns the encoder config producing "[2006-01-02 15:04:05] INFO: message".
func EncoderConfig(color bool) zapcore.EncoderConfig {
	levelEncoder := func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(l.CapitalString() + ":")
	}
	if color {
		levelEncoder = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			code, ok := levelColors[l]
			if !ok {
				code = "31"
			}
			enc.AppendString("\x1b[" + code + "m" + l.CapitalString() + ":\x1b[0m")
		}
	}
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		StacktraceKey:    "",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder,
		EncodeTime:       func(t time.Time, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString("[" + t.Format(TimeLayout) + "]") },
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// New builds a logger writing to the console and, optionally, a log file.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stderr)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(EncoderConfig(!opts.NoColor)), console, level),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(EncoderConfig(false)), zapcore.AddSync(f), level))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar(), nil
}

// SetGlobal replaces the logger used by the package level helpers
func SetGlobal(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

// L returns the global logger
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Info(format string, args ...any)  { L().Infof(format, args...) }
func Warn(format string, args ...any)  { L().Warnf(format, args...) }
func Error(format string, args ...any) { L().Errorf(format, args...) }
func Debug(format string, args ...any) { L().Debugf(format, args...) }
