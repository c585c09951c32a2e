package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	Stdout = "stdout"
	Stderr = "stderr"

	logFileMode = 0o600
	logDirMode  = 0o700
)

type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// OutputPaths accepts "stdout", "stderr" or file paths; files are appended to.
	OutputPaths []string
}

func DefaultConfig() Config {
	return Config{
		Level:       "info",
		OutputPaths: []string{Stderr},
	}
}

// New builds a logger writing to every configured output. The returned
// closer releases any opened log files.
func New(cfg Config) (*zap.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{Stderr}
	}

	files := closers{}
	cores := make([]zapcore.Core, 0, len(paths))
	for _, path := range paths {
		sink, file, err := openSink(path)
		if err != nil {
			_ = files.Close()
			return nil, nil, err
		}
		if file != nil {
			files = append(files, file)
		}

		encoder := newEncoder(cfg.Development && file == nil)
		cores = append(cores, zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level)))
	}

	options := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.Development {
		options = append(options, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(zapcore.NewTee(cores...), options...), files, nil
}

func openSink(path string) (zapcore.WriteSyncer, *os.File, error) {
	switch path {
	case Stdout:
		return zapcore.Lock(os.Stdout), nil, nil
	case Stderr:
		return zapcore.Lock(os.Stderr), nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), logDirMode); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return zapcore.Lock(file), file, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}

	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return l, nil
}

func LevelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

func newEncoder(console bool) zapcore.Encoder {
	if console {
		return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
	}

	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
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
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

type closers []*os.File

func (c closers) Close() error {
	var errs []error
	for _, file := range c {
		if err := file.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
