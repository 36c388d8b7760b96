// Package logging builds the zap logger shared by the CLI and the UI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where and how much to log.
type Options struct {
	// Path is a log file. The terminal UI owns stdout, so diagnostics go here.
	Path string
	// Stderr additionally mirrors entries to stderr (CLI commands).
	Stderr  bool
	Verbose bool
}

// New builds a production logger for opts.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = !opts.Verbose
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	config.OutputPaths = nil
	config.ErrorOutputPaths = []string{"stderr"}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure dir: %w", err)
		}
		config.OutputPaths = append(config.OutputPaths, opts.Path)
	}
	if opts.Stderr {
		config.OutputPaths = append(config.OutputPaths, "stderr")
	}
	if len(config.OutputPaths) == 0 {
		return zap.NewNop(), nil
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
