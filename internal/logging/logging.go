package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/localnerve/aphrodite/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
	DefaultCompress   = true

	timeFormat = "2006-01-02 15:04:05"
)

// Apply sets the global log level and replaces log.Logger with one writing to the
// console and, when cfg.File is set, a rotating file. The returned closer releases the file.
func Apply(cfg config.LogConfig) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger, closer, err := New(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	log.Logger = logger
	return closer, nil
}

// New builds a logger writing to out and, optionally, to cfg.File.
func New(cfg config.LogConfig, out io.Writer) (zerolog.Logger, io.Closer, error) {
	console := formatWriter(cfg.Format, out, false)

	if cfg.File == "" {
		return zerolog.New(console).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := ensureLogDir(cfg.File); err != nil {
		return zerolog.Logger{}, nil, err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}

	multi := zerolog.MultiLevelWriter(console, formatWriter(cfg.Format, fileWriter, true))
	return zerolog.New(multi).With().Timestamp().Logger(), fileWriter, nil
}

func formatWriter(format string, out io.Writer, noColor bool) io.Writer {
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat, NoColor: noColor}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
