package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Rrens/identity-api/internal/config"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. The returned closer releases
// the log file, if one was opened.
func Setup(cfg config.LoggingConfig, stdout io.Writer) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var console io.Writer = stdout
	if cfg.Format == "console" {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{console}

	if cfg.File != "" {
		opts := []rotatelogs.Option{rotatelogs.WithLinkName(cfg.File)}
		if cfg.MaxAge > 0 {
			opts = append(opts, rotatelogs.WithMaxAge(cfg.MaxAge))
		}
		if cfg.RotationTime > 0 {
			opts = append(opts, rotatelogs.WithRotationTime(cfg.RotationTime))
		}

		rl, err := rotatelogs.New(cfg.File+".%Y%m%d", opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, rl)
		closer = rl
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("service", "identity-api").
		Logger()

	return closer, nil
}

// Default configures development logging before configuration is loaded
func Default() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
