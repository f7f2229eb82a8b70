package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"burn-casino/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stdout
	file   *rotatingWriter
)

// Init installs the global zerolog logger described by cfg. When cfg.File is
// set, records go to stdout and the rotating file.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var sink io.Writer = os.Stdout
	var fw *rotatingWriter
	if cfg.File != "" {
		w, err := newRotatingWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			return err
		}
		fw = w
		sink = io.MultiWriter(os.Stdout, w)
	}

	var console io.Writer = sink
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: sink}
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(console).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger

	mu.Lock()
	if file != nil {
		_ = file.Close()
	}
	file = fw
	output = sink
	mu.Unlock()
	return nil
}

// Writer is the raw sink behind the global logger, for slog-based request
// logging that should land in the same place.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	output = os.Stdout
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}
