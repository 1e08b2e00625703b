package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"poker-ledger/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	sinkMu sync.RWMutex
	sink   io.Writer = os.Stdout
)

// Init installs the global zerolog logger. Safe to call more than once; the
// last call wins.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		w, err := newRotatingWriter(cfg.File, cfg.MaxMB, cfg.MaxBackups)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.File).Msg("open log file failed; using stdout")
		} else {
			out = io.MultiWriter(os.Stdout, w)
		}
	}
	setWriter(out)

	var output io.Writer = out
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the raw sink behind the global logger, for libraries that
// bring their own encoder.
func Writer() io.Writer {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sink
}

func setWriter(w io.Writer) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = w
}
