package kvstore

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// badgerLogger routes badger's printf-style logging into zerolog. Badger logs
// every table and memtable event at info level, so those stay off unless
// verbose is set.
type badgerLogger struct {
	verbose bool
}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	log.Debug().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	log.Trace().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}
