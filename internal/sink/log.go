// SPDX-License-Identifier: MPL-2.0

package sink

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/weakres/weakres/pkg/conflict"
)

// LogSink writes every record as a log line. Failed resolutions are logged at warn
// level, weak matches at info and exact matches at debug.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a LogSink writing to w.
func NewLogSink(w io.Writer, level log.Level) *LogSink {
	return &LogSink{logger: log.NewWithOptions(w, log.Options{
		Prefix: "conflicts",
		Level:  level,
	})}
}

// NewLogSinkFrom wraps an existing logger, adding the "conflicts" prefix.
func NewLogSinkFrom(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithPrefix("conflicts")}
}

// OnConflict implements conflict.Subscriber.
func (s *LogSink) OnConflict(r *conflict.Record) error {
	keyvals := []any{"install_count", r.InstallCount(), "at", r.Time()}
	switch {
	case !r.Succeeded():
		s.logger.Warn(r.String(), keyvals...)
	case r.IsConflict():
		s.logger.Info(r.String(), keyvals...)
	default:
		s.logger.Debug(r.String(), keyvals...)
	}
	return nil
}
