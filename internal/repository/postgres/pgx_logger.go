package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pgxLogger adapts zerolog.Logger to pgx's tracelog interface.
type pgxLogger struct {
	logger zerolog.Logger
}

// newPgxLogger builds a child logger scoped to the pgx component so SQL noise stays filterable.
func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	l := logger.With().Str("module", "storage").Str("component", "pgx").Logger()
	return &pgxLogger{logger: l}
}

// traceLevel maps the configured zerolog level onto the most verbose tracelog
// level that would still be emitted.
func traceLevel(level zerolog.Level) tracelog.LogLevel {
	switch {
	case level <= zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case level <= zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case level <= zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case level <= zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}

// Log implements tracelog.Logger.
func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}

	var event *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Info().Str("pgx_log_level", level.String())
	}
	if !event.Enabled() {
		return
	}

	// Args are only logged at trace level.
	if s, ok := data["sql"].(string); ok {
		event = event.Str("sql", s)
		delete(data, "sql")
	}
	if d, ok := data["time"].(time.Duration); ok {
		event = event.Dur("duration", d)
		delete(data, "time")
	}
	if args, ok := data["args"]; ok && level == tracelog.LogLevelTrace {
		event = event.Interface("args", args)
	}
	delete(data, "args")

	if len(data) > 0 {
		event = event.Fields(data)
	}
	event.Msg(msg)
}
