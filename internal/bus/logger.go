package bus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// LoggerAdapter routes watermill's logs to zerolog.
type LoggerAdapter struct {
	log    *zerolog.Logger
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = (*LoggerAdapter)(nil)

// NewLoggerAdapter wraps logger. A nil logger discards everything.
func NewLoggerAdapter(logger *zerolog.Logger) *LoggerAdapter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LoggerAdapter{log: logger}
}

func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.emit(a.log.Error().Err(err), msg, fields)
}

func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.emit(a.log.Info(), msg, fields)
}

func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.emit(a.log.Debug(), msg, fields)
}

// Trace is logged at zerolog's trace level, below debug.
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.emit(a.log.Trace(), msg, fields)
}

func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{log: a.log, fields: a.fields.Add(fields)}
}

func (a *LoggerAdapter) emit(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	if ev == nil {
		return
	}
	ev.Str("component", "watermill").
		Fields(map[string]interface{}(a.fields.Add(fields))).
		Msg(msg)
}
