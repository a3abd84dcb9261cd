package log

import (
	stdlog "log"
	"strings"
)

type stdWriter struct {
	logger Logger
	level  Level
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\r\n")
	switch w.level {
	case DebugLevel:
		w.logger.Debug(msg)
	case WarnLevel:
		w.logger.Warn(msg)
	case ErrorLevel, FatalLevel:
		w.logger.Error(msg)
	default:
		w.logger.Info(msg)
	}
	return len(p), nil
}

// RedirectStdLog points the standard library logger at l. The returned
// function restores the previous writer and flags.
func RedirectStdLog(l Logger) func() {
	prevFlags := stdlog.Flags()
	prevPrefix := stdlog.Prefix()
	prevOut := stdlog.Writer()
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{logger: l.With(Str("source", "stdlog")), level: InfoLevel})
	return func() {
		stdlog.SetFlags(prevFlags)
		stdlog.SetPrefix(prevPrefix)
		stdlog.SetOutput(prevOut)
	}
}

// NewStdLogger returns a *log.Logger that writes through l at level.
func NewStdLogger(l Logger, level Level) *stdlog.Logger {
	return stdlog.New(stdWriter{logger: l, level: level}, "", 0)
}
