// Package rtmplog threads a leveled logger handle through the publisher
// instead of relying on business logic observing a process-wide singleton
// directly. The default implementation is still backed by nazalog, the
// logging library lal uses throughout pkg/base, pkg/rtmp and every
// app/demo/* — only the global-singleton habit is dropped.
package rtmplog

import (
	"github.com/q191201771/naza/pkg/nazalog"
)

// Logger is the sink the rest of the module depends on.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})

	// Flush blocks until buffered log lines have been written out.
	Flush()
}

// Level mirrors the values accepted by the logging.log_level config key.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

func ParseLevel(s string) Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "critical":
		return LevelCritical
	case "off":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (l Level) nazaLevel() nazalog.Level {
	switch l {
	case LevelTrace:
		return nazalog.LevelTrace
	case LevelDebug:
		return nazalog.LevelDebug
	case LevelWarn:
		return nazalog.LevelWarn
	case LevelError:
		return nazalog.LevelError
	case LevelCritical:
		return nazalog.LevelFatal
	case LevelOff:
		return nazalog.LevelLogNothing
	default:
		return nazalog.LevelInfo
	}
}

// nazaLogger adapts the global nazalog logger (pkg/base/var.go's
// `var Log = nazalog.GetGlobalLogger()` pattern) to our Logger interface.
type nazaLogger struct {
	core nazalog.Logger
}

// New configures the global nazalog logger and returns a handle to it.
// filename empty means stdout-only, matching app/demo/pushrtmp's -l flag.
func New(level Level, filename string) (Logger, error) {
	if err := nazalog.Init(func(option *nazalog.Option) {
		option.Level = level.nazaLevel()
		option.Filename = filename
		option.IsToStdout = filename == ""
		option.IsRotateDaily = filename != ""
	}); err != nil {
		return nil, err
	}
	return &nazaLogger{core: nazalog.GetGlobalLogger()}, nil
}

func (l *nazaLogger) Debugf(format string, v ...interface{}) { l.core.Debugf(format, v...) }
func (l *nazaLogger) Infof(format string, v ...interface{})  { l.core.Infof(format, v...) }
func (l *nazaLogger) Warnf(format string, v ...interface{})  { l.core.Warnf(format, v...) }
func (l *nazaLogger) Errorf(format string, v ...interface{}) { l.core.Errorf(format, v...) }
func (l *nazaLogger) Flush()                                 { nazalog.Sync() }

type nop struct{}

func (nop) Debugf(string, ...interface{}) {}
func (nop) Infof(string, ...interface{})  {}
func (nop) Warnf(string, ...interface{})  {}
func (nop) Errorf(string, ...interface{}) {}
func (nop) Flush()                        {}

// Nop discards everything. Used by tests that don't care about log output.
func Nop() Logger { return nop{} }
