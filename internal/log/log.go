package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	mu     sync.RWMutex
	logger Logger = newDefault()
	output *MultiWriter
)

// GetLogger returns the process logger. Before Init it logs at info level
// to stdout with the default pattern.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the process logger with one built from cfg. Appenders of a
// previous Init are closed.
func Init(cfg Config) error {
	mw, err := buildWriter(cfg.Appenders)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	l, err := newLogrus(cfg, mw)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	mu.Lock()
	prev := output
	logger, output = l, mw
	mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// New builds a standalone logger writing to w.
func New(cfg Config, w io.Writer) (Logger, error) {
	return newLogrus(cfg, w)
}

func newLogrus(cfg Config, w io.Writer) (Logger, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.Level); err != nil {
			return nil, err
		}
	}
	pattern, layout := cfg.Pattern, cfg.Time
	if pattern == "" {
		pattern = DefaultPattern
	}
	if layout == "" {
		layout = DefaultTime
	}

	l := logrus.New()
	l.SetFormatter(&formatter{pattern: pattern, time: layout})
	l.SetLevel(level)
	l.SetOutput(w)
	return &logrusAdapter{entry: logrus.NewEntry(l)}, nil
}

func newDefault() Logger {
	l, _ := newLogrus(DefaultConfig(), os.Stdout)
	return l
}

type logrusAdapter struct {
	entry *logrus.Entry
}

func (l *logrusAdapter) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}
func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
func (l *logrusAdapter) IsInfoEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel)
}
