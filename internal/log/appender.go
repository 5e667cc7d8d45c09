package log

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type MultiWriter struct {
	writers []io.Writer
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

// Len returns the number of attached writers.
func (m *MultiWriter) Len() int {
	return len(m.writers)
}

// Close closes every writer that can be closed, except the process's
// standard streams.
func (m *MultiWriter) Close() error {
	var err error
	for _, w := range m.writers {
		if w == os.Stdout || w == os.Stderr {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			if e := c.Close(); e != nil {
				err = e
			}
		}
	}
	return err
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}

type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func (m *MultiWriter) AddFileAppender(options FileAppenderOpt) *MultiWriter {
	writer := &lumberjack.Logger{
		Filename:   options.Filename,
		MaxSize:    options.MaxSize,    // megabytes
		MaxBackups: options.MaxBackups, // number of backups
		MaxAge:     options.MaxAge,     // days
		Compress:   options.Compress,
	}
	m.writers = append(m.writers, writer)
	return m
}

// buildWriter assembles the appenders of cfg. An empty list means stdout.
func buildWriter(appenders []AppenderConfig) (*MultiWriter, error) {
	mw := NewMultiWriter()
	if len(appenders) == 0 {
		return mw.Add(os.Stdout), nil
	}
	for i, a := range appenders {
		switch a.Type {
		case "stdout", "":
			mw.Add(os.Stdout)
		case "stderr":
			mw.Add(os.Stderr)
		case "file":
			if a.File.Filename == "" {
				return nil, fmt.Errorf("appender %d: file appender requires a filename", i)
			}
			mw.AddFileAppender(a.File)
		default:
			return nil, fmt.Errorf("appender %d: unknown type %q", i, a.Type)
		}
	}
	return mw, nil
}
