// Package logger provides the diagnostic logging capability injected into the
// pipeline components. The -quiet flag swaps the stream implementation for the
// no-op one at startup, so no component ever consults a global verbosity flag.
package logger

import (
	"io"
	"log"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

func New(w io.Writer) Logger {
	return &streamLogger{l: log.New(w, "", log.LstdFlags)}
}

func Nop() Logger {
	return nopLogger{}
}

type streamLogger struct {
	l *log.Logger
}

func (s *streamLogger) Infof(format string, args ...interface{}) {
	s.l.Printf(format, args...)
}

func (s *streamLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("WARN: "+format, args...)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}
