// Package ubiftlog provides the logging sink used throughout the ubift
// core. The core never reaches for process-global logging state: every
// layer accepts a Logger through its configuration instead.
package ubiftlog

import (
	"fmt"
	"io"
	"log"
)

// Logger is the sink every core package logs through. Implementations
// only need to render a formatted line somewhere; ubift never inspects
// the result.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stdLogger backs Logger with the standard library's log.Logger, the
// same primitive the rest of the corpus reaches for, just without the
// package-level singleton.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes prefixed lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{l: log.New(w, "", log.LstdFlags)}
}

func (s *stdLogger) Infof(format string, args ...interface{}) {
	s.l.Printf("[+] "+format, args...)
}

func (s *stdLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("[-] "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("[!] "+format, args...)
}

// Discard silently drops every message. Useful for tests and for callers
// that only care about returned errors.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Errorf(string, ...interface{}) {}

// Sprint is a small helper for building the occasional one-off message
// without pulling in fmt at every call site.
func Sprint(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
