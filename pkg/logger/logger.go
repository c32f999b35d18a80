// Package logger is the leveled printf logger carried through the request
// context. Domain code never constructs one; it pulls the instance with
// xcontext.Logger(ctx).
package logger

import "log"

// Levels in increasing severity. SILENCE drops everything, which tests use
// to keep expected-failure noise out of the output.
const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

// stdLogger writes through the standard log package with a severity tag, so
// lines keep the process-wide timestamp prefix.
type stdLogger struct {
	level int
}

func NewLogger(level int) *stdLogger {
	if level < DEBUG || level > SILENCE {
		level = INFO
	}

	return &stdLogger{level: level}
}

func (l *stdLogger) logf(level int, tag, msg string, a ...any) {
	if level < l.level {
		return
	}

	log.Printf("["+tag+"] "+msg+"\n", a...)
}

func (l *stdLogger) Debugf(msg string, a ...any) {
	l.logf(DEBUG, "DEBUG", msg, a...)
}

func (l *stdLogger) Infof(msg string, a ...any) {
	l.logf(INFO, "INFO", msg, a...)
}

func (l *stdLogger) Warnf(msg string, a ...any) {
	l.logf(WARNING, "WARN", msg, a...)
}

func (l *stdLogger) Errorf(msg string, a ...any) {
	l.logf(ERROR, "ERROR", msg, a...)
}
