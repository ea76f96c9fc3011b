package wikidata

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the minimal structured logging interface the client uses for
// retry and failure diagnostics. Key/value pairs alternate in keysAndValues.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SimpleLogger writes leveled, key=value formatted lines to stderr.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a console logger suitable for development.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.New(os.Stderr, "wikidata ", log.LstdFlags),
	}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.print("DEBUG", msg, keysAndValues...)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.print("INFO", msg, keysAndValues...)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.print("WARN", msg, keysAndValues...)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.print("ERROR", msg, keysAndValues...)
}

func (l *SimpleLogger) print(level, msg string, keysAndValues ...interface{}) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 == 1 {
		fmt.Fprintf(&b, " %v=?", keysAndValues[len(keysAndValues)-1])
	}
	l.logger.Println(b.String())
}
