package utils

import (
	"fmt"
	"log"
	"os"
)

// Logger writes info lines to stdout and error lines to stderr. Each line
// carries the call site of the caller, not of this package.
type Logger struct {
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewLogger() *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLog:  log.New(os.Stdout, "INFO: ", flags),
		errorLog: log.New(os.Stderr, "ERROR: ", flags),
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Fatal logs to the error stream and exits the process.
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
