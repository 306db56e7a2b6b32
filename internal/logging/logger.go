// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging holds the process-wide logger. Components that want their
// own sink (tests, mostly) accept a *log.Logger and fall back to L.
package logging

import (
	"fmt"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Callers should use the helper functions
// below for compatibility with existing calls.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Level:           clog.WarnLevel,
})

// Or returns l when it is non-nil and L otherwise.
func Or(l *clog.Logger) *clog.Logger {
	if l != nil {
		return l
	}
	return L
}

// LevelForVerbosity maps the number of -v flags to a log level.
func LevelForVerbosity(v int) clog.Level {
	switch {
	case v >= 2:
		return clog.DebugLevel
	case v == 1:
		return clog.InfoLevel
	default:
		return clog.WarnLevel
	}
}

// SetVerbosity sets the level of L from a -v count.
func SetVerbosity(v int) {
	L.SetLevel(LevelForVerbosity(v))
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}
