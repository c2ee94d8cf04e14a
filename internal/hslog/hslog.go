// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hslog centralizes the slog.Backend wiring shared by every
// subsystem logger, mirroring dcrd's log.go convention of one backend, one
// named subsystem logger per package, and a rotating file writer alongside
// stdout.
package hslog

import (
	"io"
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

var (
	backendLog = slog.NewBackend(io.MultiWriter(os.Stdout))
	logRotator *rotator.Rotator
)

// InitLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory. It must be called before the
// package-level log variables are used.
func InitLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	logRotator = r
	backendLog = slog.NewBackend(io.MultiWriter(os.Stdout, logRotator))
	return nil
}

// NewSubsystemLogger returns a new leveled logger for the named subsystem,
// defaulting to info level as dcrd's subsystem loggers do.
func NewSubsystemLogger(subsystem string) slog.Logger {
	l := backendLog.Logger(subsystem)
	l.SetLevel(slog.LevelInfo)
	return l
}

// SetLogLevels sets the logging level for every subsystem logger currently
// registered. Invalid level strings are ignored, matching dcrd's
// config-time log-level parsing behavior.
func SetLogLevels(loggers map[string]slog.Logger, levelStr string) {
	level, ok := slog.LevelFromString(levelStr)
	if !ok {
		return
	}
	for _, l := range loggers {
		l.SetLevel(level)
	}
}
