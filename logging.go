// logging.go: Package logger.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"log/slog"
	"sync"
)

var (
	loggerMu sync.RWMutex
	logger   *slog.Logger
)

// SetLogger replaces the package logger. A nil logger restores slog.Default().
//
// Key material, masks and blob words are never passed to the logger.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return slog.Default().With("component", "keyblob")
	}
	return logger
}
