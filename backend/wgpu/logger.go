// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/shadermount"
)

// loggerPtr overrides the shadermount logger when a driver was handed one.
var loggerPtr atomic.Pointer[slog.Logger]

// slogger returns the package logger.
func slogger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return shadermount.Logger()
}

func setLogger(l *slog.Logger) { loggerPtr.Store(l) }
