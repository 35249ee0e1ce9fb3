// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import (
	"log/slog"

	"github.com/gogpu/shade/internal/logging"
)

// SetLogger configures the logger for shade and all its sub-packages.
// By default, shade produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by shade:
//   - [slog.LevelDebug]: compile and cache details, viewport applications
//   - [slog.LevelInfo]: lifecycle events (backend selected, device ready)
//   - [slog.LevelWarn]: fallback programs, probe failures, frame errors
//
// Example:
//
//	shade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) { logging.SetLogger(l) }

// Logger returns the current logger used by shade.
func Logger() *slog.Logger { return logging.Logger() }
