// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command shadec compiles and evaluates shading graph documents.
//
//	shadec compile pulse.yaml --backend capable --emit wgsl
//	shadec eval pulse.yaml --time 0.5 --uv 0.25,0.75
//	shadec probe
//
// compile --watch recompiles whenever the document changes.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
