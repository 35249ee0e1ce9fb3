// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the rendering context a backend provides.
//
// A Context moves through Uninitialized, Initializing, Ready and Disposed;
// a failed initialization ends in Failed and never becomes ready. Backend
// packages register a Factory for their backend.Kind from init(), and
// callers create contexts with New:
//
//	import _ "github.com/gogpu/shade/device/software"
//
//	dev, err := device.New(backend.Compatible, device.Options{Compiler: c})
//	if err != nil {
//	    return err
//	}
//	if err := dev.Init(ctx).Wait(ctx); err != nil {
//	    return err
//	}
//	defer dev.Dispose()
//
// Lifecycle implements the state machine for backend packages and
// PrepareFrame turns a scene into compiled draws.
package device
