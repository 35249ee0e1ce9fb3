// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene holds the data a device context reads when it submits a
// frame: meshes, lights, one active camera, and the materials whose slots
// carry shading graphs.
//
// The caller owns and mutates a Scene between ticks. Device contexts only
// read it while SubmitFrame runs; nothing here is synchronized.
package scene
