// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compiler turns shading graphs into backend programs.
//
// Compiling a graph for a material slot and backend kind produces a
// Program holding the generated WGSL, the backend artifact (SPIR-V words
// for Capable, GLSL ES 3.00 for Compatible) and an executable kernel that
// evaluates the graph on the CPU with the backend's arithmetic precision.
//
// Programs are cached by Key, the graph's structural hash together with
// the backend and slot, so compiling an equal graph twice returns the same
// *Program. Concurrent requests for one key share a single compilation.
//
// A slot that fails to compile does not fail its material:
// CompileMaterial substitutes a diagnostic program (flat magenta for
// color, the undisplaced position for position) and reports the error.
package compiler
