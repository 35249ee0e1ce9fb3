// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"errors"
	"fmt"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

var (
	// ErrUnsupported is returned when a graph uses an operation the target
	// backend cannot express.
	ErrUnsupported = errors.New("compiler: operation not supported by backend")

	// ErrTranslate wraps failures of the WGSL translator.
	ErrTranslate = errors.New("compiler: translation failed")

	// ErrNilGraph is returned when compiling a nil graph.
	ErrNilGraph = errors.New("compiler: nil graph")
)

// CompileError reports why one slot failed to compile.
type CompileError struct {
	Slot    scene.Slot
	Backend backend.Kind
	Op      node.Op // offending operation, OpInvalid when not op specific
	Err     error
}

func (e *CompileError) Error() string {
	if e.Op != node.OpInvalid {
		return fmt.Sprintf("compiler: %s slot on %s: %s: %v", e.Slot, e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("compiler: %s slot on %s: %v", e.Slot, e.Backend, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
