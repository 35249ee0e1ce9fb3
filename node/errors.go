// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"errors"
	"fmt"
)

var (
	// ErrNilInput is returned when a constructor receives a nil node.
	ErrNilInput = errors.New("node: nil input")

	// ErrName is returned for uniform, texture and storage names that are
	// not plain identifiers.
	ErrName = errors.New("node: invalid name")

	// ErrCycle is returned when a graph document references itself.
	ErrCycle = errors.New("node: cycle in graph")

	// ErrUniformConflict is returned when one uniform name is used with two types.
	ErrUniformConflict = errors.New("node: uniform declared with conflicting types")
)

// TypeError reports an input whose type does not fit the operation.
// It is returned by the constructor, before any compilation happens.
type TypeError struct {
	Op   Op
	Arg  int // zero-based input index
	Want string
	Got  Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("node: %s: input %d: want %s, got %s", e.Op, e.Arg, e.Want, e.Got)
}
