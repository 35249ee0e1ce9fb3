// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"fmt"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

// Key identifies a compiled program.
type Key struct {
	Hash    node.Hash
	Backend backend.Kind
	Slot    scene.Slot
}

// String returns a file-name safe form of k.
func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s", k.Hash, k.Backend, k.Slot)
}

// Stage is the pipeline stage a program runs in.
type Stage uint8

// Pipeline stages.
const (
	StageFragment Stage = iota
	StageVertex
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// EntryPoint returns the generated entry point name for s.
func (s Stage) EntryPoint() string {
	if s == StageVertex {
		return "vs_main"
	}
	return "fs_main"
}

// StageOf returns the stage that evaluates slot.
func StageOf(slot scene.Slot) Stage {
	if slot == scene.SlotPosition {
		return StageVertex
	}
	return StageFragment
}
