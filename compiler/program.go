// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

// Program is the compiled form of one graph for one slot and backend.
// Programs are immutable and shared through the compiler cache.
type Program struct {
	Key        Key
	Stage      Stage
	EntryPoint string
	WGSL       string
	Artifact   Artifact
	Layout     *Layout
	Kernel     Kernel

	// Fallback marks diagnostic programs substituted for failed slots.
	Fallback bool
}

// Eval runs the program kernel.
func (p *Program) Eval(in *Inputs) [4]float64 { return p.Kernel.Eval(in) }

// MaterialPrograms holds the programs of every slot of one material.
type MaterialPrograms struct {
	Material *scene.Material
	Backend  backend.Kind
	programs [2]*Program
}

// Program returns the program compiled for slot.
func (mp *MaterialPrograms) Program(slot scene.Slot) *Program {
	if int(slot) >= len(mp.programs) {
		return nil
	}
	return mp.programs[slot]
}

// Color returns the fragment program.
func (mp *MaterialPrograms) Color() *Program { return mp.programs[scene.SlotColor] }

// Position returns the vertex program.
func (mp *MaterialPrograms) Position() *Program { return mp.programs[scene.SlotPosition] }

// HasFallback reports whether any slot uses a diagnostic program.
func (mp *MaterialPrograms) HasFallback() bool {
	for _, p := range mp.programs {
		if p != nil && p.Fallback {
			return true
		}
	}
	return false
}

// Magenta is the diagnostic color of failed color slots.
var Magenta = [4]float64{1, 0, 1, 1}

// SlotGraph returns the graph m uses for slot: the bound graph, or the
// default (BaseColor, undisplaced position) when nothing is bound.
func SlotGraph(m *scene.Material, slot scene.Slot) *node.Graph {
	if g := m.Graph(slot); g != nil {
		return g
	}
	if slot == scene.SlotColor {
		c := m.BaseColor
		return mustGraph(node.RGBA(c[0], c[1], c[2], c[3]))
	}
	return mustGraph(node.Position())
}

func fallbackGraph(slot scene.Slot) *node.Graph {
	if slot == scene.SlotColor {
		return mustGraph(node.RGBA(Magenta[0], Magenta[1], Magenta[2], Magenta[3]))
	}
	return mustGraph(node.Position())
}

func mustGraph(out *node.Node) *node.Graph {
	g, err := node.NewGraph(out)
	if err != nil {
		panic(err)
	}
	return g
}
