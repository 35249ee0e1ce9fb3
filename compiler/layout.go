// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/shade/node"
)

// Bind groups of generated programs. Group 0 holds the per-frame block and
// is shared by both stages; each stage owns one group for its own resources
// so a vertex and a fragment program combine into one pipeline.
const (
	GroupFrame    = 0
	GroupVertex   = 1
	GroupFragment = 2
)

// Bindings inside a stage group. Textures take two consecutive bindings
// (texture, sampler) starting at BindingFirstResource, storage buffers
// follow the textures.
const (
	BindingParams        = 0
	BindingFirstResource = 1
)

// FrameSize is the byte size of the per-frame uniform block:
// view_proj mat4x4<f32> followed by time f32, padded to 16 bytes.
const FrameSize = 80

// BindingKind classifies a resource binding.
type BindingKind uint8

// Binding kinds.
const (
	BindUniform BindingKind = iota
	BindTexture
	BindSampler
	BindStorage
)

func (k BindingKind) String() string {
	switch k {
	case BindTexture:
		return "texture"
	case BindSampler:
		return "sampler"
	case BindStorage:
		return "storage"
	}
	return "uniform"
}

// Binding describes one resource the program reads in its stage group.
type Binding struct {
	Binding uint32
	Kind    BindingKind
	Name    string // resource name from the graph; "params" for the uniform block
}

// UniformField places one graph uniform inside the params block.
type UniformField struct {
	Name    string
	Type    node.Type
	Offset  int
	Default node.Value
}

// Layout is the resource interface of a program.
type Layout struct {
	Group      uint32
	Fields     []UniformField
	ParamsSize int
	Textures   []string
	Storage    []string
	Bindings   []Binding
}

func alignOf(t node.Type) int {
	switch t {
	case node.Float:
		return 4
	case node.Vec2:
		return 8
	}
	return 16
}

func sizeOf(t node.Type) int { return 4 * t.Components() }

func roundUp(n, a int) int { return (n + a - 1) / a * a }

// GroupOf returns the bind group a stage's resources live in.
func GroupOf(stage Stage) uint32 {
	if stage == StageVertex {
		return GroupVertex
	}
	return GroupFragment
}

func newLayout(g *node.Graph, stage Stage) *Layout {
	l := &Layout{
		Group:    GroupOf(stage),
		Textures: g.Textures(),
		Storage:  g.StorageBuffers(),
	}
	off := 0
	for _, u := range g.Uniforms() {
		off = roundUp(off, alignOf(u.Default.Type))
		l.Fields = append(l.Fields, UniformField{Name: u.Name, Type: u.Default.Type, Offset: off, Default: u.Default})
		off += sizeOf(u.Default.Type)
	}
	if len(l.Fields) > 0 {
		l.ParamsSize = roundUp(off, 16)
	}

	if l.ParamsSize > 0 {
		l.Bindings = append(l.Bindings, Binding{Binding: BindingParams, Kind: BindUniform, Name: "params"})
	}
	next := uint32(BindingFirstResource)
	for _, t := range l.Textures {
		l.Bindings = append(l.Bindings,
			Binding{Binding: next, Kind: BindTexture, Name: t},
			Binding{Binding: next + 1, Kind: BindSampler, Name: t})
		next += 2
	}
	for _, s := range l.Storage {
		l.Bindings = append(l.Bindings, Binding{Binding: next, Kind: BindStorage, Name: s})
		next++
	}
	return l
}

// Resolve returns the value a material supplies for f, or its default when
// the material sets nothing or a value of another type.
func (f UniformField) Resolve(res Resources) node.Value {
	if res != nil {
		if v, ok := res.Uniform(f.Name); ok && v.Type == f.Type {
			return v
		}
	}
	return f.Default
}

// PackParams encodes the params block for res. It returns nil when the
// program declares no uniforms.
func (l *Layout) PackParams(res Resources) []byte {
	if l.ParamsSize == 0 {
		return nil
	}
	buf := make([]byte, l.ParamsSize)
	for _, f := range l.Fields {
		v := f.Resolve(res)
		for i := range f.Type.Components() {
			binary.LittleEndian.PutUint32(buf[f.Offset+4*i:], math.Float32bits(float32(v.V[i])))
		}
	}
	return buf
}

// PackFrame encodes the per-frame uniform block.
func PackFrame(viewProj [16]float32, time float32) []byte {
	buf := make([]byte, FrameSize)
	for i, f := range viewProj {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(time))
	return buf
}
