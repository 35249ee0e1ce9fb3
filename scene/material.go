// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/shade/node"
)

// ErrSlotType is returned when a graph output does not match the slot type.
var ErrSlotType = errors.New("scene: graph type does not match slot")

// ErrUnknownSlot is returned for slots outside the material slot table.
var ErrUnknownSlot = errors.New("scene: unknown material slot")

// Slot names a programmable input of a material.
type Slot uint8

// Material slots.
const (
	// SlotColor is the surface color, evaluated per fragment.
	SlotColor Slot = iota
	// SlotPosition is the object-space vertex position, evaluated per vertex.
	SlotPosition

	slotCount
)

// Slots lists every material slot in evaluation order.
func Slots() []Slot { return []Slot{SlotPosition, SlotColor} }

func (s Slot) String() string {
	switch s {
	case SlotColor:
		return "color"
	case SlotPosition:
		return "position"
	}
	return fmt.Sprintf("Slot(%d)", uint8(s))
}

// Type returns the value type a graph bound to s must produce.
func (s Slot) Type() node.Type {
	switch s {
	case SlotColor:
		return node.Color
	case SlotPosition:
		return node.Vec3
	}
	return node.Invalid
}

// Valid reports whether s is part of the slot table.
func (s Slot) Valid() bool { return s < slotCount }

// ParseSlot converts a slot name back to a Slot.
func ParseSlot(name string) (Slot, error) {
	for s := Slot(0); s < slotCount; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// Material describes how a mesh is shaded. The zero value is usable with a
// transparent black base color; NewMaterial starts from white.
//
// Unbound slots use defaults: BaseColor for SlotColor and the undisplaced
// vertex position for SlotPosition.
type Material struct {
	Name      string
	BaseColor [4]float64

	graphs   [slotCount]*node.Graph
	uniforms map[string]node.Value
	textures map[string]*Texture
	storage  map[string]*StorageBuffer
}

// NewMaterial returns a white material with no bound slots.
func NewMaterial(name string) *Material {
	return &Material{
		Name:      name,
		BaseColor: [4]float64{1, 1, 1, 1},
		uniforms:  make(map[string]node.Value),
		textures:  make(map[string]*Texture),
		storage:   make(map[string]*StorageBuffer),
	}
}

// Bind attaches g to slot s, replacing any previous graph.
func (m *Material) Bind(s Slot, g *node.Graph) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownSlot, s)
	}
	if g == nil {
		return fmt.Errorf("scene: bind %v: nil graph", s)
	}
	if g.Type() != s.Type() {
		return fmt.Errorf("%w: %v wants %v, graph produces %v", ErrSlotType, s, s.Type(), g.Type())
	}
	m.graphs[s] = g
	return nil
}

// Unbind restores the default for s.
func (m *Material) Unbind(s Slot) {
	if s.Valid() {
		m.graphs[s] = nil
	}
}

// Graph returns the graph bound to s, or nil.
func (m *Material) Graph(s Slot) *node.Graph {
	if !s.Valid() {
		return nil
	}
	return m.graphs[s]
}

// Bound lists the slots with a graph attached.
func (m *Material) Bound() []Slot {
	var out []Slot
	for _, s := range Slots() {
		if m.graphs[s] != nil {
			out = append(out, s)
		}
	}
	return out
}

// SetUniform sets a named uniform value. Values whose type differs from the
// graph's declaration are ignored in favour of the declared default.
func (m *Material) SetUniform(name string, v node.Value) {
	if m.uniforms == nil {
		m.uniforms = make(map[string]node.Value)
	}
	m.uniforms[name] = v
}

// Uniform returns the value set for name.
func (m *Material) Uniform(name string) (node.Value, bool) {
	v, ok := m.uniforms[name]
	return v, ok
}

// UniformNames returns the names of set uniforms, sorted.
func (m *Material) UniformNames() []string {
	return slices.Sorted(maps.Keys(m.uniforms))
}

// SetTexture attaches a texture under name. A nil texture removes it.
func (m *Material) SetTexture(name string, t *Texture) {
	if t == nil {
		delete(m.textures, name)
		return
	}
	if m.textures == nil {
		m.textures = make(map[string]*Texture)
	}
	m.textures[name] = t
}

// Texture returns the texture attached under name.
func (m *Material) Texture(name string) *Texture { return m.textures[name] }

// SetStorage attaches a storage buffer under name. A nil buffer removes it.
func (m *Material) SetStorage(name string, b *StorageBuffer) {
	if b == nil {
		delete(m.storage, name)
		return
	}
	if m.storage == nil {
		m.storage = make(map[string]*StorageBuffer)
	}
	m.storage[name] = b
}

// Storage returns the storage buffer attached under name.
func (m *Material) Storage(name string) *StorageBuffer { return m.storage[name] }
