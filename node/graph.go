// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"fmt"
	"slices"
)

// UniformDecl is a named per-material input used by a graph.
type UniformDecl struct {
	Name    string
	Default Value
}

// Graph is a validated expression rooted at one output node.
// Graphs are immutable; rebinding a material slot means building a new one.
type Graph struct {
	out      *Node
	order    []*Node
	uniforms []UniformDecl
	textures []string
	storage  []string
	features Feature
	ops      uint64
}

// NewGraph validates the expression rooted at out and fixes its
// dependency order. Structurally equal sub-expressions appear once.
func NewGraph(out *Node) (*Graph, error) {
	if out == nil {
		return nil, fmt.Errorf("node: graph: %w", ErrNilInput)
	}
	g := &Graph{out: out}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*Node]int)
	seen := make(map[Hash]bool)
	uniforms := make(map[string]Value)
	textures := make(map[string]bool)
	storage := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch state[n] {
		case visiting:
			return ErrCycle
		case done:
			return nil
		}
		state[n] = visiting
		for _, in := range n.inputs {
			if in == nil {
				return fmt.Errorf("node: graph: %s: %w", n.op, ErrNilInput)
			}
			if err := visit(in); err != nil {
				return err
			}
		}
		state[n] = done

		if seen[n.hash] {
			return nil
		}
		seen[n.hash] = true
		g.order = append(g.order, n)
		g.ops |= 1 << n.op
		g.features |= n.op.Requires()

		switch n.op {
		case OpUniform:
			if prev, ok := uniforms[n.name]; ok && prev.Type != n.value.Type {
				return fmt.Errorf("%w: %q is %v and %v", ErrUniformConflict, n.name, prev.Type, n.value.Type)
			}
			if _, ok := uniforms[n.name]; !ok {
				uniforms[n.name] = n.value
			}
		case OpTextureSample:
			textures[n.name] = true
		case OpStorageRead:
			storage[n.name] = true
		}
		return nil
	}
	if err := visit(out); err != nil {
		return nil, err
	}

	for name, def := range uniforms {
		g.uniforms = append(g.uniforms, UniformDecl{Name: name, Default: def})
	}
	slices.SortFunc(g.uniforms, func(a, b UniformDecl) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	g.textures = sortedKeys(textures)
	g.storage = sortedKeys(storage)
	return g, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Output returns the root node.
func (g *Graph) Output() *Node { return g.out }

// Type returns the output type.
func (g *Graph) Type() Type { return g.out.typ }

// Hash returns the structural hash of the whole graph.
func (g *Graph) Hash() Hash { return g.out.hash }

// Nodes returns the unique nodes in dependency order: every node comes
// after all of its inputs, and the output is last.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.order) }

// Len returns the number of unique nodes.
func (g *Graph) Len() int { return len(g.order) }

// Uniforms returns the uniform inputs sorted by name.
func (g *Graph) Uniforms() []UniformDecl { return slices.Clone(g.uniforms) }

// Textures returns the sampled texture names, sorted.
func (g *Graph) Textures() []string { return slices.Clone(g.textures) }

// StorageBuffers returns the storage buffer names, sorted.
func (g *Graph) StorageBuffers() []string { return slices.Clone(g.storage) }

// Features returns the backend features the graph needs.
func (g *Graph) Features() Feature { return g.features }

// Uses reports whether any node performs op.
func (g *Graph) Uses(op Op) bool { return g.ops&(1<<op) != 0 }
