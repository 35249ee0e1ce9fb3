// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"math"
)

// Hash is the structural hash of a node and everything it depends on.
type Hash [16]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Short returns the first 8 hex digits, for labels and logs.
func (h Hash) Short() string { return hex.EncodeToString(h[:4]) }

// Node is one immutable shading operation. Create nodes with the
// constructor functions; the zero Node is not usable.
type Node struct {
	op     Op
	typ    Type
	inputs []*Node
	value  Value  // OpConst value, OpUniform default
	name   string // uniform, texture or storage name; swizzle pattern
	hash   Hash
}

// Op returns the operation kind.
func (n *Node) Op() Op { return n.op }

// Type returns the output type.
func (n *Node) Type() Type { return n.typ }

// Inputs returns a copy of the input edges.
func (n *Node) Inputs() []*Node { return append([]*Node(nil), n.inputs...) }

// Input returns input i.
func (n *Node) Input(i int) *Node { return n.inputs[i] }

// NumInputs returns the number of input edges.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Value returns the constant of an OpConst node or the default of an
// OpUniform node.
func (n *Node) Value() Value { return n.value }

// Name returns the resource or uniform name, or the swizzle pattern.
func (n *Node) Name() string { return n.name }

// Hash returns the structural hash.
func (n *Node) Hash() Hash { return n.hash }

func newNode(op Op, typ Type, value Value, name string, inputs ...*Node) *Node {
	n := &Node{op: op, typ: typ, inputs: inputs, value: value, name: name}
	n.hash = n.computeHash()
	return n
}

func (n *Node) computeHash() Hash {
	h := fnv.New128a()
	var buf [8]byte

	_, _ = h.Write([]byte{byte(n.op), byte(n.typ), byte(len(n.inputs))})
	binary.LittleEndian.PutUint64(buf[:], uint64(len(n.name)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(n.name))
	if n.op == OpConst || n.op == OpUniform {
		_, _ = h.Write([]byte{byte(n.value.Type)})
		for _, f := range n.value.V {
			if f == 0 {
				f = 0 // fold -0
			}
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
			_, _ = h.Write(buf[:])
		}
	}
	for _, in := range n.inputs {
		_, _ = h.Write(in.hash[:])
	}

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Must returns n or panics on err. Use it for graphs whose types are known
// to be valid when written.
func Must(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}

func checkNil(inputs ...*Node) error {
	for _, in := range inputs {
		if in == nil {
			return ErrNilInput
		}
	}
	return nil
}

func validName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	// Generated identifiers use these prefixes.
	return !hasPrefix(s, "v_") && !hasPrefix(s, "u_") && !hasPrefix(s, "__")
}

func hasPrefix(s, p string) bool { return len(s) >= len(p) && s[:len(p)] == p }
