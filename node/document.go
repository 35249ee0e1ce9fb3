// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a graph:
//
//	output: color
//	nodes:
//	  - {id: base, op: uniform, name: baseColor, type: color, value: [1, 0, 0, 1]}
//	  - {id: t, op: time}
//	  - {id: two, op: const, type: float, value: [2]}
//	  - {id: t2, op: mul, in: [t, two]}
//	  ...
//
// Nodes may appear in any order; references are resolved by id. Every node
// is rebuilt through Apply, so documents get the same type checks as code.
type Document struct {
	Output string    `yaml:"output"`
	Nodes  []DocNode `yaml:"nodes"`
}

// DocNode is one node entry of a Document.
type DocNode struct {
	ID    string    `yaml:"id"`
	Op    string    `yaml:"op"`
	Type  string    `yaml:"type,omitempty"`
	Value []float64 `yaml:"value,omitempty,flow"`
	Name  string    `yaml:"name,omitempty"`
	In    []string  `yaml:"in,omitempty,flow"`
}

// ParseDocument decodes a YAML graph document. Unknown fields are errors.
func ParseDocument(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("node: empty document")
		}
		return nil, fmt.Errorf("node: decode document: %w", err)
	}
	return &doc, nil
}

// Build resolves the document into a Graph.
func (d *Document) Build() (*Graph, error) {
	byID := make(map[string]*DocNode, len(d.Nodes))
	for i := range d.Nodes {
		dn := &d.Nodes[i]
		if dn.ID == "" {
			return nil, fmt.Errorf("node: document: entry %d has no id", i)
		}
		if _, dup := byID[dn.ID]; dup {
			return nil, fmt.Errorf("node: document: duplicate id %q", dn.ID)
		}
		byID[dn.ID] = dn
	}

	built := make(map[string]*Node, len(d.Nodes))
	resolving := make(map[string]bool)

	var resolve func(id string) (*Node, error)
	resolve = func(id string) (*Node, error) {
		if n, ok := built[id]; ok {
			return n, nil
		}
		dn, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("node: document: unknown id %q", id)
		}
		if resolving[id] {
			return nil, fmt.Errorf("%w: through %q", ErrCycle, id)
		}
		resolving[id] = true
		defer delete(resolving, id)

		inputs := make([]*Node, 0, len(dn.In))
		for _, ref := range dn.In {
			in, err := resolve(ref)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
		n, err := dn.apply(inputs)
		if err != nil {
			return nil, fmt.Errorf("node: document: %q: %w", id, err)
		}
		built[id] = n
		return n, nil
	}

	if d.Output == "" {
		return nil, errors.New("node: document: no output")
	}
	out, err := resolve(d.Output)
	if err != nil {
		return nil, err
	}
	return NewGraph(out)
}

func (dn *DocNode) apply(inputs []*Node) (*Node, error) {
	op, err := ParseOp(dn.Op)
	if err != nil {
		return nil, err
	}
	attrs := Attrs{Name: dn.Name}
	if dn.Type != "" {
		t, err := ParseType(dn.Type)
		if err != nil {
			return nil, err
		}
		attrs.Type = t
	}
	if op == OpConst || op == OpUniform {
		t := attrs.Type
		if t == Invalid {
			t = vectorOf(len(dn.Value))
		}
		v, err := ValueOf(t, dn.Value)
		if err != nil {
			return nil, err
		}
		attrs.Value = v
	}
	return Apply(op, attrs, inputs...)
}

// Encode writes g as a YAML document. Ids are assigned in dependency order.
func Encode(g *Graph) ([]byte, error) {
	ids := make(map[Hash]string, g.Len())
	doc := Document{Nodes: make([]DocNode, 0, g.Len())}
	for i, n := range g.order {
		id := "n" + strconv.Itoa(i)
		ids[n.hash] = id
		dn := DocNode{ID: id, Op: n.op.String()}
		switch n.op {
		case OpConst, OpUniform:
			dn.Type = n.value.Type.String()
			dn.Value = n.value.Lanes()
		case OpConstruct:
			dn.Type = n.typ.String()
		}
		if n.op == OpUniform || n.op == OpSwizzle || n.op == OpTextureSample || n.op == OpStorageRead {
			dn.Name = n.name
		}
		for _, in := range n.inputs {
			dn.In = append(dn.In, ids[in.hash])
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	doc.Output = ids[g.out.hash]

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("node: encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("node: encode document: %w", err)
	}
	return buf.Bytes(), nil
}
