// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pulseDoc = `
output: color
nodes:
  - {id: color, op: mul, in: [base, k]}
  - {id: base, op: uniform, name: baseColor, type: color, value: [1, 0, 0, 1]}
  - {id: t, op: time}
  - {id: two, op: const, value: [2]}
  - {id: t2, op: mul, in: [t, two]}
  - {id: wave, op: sin, in: [t2]}
  - {id: one, op: const, type: float, value: [1]}
  - {id: shifted, op: add, in: [wave, one]}
  - {id: half, op: const, value: [0.5]}
  - {id: k, op: mul, in: [shifted, half]}
`

func TestDocumentBuild(t *testing.T) {
	doc, err := ParseDocument([]byte(pulseDoc))
	require.NoError(t, err)
	g, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, pulse(t).Hash(), g.Hash())
}

func TestDocumentRoundTrip(t *testing.T) {
	g, err := NewGraph(Must(Mix(
		Must(TextureSample("albedo", Must(Swizzle(Position(), "xz")))),
		Must(Construct(Color, Must(Normalize(Position())), Num(1))),
		Must(Fract(Time())),
	)))
	require.NoError(t, err)

	data, err := Encode(g)
	require.NoError(t, err)
	doc, err := ParseDocument(data)
	require.NoError(t, err)
	back, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, g.Hash(), back.Hash())
	assert.Equal(t, g.Len(), back.Len())
}

func TestDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"unknown field", "output: a\nnodes:\n  - {id: a, op: time, bogus: 1}\n"},
		{"no output", "nodes:\n  - {id: a, op: time}\n"},
		{"unknown id", "output: a\nnodes:\n  - {id: a, op: sin, in: [b]}\n"},
		{"duplicate", "output: a\nnodes:\n  - {id: a, op: time}\n  - {id: a, op: uv}\n"},
		{"cycle", "output: a\nnodes:\n  - {id: a, op: sin, in: [b]}\n  - {id: b, op: cos, in: [a]}\n"},
		{"type error", "output: a\nnodes:\n  - {id: a, op: add, in: [p, u]}\n  - {id: p, op: position}\n  - {id: u, op: uv}\n"},
		{"arity", "output: a\nnodes:\n  - {id: a, op: sin}\n"},
		{"bad op", "output: a\nnodes:\n  - {id: a, op: noise}\n"},
		{"bad value", "output: a\nnodes:\n  - {id: a, op: const, type: vec3, value: [1, 2]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.doc))
			if err != nil {
				return
			}
			_, err = doc.Build()
			assert.Error(t, err)
		})
	}
}

func TestDocumentCycleError(t *testing.T) {
	doc, err := ParseDocument([]byte("output: a\nnodes:\n  - {id: a, op: sin, in: [b]}\n  - {id: b, op: cos, in: [a]}\n"))
	require.NoError(t, err)
	_, err = doc.Build()
	assert.ErrorIs(t, err, ErrCycle)
}
