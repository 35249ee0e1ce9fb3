// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrGeometry is returned for malformed vertex or index data.
var ErrGeometry = errors.New("scene: invalid geometry")

// VertexStride is the byte size of one interleaved vertex: position xyz
// followed by uv.
const VertexStride = 5 * 4

// Geometry is an immutable indexed triangle list.
type Geometry struct {
	positions [][3]float32
	uvs       [][2]float32
	indices   []uint32
}

// NewGeometry copies and validates vertex data. uvs is either empty or has
// one entry per position; indices form whole triangles within range.
func NewGeometry(positions [][3]float32, uvs [][2]float32, indices []uint32) (*Geometry, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrGeometry)
	}
	if len(uvs) != 0 && len(uvs) != len(positions) {
		return nil, fmt.Errorf("%w: %d uvs for %d positions", ErrGeometry, len(uvs), len(positions))
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a triangle list", ErrGeometry, len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("%w: index %d at %d out of range", ErrGeometry, idx, i)
		}
	}
	g := &Geometry{
		positions: append([][3]float32(nil), positions...),
		indices:   append([]uint32(nil), indices...),
	}
	if len(uvs) != 0 {
		g.uvs = append([][2]float32(nil), uvs...)
	} else {
		g.uvs = make([][2]float32, len(positions))
	}
	return g, nil
}

// Quad returns a size x size square in the XY plane centred on the origin,
// with uv (0,0) at the bottom left.
func Quad(size float32) *Geometry {
	h := size / 2
	g, err := NewGeometry(
		[][3]float32{{-h, -h, 0}, {h, -h, 0}, {h, h, 0}, {-h, h, 0}},
		[][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		[]uint32{0, 1, 2, 0, 2, 3},
	)
	if err != nil {
		panic(err)
	}
	return g
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int { return len(g.positions) }

// IndexCount returns the number of indices.
func (g *Geometry) IndexCount() int { return len(g.indices) }

// Position returns vertex i.
func (g *Geometry) Position(i int) [3]float32 { return g.positions[i] }

// UV returns the texture coordinate of vertex i.
func (g *Geometry) UV(i int) [2]float32 { return g.uvs[i] }

// Indices returns a copy of the index list.
func (g *Geometry) Indices() []uint32 { return append([]uint32(nil), g.indices...) }

// Triangle returns the vertex indices of triangle t.
func (g *Geometry) Triangle(t int) (a, b, c uint32) {
	return g.indices[t*3], g.indices[t*3+1], g.indices[t*3+2]
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int { return len(g.indices) / 3 }

// VertexBytes returns the interleaved little-endian vertex buffer.
func (g *Geometry) VertexBytes() []byte {
	out := make([]byte, 0, len(g.positions)*VertexStride)
	for i, p := range g.positions {
		for _, f := range [5]float32{p[0], p[1], p[2], g.uvs[i][0], g.uvs[i][1]} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

// IndexBytes returns the little-endian uint32 index buffer.
func (g *Geometry) IndexBytes() []byte {
	out := make([]byte, 0, len(g.indices)*4)
	for _, idx := range g.indices {
		out = binary.LittleEndian.AppendUint32(out, idx)
	}
	return out
}
