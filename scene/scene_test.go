// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/node"
)

func TestMaterialBindChecksSlotType(t *testing.T) {
	m := NewMaterial("m")
	assert.Equal(t, [4]float64{1, 1, 1, 1}, m.BaseColor)

	color, err := node.NewGraph(node.RGBA(1, 0, 0, 1))
	require.NoError(t, err)
	scalar, err := node.NewGraph(node.Num(1))
	require.NoError(t, err)
	offset, err := node.NewGraph(node.Position())
	require.NoError(t, err)

	require.NoError(t, m.Bind(SlotColor, color))
	require.ErrorIs(t, m.Bind(SlotColor, scalar), ErrSlotType)
	require.ErrorIs(t, m.Bind(SlotColor, offset), ErrSlotType)
	require.NoError(t, m.Bind(SlotPosition, offset))
	require.ErrorIs(t, m.Bind(Slot(9), color), ErrUnknownSlot)

	assert.Same(t, color, m.Graph(SlotColor))
	assert.Equal(t, []Slot{SlotPosition, SlotColor}, m.Bound())

	m.Unbind(SlotPosition)
	assert.Nil(t, m.Graph(SlotPosition))
	assert.Equal(t, []Slot{SlotColor}, m.Bound())
}

func TestZeroMaterialSetters(t *testing.T) {
	var m Material
	_, ok := m.Uniform("gain")
	assert.False(t, ok)
	assert.Nil(t, m.Texture("albedo"))
	assert.Nil(t, m.Storage("weights"))

	m.SetUniform("gain", node.Scalar(2))
	v, ok := m.Uniform("gain")
	require.True(t, ok)
	assert.Equal(t, node.Scalar(2), v)
	assert.Equal(t, []string{"gain"}, m.UniformNames())

	tex, err := NewTexture(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	m.SetTexture("albedo", tex)
	assert.Same(t, tex, m.Texture("albedo"))

	buf, err := NewStorageBuffer([]float32{1, 2})
	require.NoError(t, err)
	m.SetStorage("weights", buf)
	assert.Same(t, buf, m.Storage("weights"))

	var empty Material
	empty.SetTexture("albedo", nil)
	empty.SetStorage("weights", nil)
	assert.Nil(t, empty.Texture("albedo"))
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("position")
	require.NoError(t, err)
	assert.Equal(t, SlotPosition, s)
	_, err = ParseSlot("normal")
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestGeometryValidation(t *testing.T) {
	pos := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	_, err := NewGeometry(pos, nil, []uint32{0, 1, 3})
	assert.ErrorIs(t, err, ErrGeometry)
	_, err = NewGeometry(pos, nil, []uint32{0, 1})
	assert.ErrorIs(t, err, ErrGeometry)
	_, err = NewGeometry(pos, [][2]float32{{0, 0}}, []uint32{0, 1, 2})
	assert.ErrorIs(t, err, ErrGeometry)

	g, err := NewGeometry(pos, nil, []uint32{0, 1, 2})
	require.NoError(t, err)
	pos[0] = [3]float32{9, 9, 9}
	assert.Equal(t, [3]float32{0, 0, 0}, g.Position(0))
	assert.Len(t, g.VertexBytes(), 3*VertexStride)
	assert.Len(t, g.IndexBytes(), 12)

	q := Quad(2)
	assert.Equal(t, 2, q.TriangleCount())
	assert.Equal(t, [3]float32{1, 1, 0}, q.Position(2))
}

func TestSceneMaterialsDistinct(t *testing.T) {
	s := New(nil)
	a, b := NewMaterial("a"), NewMaterial("b")
	m1 := NewMesh("1", Quad(1), a)
	m2 := NewMesh("2", Quad(1), b)
	m3 := NewMesh("3", Quad(1), a)
	s.Add(m1, m2, m3)
	assert.Equal(t, []*Material{a, b}, s.Materials())

	m2.Hidden = true
	assert.Equal(t, []*Material{a}, s.Materials())
	assert.True(t, s.Remove(m1))
	assert.False(t, s.Remove(m1))
	assert.Len(t, s.Meshes(), 2)

	s.SetClock(1.5, 3)
	assert.Equal(t, 1.5, s.Time())
	assert.Equal(t, uint64(3), s.Frame())
}

func TestCameraMatrices(t *testing.T) {
	c := NewPerspective(math.Pi/2, 2, 0.1, 10)
	assert.Equal(t, 2.0, c.Aspect())
	c.SetAspect(0)
	assert.Equal(t, 2.0, c.Aspect())

	// A point on the view axis at the near plane maps to depth 0, centre of clip space.
	c.Position = [3]float64{0, 0, 0}
	c.Target = [3]float64{0, 0, -1}
	clip := c.ViewProjection().Transform([4]float64{0, 0, -0.1, 1})
	assert.InDelta(t, 0, clip[0]/clip[3], 1e-9)
	assert.InDelta(t, 0, clip[2]/clip[3], 1e-9)

	far := c.ViewProjection().Transform([4]float64{0, 0, -10, 1})
	assert.InDelta(t, 1, far[2]/far[3], 1e-9)

	// x at the frustum edge with aspect 2 and 90 degrees: x = 2*|z|.
	edge := c.ViewProjection().Transform([4]float64{2, 0, -1, 1})
	assert.InDelta(t, 1, edge[0]/edge[3], 1e-9)

	assert.Equal(t, Identity(), Identity().Mul(Identity()))
}

func TestTextureSampleAndResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})
	tex, err := NewTexture(img)
	require.NoError(t, err)

	assert.Equal(t, [4]float64{1, 0, 0, 1}, tex.Sample(0, 0.5))
	assert.Equal(t, [4]float64{0, 0, 1, 1}, tex.Sample(1, 0.5))
	mid := tex.Sample(0.5, 0.5)
	assert.InDelta(t, 0.5, mid[0], 1e-9)
	assert.InDelta(t, 0.5, mid[2], 1e-9)

	big, err := NewTexture(image.NewRGBA(image.Rect(0, 0, 64, 16)))
	require.NoError(t, err)
	small := big.Resized(32)
	assert.Equal(t, 32, small.Width())
	assert.Equal(t, 8, small.Height())
	assert.Same(t, small, small.Resized(32))

	_, err = NewTexture(image.NewRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestStorageBufferClamps(t *testing.T) {
	b, err := NewStorageBuffer([]float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, float32(1), b.At(-4))
	assert.Equal(t, float32(3), b.At(10))
	assert.Len(t, b.Bytes(), 12)
	_, err = NewStorageBuffer(nil)
	assert.ErrorIs(t, err, ErrEmptyStorage)
}
