// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

type glslStub struct{}

func (glslStub) Translate(string, compiler.Stage, backend.Kind) (compiler.Artifact, error) {
	return compiler.Artifact{GLSL: "#version 300 es\n"}, nil
}

func newContext(t *testing.T, opts device.Options) *Context {
	t.Helper()
	if opts.Compiler == nil {
		c := compiler.New(compiler.WithTranslator(glslStub{}), compiler.WithWorkers(4))
		t.Cleanup(c.Close)
		opts.Compiler = c
	}
	if opts.Width == 0 {
		opts.Width, opts.Height = 64, 48
	}
	ctx, err := New(opts)
	require.NoError(t, err)
	return ctx
}

func ready(t *testing.T, opts device.Options) *Context {
	t.Helper()
	c := newContext(t, opts)
	require.NoError(t, c.Init(context.Background()).Wait(context.Background()))
	return c
}

// screen returns a scene whose single quad covers the whole viewport.
func screen(t *testing.T, m *scene.Material) (*scene.Scene, *scene.Mesh) {
	t.Helper()
	cam := scene.DefaultCamera()
	cam.SetAspect(64.0 / 48.0)
	s := scene.New(cam)
	mesh := scene.NewMesh("quad", scene.Quad(20), m)
	s.Add(mesh)
	return s, mesh
}

func pulse(t *testing.T) *scene.Material {
	t.Helper()
	base := node.Must(node.Uniform("baseColor", node.RGBAValue(1, 0, 0, 1)))
	wave := node.Must(node.Sin(node.Must(node.Mul(node.Time(), node.Num(2)))))
	k := node.Must(node.Mul(node.Must(node.Add(wave, node.Num(1))), node.Num(0.5)))
	g, err := node.NewGraph(node.Must(node.Mul(base, k)))
	require.NoError(t, err)
	m := scene.NewMaterial("pulse")
	require.NoError(t, m.Bind(scene.SlotColor, g))
	return m
}

func TestInitResolvesImmediately(t *testing.T) {
	c := newContext(t, device.Options{})
	assert.Equal(t, device.StateUninitialized, c.State())

	r := c.Init(context.Background())
	select {
	case <-r.Done():
	default:
		t.Fatal("software init should resolve before Init returns")
	}
	assert.NoError(t, r.Err())
	assert.True(t, c.IsReady())
	assert.Same(t, r, c.Init(context.Background()))
}

func TestSubmitBeforeInit(t *testing.T) {
	c := newContext(t, device.Options{})
	s, _ := screen(t, scene.NewMaterial("m"))
	assert.ErrorIs(t, c.SubmitFrame(s, nil), device.ErrNotReady)
}

func TestPulseFrame(t *testing.T) {
	var reports []device.FrameReport
	c := ready(t, device.Options{OnReport: func(r device.FrameReport) { reports = append(reports, r) }})
	s, _ := screen(t, pulse(t))

	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, color.RGBA{R: 128, A: 255}, c.At(32, 24))
	assert.Equal(t, color.RGBA{R: 128, A: 255}, c.At(0, 0))

	require.Len(t, reports, 1)
	assert.Equal(t, backend.Compatible, reports[0].Backend)
	assert.Equal(t, 1, reports[0].Meshes)
	assert.NoError(t, reports[0].Err)

	// sin(pi/4 * 2) = 1, full intensity.
	s.SetClock(0.7853981633974483, 1)
	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, c.At(32, 24))
}

func TestClearColorOutsideGeometry(t *testing.T) {
	c := ready(t, device.Options{ClearColor: [4]float64{0, 0, 1, 1}})
	m := scene.NewMaterial("white")
	g, err := node.NewGraph(node.Must(node.Add(node.Position(), node.Vec(100, 0, 0))))
	require.NoError(t, err)
	require.NoError(t, m.Bind(scene.SlotPosition, g))
	s, _ := screen(t, m)

	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, c.At(32, 24))
}

func TestDefaultMaterialUsesBaseColor(t *testing.T) {
	c := ready(t, device.Options{})
	m := scene.NewMaterial("green")
	m.BaseColor = [4]float64{0, 1, 0, 1}
	s, _ := screen(t, m)

	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, c.At(10, 10))
}

func TestUVInterpolation(t *testing.T) {
	c := ready(t, device.Options{})
	uv := node.UV()
	g, err := node.NewGraph(node.Must(node.Construct(node.Color,
		node.Must(node.Swizzle(uv, "x")), node.Must(node.Swizzle(uv, "y")), node.Num(0), node.Num(1))))
	require.NoError(t, err)
	m := scene.NewMaterial("uv")
	require.NoError(t, m.Bind(scene.SlotColor, g))
	cam := scene.DefaultCamera()
	cam.SetAspect(64.0 / 48.0)
	s := scene.New(cam)
	s.Add(scene.NewMesh("quad", scene.Quad(1), m))

	require.NoError(t, c.SubmitFrame(s, nil))
	left, right := c.At(26, 24), c.At(38, 24)
	top, bottom := c.At(32, 20), c.At(32, 28)
	assert.Less(t, left.R, right.R)
	assert.Greater(t, top.G, bottom.G, "uv.y grows upwards")
	assert.Equal(t, uint8(0), c.At(0, 0).A, "outside the quad stays cleared")
}

func TestFallbackIsMagenta(t *testing.T) {
	var rep device.FrameReport
	c := ready(t, device.Options{OnReport: func(r device.FrameReport) { rep = r }})
	g, err := node.NewGraph(node.Must(node.Construct(node.Color,
		node.Must(node.StorageRead("weights", node.Num(0))), node.Num(0), node.Num(0), node.Num(1))))
	require.NoError(t, err)
	m := scene.NewMaterial("storage")
	require.NoError(t, m.Bind(scene.SlotColor, g))
	s, _ := screen(t, m)

	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, color.RGBA{R: 255, B: 255, A: 255}, c.At(32, 24))
	assert.Equal(t, 1, rep.Fallbacks)
	var ce *compiler.CompileError
	assert.ErrorAs(t, rep.Err, &ce)
}

func TestResize(t *testing.T) {
	c := ready(t, device.Options{})
	require.NoError(t, c.Resize(32, 16))
	w, h := c.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.Equal(t, 32, c.Image().Rect.Dx())
	assert.ErrorIs(t, c.Resize(0, 10), device.ErrInvalidSize)
}

func TestDisposeReleasesEverything(t *testing.T) {
	c := ready(t, device.Options{})
	s, _ := screen(t, pulse(t))
	require.NoError(t, c.SubmitFrame(s, nil))

	r := c.Resources()
	assert.Equal(t, 2, r.Textures)
	assert.Equal(t, 1, r.Buffers)
	assert.Equal(t, 2, r.ShaderModules)

	require.NoError(t, c.Dispose())
	assert.True(t, c.Resources().IsZero())
	assert.Equal(t, device.StateDisposed, c.State())

	err := c.SubmitFrame(s, nil)
	require.ErrorIs(t, err, device.ErrDisposed)
	assert.EqualError(t, err, "context disposed")
	assert.True(t, c.Resources().IsZero())

	assert.ErrorIs(t, c.Dispose(), device.ErrDisposed)
	assert.ErrorIs(t, c.Resize(10, 10), device.ErrDisposed)
	assert.Nil(t, c.Image())
}

func TestCachesFollowTheScene(t *testing.T) {
	c := ready(t, device.Options{})
	m := scene.NewMaterial("rebound")
	s, mesh := screen(t, m)

	for i := range 50 {
		g, err := node.NewGraph(node.RGBA(float64(i)/50, 0, 0, 1))
		require.NoError(t, err)
		require.NoError(t, m.Bind(scene.SlotColor, g))
		require.NoError(t, c.SubmitFrame(s, nil))

		r := c.Resources()
		assert.Equal(t, 2, r.ShaderModules, "rebind %d", i)
		assert.Equal(t, 1, r.Buffers, "rebind %d", i)
	}

	other := scene.NewMesh("other", scene.Quad(1), pulse(t))
	s.Add(other)
	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, 2, c.Resources().Buffers)

	require.True(t, s.Remove(mesh))
	require.True(t, s.Remove(other))
	require.NoError(t, c.SubmitFrame(s, nil))
	r := c.Resources()
	assert.Zero(t, r.ShaderModules)
	assert.Zero(t, r.Buffers)
	assert.Equal(t, 2, r.Textures, "framebuffer stays")
}

func TestSubmitAfterConcurrentDispose(t *testing.T) {
	c := ready(t, device.Options{})
	s, _ := screen(t, pulse(t))

	// Dispose landing between the ready check and the frame lock.
	c.mu.Lock()
	c.target = nil
	c.mu.Unlock()
	assert.ErrorIs(t, c.SubmitFrame(s, nil), device.ErrDisposed)

	c2 := ready(t, device.Options{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 20 {
			if err := c2.SubmitFrame(s, nil); err != nil {
				assert.ErrorIs(t, err, device.ErrDisposed)
			}
		}
	}()
	require.NoError(t, c2.Dispose())
	<-done
}

func TestRegistered(t *testing.T) {
	cc := compiler.New(compiler.WithTranslator(glslStub{}))
	t.Cleanup(cc.Close)
	dev, err := device.New(backend.Compatible, device.Options{Compiler: cc})
	require.NoError(t, err)
	assert.IsType(t, &Context{}, dev)
}
