// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

// spirvStub emits a one-word module for Capable and GLSL otherwise.
type spirvStub struct{}

func (spirvStub) Translate(_ string, _ compiler.Stage, kind backend.Kind) (compiler.Artifact, error) {
	if kind == backend.Capable {
		return compiler.Artifact{SPIRV: []uint32{0x07230203}}, nil
	}
	return compiler.Artifact{GLSL: "#version 300 es\n"}, nil
}

type glslOnly struct{}

func (glslOnly) Translate(string, compiler.Stage, backend.Kind) (compiler.Artifact, error) {
	return compiler.Artifact{GLSL: "#version 300 es\n"}, nil
}

func newContext(t *testing.T, tr compiler.Translator, opts device.Options) *Context {
	t.Helper()
	cc := compiler.New(compiler.WithTranslator(tr))
	t.Cleanup(cc.Close)
	opts.Compiler = cc
	if opts.Width == 0 {
		opts.Width, opts.Height = 64, 48
	}
	c, err := New(opts, WithHAL(gputypes.BackendEmpty))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Dispose() })
	return c
}

func wait(t *testing.T, r *device.Ready) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Wait(ctx)
}

func ready(t *testing.T, tr compiler.Translator, opts device.Options) *Context {
	t.Helper()
	c := newContext(t, tr, opts)
	require.NoError(t, wait(t, c.Init(context.Background())))
	return c
}

func pulseScene(t *testing.T) *scene.Scene {
	t.Helper()
	base := node.Must(node.Uniform("baseColor", node.RGBAValue(1, 0, 0, 1)))
	wave := node.Must(node.Sin(node.Must(node.Mul(node.Time(), node.Num(2)))))
	k := node.Must(node.Mul(node.Must(node.Add(wave, node.Num(1))), node.Num(0.5)))
	g, err := node.NewGraph(node.Must(node.Mul(base, k)))
	require.NoError(t, err)
	m := scene.NewMaterial("pulse")
	require.NoError(t, m.Bind(scene.SlotColor, g))
	s := scene.New(scene.DefaultCamera())
	s.Add(scene.NewMesh("quad", scene.Quad(2), m))
	return s
}

func TestInitIsAsynchronous(t *testing.T) {
	c := newContext(t, spirvStub{}, device.Options{})
	assert.Equal(t, device.StateUninitialized, c.State())
	assert.True(t, c.Resources().IsZero())

	r := c.Init(context.Background())
	assert.Same(t, r, c.Init(context.Background()))
	require.NoError(t, wait(t, r))

	assert.True(t, c.IsReady())
	assert.Equal(t, "Noop Adapter", c.Adapter())
	assert.Equal(t, device.ResourceCounts{
		Buffers:      2,
		Textures:     3,
		TextureViews: 3,
		Samplers:     1,
		Layouts:      1,
		BindGroups:   1,
	}, c.Resources())
}

func TestSubmitFrame(t *testing.T) {
	var reports []device.FrameReport
	c := ready(t, spirvStub{}, device.Options{OnReport: func(r device.FrameReport) { reports = append(reports, r) }})
	s := pulseScene(t)

	require.NoError(t, c.SubmitFrame(s, nil))
	require.Len(t, reports, 1)
	assert.Equal(t, backend.Capable, reports[0].Backend)
	assert.Equal(t, 1, reports[0].Meshes)
	assert.Zero(t, reports[0].Fallbacks)
	assert.Len(t, c.Programs(), 2)

	first := c.Resources()
	assert.Equal(t, 2, first.ShaderModules)
	assert.Equal(t, 1, first.Pipelines)
	assert.Equal(t, 3, first.BindGroups)
	// frame uniform, placeholder storage, vertices, params
	assert.Equal(t, 4, first.Buffers)

	s.SetClock(1, 1)
	require.NoError(t, c.SubmitFrame(s, nil))
	assert.Equal(t, first, c.Resources(), "second frame reuses every object")
}

func TestUnusedObjectsAreReleased(t *testing.T) {
	c := ready(t, spirvStub{}, device.Options{})
	base := c.Resources()
	m := scene.NewMaterial("rebound")
	s := scene.New(scene.DefaultCamera())
	mesh := scene.NewMesh("quad", scene.Quad(2), m)
	s.Add(mesh)

	for i := range 50 {
		g, err := node.NewGraph(node.RGBA(float64(i)/50, 0, 0, 1))
		require.NoError(t, err)
		require.NoError(t, m.Bind(scene.SlotColor, g))
		s.SetClock(float64(i), uint64(i))
		require.NoError(t, c.SubmitFrame(s, nil))

		r := c.Resources()
		assert.LessOrEqual(t, r.ShaderModules, retainFrames+1, "rebind %d", i)
		assert.LessOrEqual(t, r.Pipelines, retainFrames, "rebind %d", i)
	}

	require.True(t, s.Remove(mesh))
	for range retainFrames {
		require.NoError(t, c.SubmitFrame(s, nil))
	}
	assert.Equal(t, base, c.Resources(), "only the frame objects remain")
	assert.Empty(t, c.Programs())
}

func TestSubmitAfterConcurrentDispose(t *testing.T) {
	c := ready(t, spirvStub{}, device.Options{})

	// Dispose landing between the ready check and the frame lock.
	c.mu.Lock()
	g := c.gpu
	c.gpu = nil
	c.mu.Unlock()
	t.Cleanup(g.destroy)

	assert.ErrorIs(t, c.SubmitFrame(pulseScene(t), nil), device.ErrDisposed)
}

func TestDrawsWithoutSPIRVAreSkipped(t *testing.T) {
	var rep device.FrameReport
	c := ready(t, glslOnly{}, device.Options{OnReport: func(r device.FrameReport) { rep = r }})

	require.NoError(t, c.SubmitFrame(pulseScene(t), nil))
	assert.Zero(t, rep.Meshes)
	assert.Empty(t, c.Programs())
	assert.Zero(t, c.Resources().Pipelines)
}

func TestResizeRecreatesTarget(t *testing.T) {
	c := ready(t, spirvStub{}, device.Options{})
	require.NoError(t, c.Resize(128, 96))
	w, h := c.Size()
	assert.Equal(t, 128, w)
	assert.Equal(t, 96, h)

	require.NoError(t, c.SubmitFrame(pulseScene(t), nil))
	c.mu.Lock()
	assert.Equal(t, 128, c.gpu.target.width)
	assert.Equal(t, 96, c.gpu.target.height)
	c.mu.Unlock()
	assert.ErrorIs(t, c.Resize(-1, 4), device.ErrInvalidSize)
}

func TestDisposeReleasesEverything(t *testing.T) {
	c := ready(t, spirvStub{}, device.Options{})
	s := pulseScene(t)
	require.NoError(t, c.SubmitFrame(s, nil))
	require.False(t, c.Resources().IsZero())

	require.NoError(t, c.Dispose())
	assert.True(t, c.Resources().IsZero())
	assert.Equal(t, device.StateDisposed, c.State())

	err := c.SubmitFrame(s, nil)
	require.ErrorIs(t, err, device.ErrDisposed)
	assert.EqualError(t, err, "context disposed")
	assert.True(t, c.Resources().IsZero())
	assert.Empty(t, c.Programs())
	assert.ErrorIs(t, c.Dispose(), device.ErrDisposed)
}

func TestDisposeDuringInit(t *testing.T) {
	c := newContext(t, spirvStub{}, device.Options{})
	r := c.Init(context.Background())
	require.NoError(t, c.Dispose())

	err := wait(t, r)
	if err != nil {
		assert.ErrorIs(t, err, device.ErrDisposed)
	}
	assert.Equal(t, device.StateDisposed, c.State())
	assert.True(t, c.Resources().IsZero())
	assert.ErrorIs(t, wait(t, c.Init(context.Background())), device.ErrDisposed)
}

func TestUnavailableBackendFails(t *testing.T) {
	cc := compiler.New(compiler.WithTranslator(spirvStub{}))
	t.Cleanup(cc.Close)
	c, err := New(device.Options{Compiler: cc}, WithHAL(gputypes.BackendBrowserWebGPU))
	require.NoError(t, err)

	err = wait(t, c.Init(context.Background()))
	require.ErrorIs(t, err, ErrBackendUnavailable)
	var ie *device.InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "instance", ie.Stage)
	assert.Equal(t, device.StateFailed, c.State())
	assert.True(t, c.Resources().IsZero())
	assert.ErrorIs(t, c.SubmitFrame(pulseScene(t), nil), device.ErrInitFailed)
}

type hostDevice struct {
	dev   hal.Device
	queue hal.Queue
}

func (h hostDevice) HalDevice() any { return h.dev }
func (h hostDevice) HalQueue() any  { return h.queue }

func TestProviderDevice(t *testing.T) {
	inst, err := noop.API{}.CreateInstance(&hal.InstanceDescriptor{})
	require.NoError(t, err)
	od, err := inst.EnumerateAdapters(nil)[0].Adapter.Open(0, gputypes.DefaultLimits())
	require.NoError(t, err)

	c := ready(t, spirvStub{}, device.Options{Provider: hostDevice{dev: od.Device, queue: od.Queue}})
	assert.Equal(t, "host device", c.Adapter())
	require.NoError(t, c.SubmitFrame(pulseScene(t), nil))

	c.mu.Lock()
	assert.True(t, c.gpu.shared)
	c.mu.Unlock()
	require.NoError(t, c.Dispose())
	assert.True(t, c.Resources().IsZero())
}

func TestProviderWithoutHAL(t *testing.T) {
	c := newContext(t, spirvStub{}, device.Options{Provider: struct{}{}})
	err := wait(t, c.Init(context.Background()))
	assert.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, device.StateFailed, c.State())
}

func TestProbe(t *testing.T) {
	res := backend.RunProbe(Probe(gputypes.BackendEmpty))
	assert.True(t, res.Supported)
	assert.Equal(t, "Noop Adapter", res.Adapter)

	res = backend.RunProbe(Probe(gputypes.BackendBrowserWebGPU))
	assert.False(t, res.Supported)
	assert.ErrorIs(t, res.Err, ErrBackendUnavailable)
}

func TestRegistered(t *testing.T) {
	assert.True(t, device.IsRegistered(backend.Capable))
}
