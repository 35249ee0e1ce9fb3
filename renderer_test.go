// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/config"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/device/software"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
	"github.com/gogpu/shade/viewport"
)

type glslStub struct{}

func (glslStub) Translate(string, compiler.Stage, backend.Kind) (compiler.Artifact, error) {
	return compiler.Artifact{GLSL: "#version 300 es\n"}, nil
}

func stubCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	c := compiler.New(compiler.WithTranslator(glslStub{}))
	t.Cleanup(c.Close)
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
	s.Add(scene.NewMesh("quad", scene.Quad(20), m))
	return s
}

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBackendSelection(t *testing.T) {
	tests := []struct {
		name  string
		pref  backend.Preference
		probe backend.Prober
		want  backend.Kind
	}{
		{"forced compatible, supported", backend.PreferCompatible, backend.Static(true), backend.Compatible},
		{"forced compatible, unsupported", backend.PreferCompatible, backend.Static(false), backend.Compatible},
		{"auto, unsupported", backend.PreferAuto, backend.Static(false), backend.Compatible},
		{"auto, supported", backend.PreferAuto, backend.Static(true), backend.Capable},
		{"capable, unsupported", backend.PreferCapable, backend.Static(false), backend.Compatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(pulseScene(t), WithBackend(tt.pref), WithProber(tt.probe), WithCompiler(stubCompiler(t)))
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, tt.want, r.Backend())
			assert.Equal(t, tt.want, r.Device().Kind())
		})
	}
}

func TestOpenRendersPulse(t *testing.T) {
	var reports []device.FrameReport
	r, err := Open(context.Background(), pulseScene(t),
		WithBackend(backend.PreferCompatible),
		WithCompiler(stubCompiler(t)),
		WithSize(64, 48),
		OnFrameReport(func(rep device.FrameReport) { reports = append(reports, rep) }))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Tick(t0))
	sw, ok := r.Device().(*software.Context)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 128, A: 255}, sw.At(32, 24))
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(1), reports[0].Frame)
	assert.InDelta(t, 64.0/48.0, r.Scene().Camera().Aspect(), 1e-12)
}

func TestResizeThroughRenderer(t *testing.T) {
	host := viewport.NewHost(64, 48)
	r, err := Open(context.Background(), pulseScene(t),
		WithBackend(backend.PreferCompatible), WithCompiler(stubCompiler(t)), WithHost(host))
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Tick(t0))

	host.SetSize(32, 32)
	host.SetSize(80, 40)
	require.NoError(t, r.Tick(t0.Add(time.Second)))

	w, h := r.Device().Size()
	assert.Equal(t, [2]int{80, 40}, [2]int{w, h})
	assert.InDelta(t, 2.0, r.Scene().Camera().Aspect(), 1e-12)
	assert.Equal(t, 2, r.Viewport().Applied())
}

func TestTickBeforeInit(t *testing.T) {
	var handled error
	r, err := New(pulseScene(t),
		WithBackend(backend.PreferCompatible), WithCompiler(stubCompiler(t)),
		OnError(func(err error) { handled = err }))
	require.NoError(t, err)
	defer r.Close()

	assert.ErrorIs(t, r.Tick(t0), device.ErrNotReady)
	assert.ErrorIs(t, handled, device.ErrNotReady)
}

func TestCloseDisposesEverything(t *testing.T) {
	host := viewport.NewHost(64, 48)
	r, err := Open(context.Background(), pulseScene(t),
		WithBackend(backend.PreferCompatible), WithCompiler(stubCompiler(t)), WithHost(host))
	require.NoError(t, err)
	require.NoError(t, r.Tick(t0))
	require.False(t, r.Device().Resources().IsZero())

	require.NoError(t, r.Close())
	assert.True(t, r.Device().Resources().IsZero())
	assert.Zero(t, host.Subscribers())
	assert.True(t, r.Loop().Stopped())
	assert.NoError(t, r.Tick(t0.Add(time.Second)), "ticks after close are no-ops")
	assert.ErrorIs(t, r.Device().SubmitFrame(r.Scene(), nil), device.ErrDisposed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.Backend = backend.PreferCompatible
	cfg.Renderer.Width, cfg.Renderer.Height = 100, 50

	r, err := New(pulseScene(t), WithConfig(cfg), WithCompiler(stubCompiler(t)))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, backend.Compatible, r.Backend())
	w, h := r.Device().Size()
	assert.Equal(t, [2]int{100, 50}, [2]int{w, h})
}

func TestNewWithoutScene(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilScene)
}
