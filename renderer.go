// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/frameloop"
	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/scene"
	"github.com/gogpu/shade/viewport"

	// Device contexts register themselves with the device registry.
	_ "github.com/gogpu/shade/device/software"
	_ "github.com/gogpu/shade/device/wgpu"
)

var (
	// ErrNilScene is returned by New without a scene.
	ErrNilScene = errors.New("shade: nil scene")

	// ErrClosed is returned by Close on a renderer already closed.
	ErrClosed = errors.New("shade: renderer closed")
)

// Renderer wires backend selection, a device context, a viewport manager
// and a frame loop around one scene.
type Renderer struct {
	scene *scene.Scene
	kind  backend.Kind
	probe backend.ProbeResult

	comp      *compiler.Compiler
	ownsComp  bool
	dev       device.Context
	viewport  *viewport.Manager
	loop      *frameloop.Loop
	closeOnce sync.Once
}

// New selects a backend and builds the renderer without initializing the
// device. Call Init, or use Open.
func New(s *scene.Scene, opts ...Option) (*Renderer, error) {
	if s == nil {
		return nil, ErrNilScene
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{scene: s}
	prober := o.prober
	if prober == nil {
		prober = device.CapabilityProber()
	}
	if o.pref == backend.PreferCompatible {
		r.kind = backend.Compatible
	} else {
		r.probe = backend.RunProbe(prober)
		r.kind = backend.Select(o.pref, r.probe)
	}
	logging.Logger().Info("shade: backend selected",
		"backend", r.kind, "preference", o.pref, "adapter", r.probe.Adapter, "probe_err", r.probe.Err)

	if err := r.buildCompiler(o); err != nil {
		return nil, err
	}

	host := o.host
	if host == nil {
		host = viewport.NewHost(o.width, o.height)
	}
	width, height := host.Size()
	if width <= 0 || height <= 0 {
		width, height = o.width, o.height
	}
	dev, err := device.New(r.kind, device.Options{
		Compiler:   r.comp,
		Width:      width,
		Height:     height,
		ClearColor: o.clearColor,
		OnReport:   o.onReport,
		Provider:   o.provider,
	})
	if err != nil {
		r.closeCompiler()
		return nil, err
	}
	r.dev = dev

	if r.viewport, err = viewport.New(s.Camera(), dev, host); err != nil {
		r.closeCompiler()
		return nil, err
	}
	loopOpts := []frameloop.Option{frameloop.WithViewport(r.viewport), frameloop.WithHook(o.hook)}
	if o.onError != nil {
		loopOpts = append(loopOpts, frameloop.OnError(o.onError))
	}
	r.loop = frameloop.New(dev, s, loopOpts...)
	return r, nil
}

func (r *Renderer) buildCompiler(o options) error {
	if o.compiler != nil {
		r.comp = o.compiler
		return nil
	}
	copts := o.compilerOpts
	if o.cacheDir != "" {
		store, err := compiler.NewDiskStore(o.cacheDir)
		if err != nil {
			return fmt.Errorf("shade: %w", err)
		}
		copts = append(copts, compiler.WithStore(store))
	}
	r.comp = compiler.New(copts...)
	r.ownsComp = true
	return nil
}

func (r *Renderer) closeCompiler() {
	if r.ownsComp {
		r.comp.Close()
	}
}

// Open builds the renderer and waits until its device is ready or ctx is
// done. On failure nothing is left open.
func Open(ctx context.Context, s *scene.Scene, opts ...Option) (*Renderer, error) {
	r, err := New(s, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Init(ctx).Wait(ctx); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// Init starts device initialization. Compatible devices are ready when
// Init returns; Capable devices resolve the handle later.
func (r *Renderer) Init(ctx context.Context) *device.Ready { return r.dev.Init(ctx) }

// Tick runs one frame. See frameloop.Loop.Tick.
func (r *Renderer) Tick(now time.Time) error { return r.loop.Tick(now) }

// Run ticks once per value from ticks. See frameloop.Loop.Run.
func (r *Renderer) Run(ctx context.Context, ticks <-chan time.Time) error {
	return r.loop.Run(ctx, ticks)
}

// SetHook replaces the per-frame hook from the next tick on.
func (r *Renderer) SetHook(h frameloop.Hook) { r.loop.SetHook(h) }

// Stop stops the frame loop. The device stays alive until Close.
func (r *Renderer) Stop() { r.loop.Stop() }

// Backend returns the selected backend.
func (r *Renderer) Backend() backend.Kind { return r.kind }

// Probe returns the capability probe result behind the selection. It is
// empty when Compatible was forced.
func (r *Renderer) Probe() backend.ProbeResult { return r.probe }

// Device returns the device context.
func (r *Renderer) Device() device.Context { return r.dev }

// Compiler returns the node compiler.
func (r *Renderer) Compiler() *compiler.Compiler { return r.comp }

// Viewport returns the viewport manager.
func (r *Renderer) Viewport() *viewport.Manager { return r.viewport }

// Loop returns the frame loop.
func (r *Renderer) Loop() *frameloop.Loop { return r.loop }

// Scene returns the rendered scene.
func (r *Renderer) Scene() *scene.Scene { return r.scene }

// Close stops the loop, unsubscribes the viewport and disposes the
// device. A compiler created by the renderer is closed too.
func (r *Renderer) Close() error {
	err := ErrClosed
	r.closeOnce.Do(func() {
		r.loop.Stop()
		err = errors.Join(r.viewport.Dispose(), r.dev.Dispose())
		r.closeCompiler()
	})
	return err
}
