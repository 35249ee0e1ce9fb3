// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the Capable device context on the gogpu/wgpu
// hardware abstraction layer.
//
// Initialization runs on its own goroutine: Init returns at once and the
// Ready handle resolves when the adapter is open and the render target,
// frame uniforms and shared bind groups exist. Frames render offscreen
// into an RGBA8 color target with a depth attachment. Graph programs are
// uploaded as SPIR-V shader modules; pipelines, vertex buffers, textures
// and storage buffers are created on first use and kept until Dispose.
//
// Importing the package registers it with the device registry together
// with a probe that checks whether a Vulkan adapter can be found.
package wgpu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/scene"
)

var (
	// ErrNoAdapter is the cause of an init failure when no adapter exists.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter found")

	// ErrBackendUnavailable is the cause of an init failure when the HAL
	// backend is not compiled in.
	ErrBackendUnavailable = errors.New("wgpu: HAL backend not registered")

	// ErrProvider is returned for a host provider without HAL access.
	ErrProvider = errors.New("wgpu: provider does not expose HAL device and queue")
)

func init() {
	device.Register(backend.Capable, func(opts device.Options) (device.Context, error) {
		return New(opts)
	})
	device.RegisterProber(Probe(gputypes.BackendVulkan))
}

// Option configures a Context beyond device.Options.
type Option func(*Context)

// WithHAL selects the HAL backend to open. The default is Vulkan.
func WithHAL(b gputypes.Backend) Option {
	return func(c *Context) { c.variant = b }
}

// Context is the GPU rendering context.
type Context struct {
	device.Lifecycle

	opts    device.Options
	variant gputypes.Backend

	mu     sync.Mutex
	width  int
	height int
	gpu    *gpu // nil until init succeeds and after Dispose
}

// gpu is everything a successful init creates.
type gpu struct {
	instance hal.Instance
	dev      hal.Device
	queue    hal.Queue
	shared   bool // dev and queue belong to the host
	adapter  string

	frame  *frameGroup
	target *renderTarget
	cache  *resourceCache
}

// New returns an uninitialized context. With a device provider in opts the
// context renders on the host's device instead of opening its own.
func New(opts device.Options, options ...Option) (*Context, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	c := &Context{opts: opts, variant: gputypes.BackendVulkan, width: opts.Width, height: opts.Height}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

// Kind returns backend.Capable.
func (c *Context) Kind() backend.Kind { return backend.Capable }

// Adapter names the adapter in use once ready.
func (c *Context) Adapter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gpu == nil {
		return ""
	}
	return c.gpu.adapter
}

// IsReady reports whether frames can be submitted.
func (c *Context) IsReady() bool { return c.State() == device.StateReady }

// Init starts asynchronous initialization.
func (c *Context) Init(ctx context.Context) *device.Ready {
	r, initCtx, start := c.Begin(ctx)
	if start {
		w, h := c.Size()
		go c.initialize(initCtx, w, h)
	}
	return r
}

func (c *Context) initialize(ctx context.Context, width, height int) {
	g, err := c.build(ctx, width, height)
	if err == nil {
		c.mu.Lock()
		c.gpu = g
		c.mu.Unlock()
	}
	if c.Finish(err) {
		logging.Logger().Info("wgpu: device ready", "adapter", g.adapter, "width", width, "height", height)
		return
	}
	if err != nil {
		if c.State() == device.StateFailed {
			logging.Logger().Warn("wgpu: init failed", "err", err)
		}
		return
	}
	// Disposed while initializing.
	c.mu.Lock()
	c.release()
	c.mu.Unlock()
}

// build opens the device and creates the per-context objects. On failure
// everything created so far is destroyed.
func (c *Context) build(ctx context.Context, width, height int) (*gpu, error) {
	g := &gpu{}
	if err := c.assemble(ctx, g, width, height); err != nil {
		g.destroy()
		var ie *device.InitError
		if !errors.As(err, &ie) {
			err = &device.InitError{Backend: backend.Capable, Stage: "device", Err: err}
		}
		return nil, err
	}
	return g, nil
}

func (c *Context) assemble(ctx context.Context, g *gpu, width, height int) error {
	fail := func(stage string, err error) error {
		return &device.InitError{Backend: backend.Capable, Stage: stage, Err: err}
	}
	if c.opts.Provider != nil {
		if err := g.useProvider(c.opts.Provider); err != nil {
			return fail("provider", err)
		}
	} else if err := g.open(c.variant); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fail("device", err)
	}

	g.cache = newResourceCache()
	var err error
	if g.frame, err = newFrameGroup(g.dev, g.queue); err != nil {
		return fail("frame", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("frame", err)
	}
	if g.target, err = newRenderTarget(g.dev, width, height); err != nil {
		return fail("target", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("target", err)
	}
	return nil
}

// open creates an instance and opens the preferred adapter, discrete or
// integrated GPUs first.
func (g *gpu) open(variant gputypes.Backend) error {
	fail := func(stage string, err error) error {
		return &device.InitError{Backend: backend.Capable, Stage: stage, Err: err}
	}
	b, ok := hal.GetBackend(variant)
	if !ok {
		return fail("instance", fmt.Errorf("%w: %v", ErrBackendUnavailable, variant))
	}
	inst, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fail("instance", err)
	}
	g.instance = inst

	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fail("adapter", ErrNoAdapter)
	}
	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	od, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fail("device", err)
	}
	g.dev, g.queue = od.Device, od.Queue
	g.adapter = selected.Info.Name
	return nil
}

// useProvider adopts a host device. The provider must expose
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (g *gpu) useProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return ErrProvider
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return fmt.Errorf("%w: HalDevice is %T", ErrProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("%w: HalQueue is %T", ErrProvider, hp.HalQueue())
	}
	g.dev, g.queue, g.shared = dev, queue, true
	g.adapter = providerName(provider)
	return nil
}

// destroy releases every object in reverse creation order. A host device
// is left open.
func (g *gpu) destroy() {
	if g.dev != nil {
		if err := g.dev.WaitIdle(); err != nil {
			logging.Logger().Warn("wgpu: wait idle", "err", err)
		}
	}
	g.cache.destroy(g.dev)
	g.target.destroy(g.dev)
	g.frame.destroy(g.dev)
	if g.dev != nil && !g.shared {
		g.dev.Destroy()
	}
	if g.instance != nil {
		g.instance.Destroy()
	}
	*g = gpu{}
}

// Size returns the surface size.
func (c *Context) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Resize records the new surface size. The render target follows on the
// next submitted frame.
func (c *Context) Resize(width, height int) error {
	if c.State() == device.StateDisposed {
		return device.ErrDisposed
	}
	if err := device.CheckSize(width, height); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	return nil
}

// Resources counts live HAL objects.
func (c *Context) Resources() device.ResourceCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r device.ResourceCounts
	if g := c.gpu; g != nil {
		g.target.count(&r)
		g.frame.count(&r)
		g.cache.count(&r)
	}
	return r
}

// Dispose cancels a pending init, waits for it and releases every HAL
// object.
func (c *Context) Dispose() error {
	if err := c.Lifecycle.Dispose(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
	logging.Logger().Info("wgpu: device disposed")
	return nil
}

func (c *Context) release() {
	if c.gpu != nil {
		c.gpu.destroy()
		c.gpu = nil
	}
}

// SubmitFrame renders s through cam. A nil cam uses the scene camera.
func (c *Context) SubmitFrame(s *scene.Scene, cam *scene.Camera) error {
	if err := c.CheckReady(); err != nil {
		return err
	}
	f, err := device.PrepareFrame(context.Background(), c.opts.Compiler, backend.Capable, s, cam)
	if err != nil {
		return err
	}

	c.mu.Lock()
	skipped, err := c.render(f)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	rep := f.Report(backend.Capable)
	if skipped > 0 {
		rep.Meshes -= skipped
		logging.Logger().Warn("wgpu: draws skipped without SPIR-V", "count", skipped)
	}
	c.opts.Report(rep)
	return nil
}

// Programs lists the programs uploaded as shader modules.
func (c *Context) Programs() []compiler.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gpu == nil {
		return nil
	}
	return c.gpu.cache.moduleKeys()
}
