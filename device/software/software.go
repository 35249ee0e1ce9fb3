// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements the Compatible device context.
//
// Frames are rasterized on the CPU: position programs run per vertex,
// color programs per pixel, both through the float64 kernels the
// compiler builds for the Compatible backend. Rows are split into bands
// rendered concurrently on the compiler's worker pool. Initialization is
// synchronous.
//
// Importing the package registers it with the device registry.
package software

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/scene"
)

func init() {
	device.Register(backend.Compatible, func(opts device.Options) (device.Context, error) {
		return New(opts)
	})
}

// Context is the CPU rendering context.
type Context struct {
	device.Lifecycle

	opts device.Options

	mu       sync.Mutex // guards the fields below against Resources/Image
	width    int
	height   int
	target   *framebuffer
	vertices map[*scene.Geometry][]vertex
	programs map[compiler.Key]*compiler.Program
}

// New returns an uninitialized context.
func New(opts device.Options) (*Context, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	return &Context{opts: opts, width: opts.Width, height: opts.Height}, nil
}

// Kind returns backend.Compatible.
func (c *Context) Kind() backend.Kind { return backend.Compatible }

// Init allocates the framebuffer. The returned Ready is already resolved.
func (c *Context) Init(ctx context.Context) *device.Ready {
	r, initCtx, start := c.Begin(ctx)
	if !start {
		return r
	}
	err := initCtx.Err()
	if err == nil {
		c.mu.Lock()
		c.target = newFramebuffer(c.width, c.height)
		c.vertices = make(map[*scene.Geometry][]vertex)
		c.programs = make(map[compiler.Key]*compiler.Program)
		c.mu.Unlock()
	} else {
		err = &device.InitError{Backend: backend.Compatible, Stage: "framebuffer", Err: err}
	}
	if c.Finish(err) {
		logging.Logger().Info("software: device ready", "width", c.width, "height", c.height)
	}
	return r
}

// IsReady reports whether frames can be submitted.
func (c *Context) IsReady() bool { return c.State() == device.StateReady }

// Size returns the surface size.
func (c *Context) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Resize changes the surface size. The framebuffer is reallocated right
// away when the context is ready, otherwise at Init.
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
	if c.target != nil {
		c.target = newFramebuffer(width, height)
	}
	return nil
}

// SubmitFrame renders s through cam. A nil cam uses the scene camera.
func (c *Context) SubmitFrame(s *scene.Scene, cam *scene.Camera) error {
	if err := c.CheckReady(); err != nil {
		return err
	}
	f, err := device.PrepareFrame(context.Background(), c.opts.Compiler, backend.Compatible, s, cam)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.target == nil {
		// Dispose ran after CheckReady.
		c.mu.Unlock()
		return device.ErrDisposed
	}
	tris := c.setup(f)
	c.target.clear(c.opts.ClearColor)
	rasterize(c.opts.Compiler.Pool(), c.target, tris, f.Time)
	c.mu.Unlock()

	if f.Err != nil {
		logging.Logger().Debug("software: frame used fallback programs", "frame", f.Number, "err", f.Err)
	}
	c.opts.Report(f.Report(backend.Compatible))
	return nil
}

// Image returns a copy of the last rendered frame.
func (c *Context) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return nil
	}
	img := image.NewRGBA(c.target.color.Rect)
	copy(img.Pix, c.target.color.Pix)
	return img
}

// At returns one pixel of the last rendered frame.
func (c *Context) At(x, y int) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return color.RGBA{}
	}
	return c.target.color.RGBAAt(x, y)
}

// Resources reports the framebuffer planes as textures, per-geometry
// vertex caches as buffers and bound programs as shader modules.
func (c *Context) Resources() device.ResourceCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r device.ResourceCounts
	if c.target != nil {
		r.Textures = 2
	}
	r.Buffers = len(c.vertices)
	r.ShaderModules = len(c.programs)
	return r
}

// Dispose releases the framebuffer and caches.
func (c *Context) Dispose() error {
	if err := c.Lifecycle.Dispose(); err != nil {
		return err
	}
	c.mu.Lock()
	c.target = nil
	c.vertices = nil
	c.programs = nil
	c.mu.Unlock()
	logging.Logger().Info("software: device disposed")
	return nil
}
