// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import (
	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/config"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/frameloop"
	"github.com/gogpu/shade/viewport"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := shade.Open(ctx, s,
//	    shade.WithBackend(backend.PreferCompatible),
//	    shade.WithSize(800, 600))
type Option func(*options)

// options holds the optional configuration of a Renderer.
type options struct {
	pref         backend.Preference
	prober       backend.Prober
	width        int
	height       int
	clearColor   [4]float64
	compiler     *compiler.Compiler
	compilerOpts []compiler.Option
	cacheDir     string
	host         viewport.HostSurface
	provider     any
	hook         frameloop.Hook
	onError      func(error)
	onReport     func(device.FrameReport)
}

func defaultOptions() options {
	return options{
		pref:   backend.PreferAuto,
		width:  device.DefaultWidth,
		height: device.DefaultHeight,
	}
}

// WithBackend sets the backend preference. The default is auto.
func WithBackend(p backend.Preference) Option {
	return func(o *options) { o.pref = p }
}

// WithProber replaces the capability probe of the registered Capable
// device.
func WithProber(p backend.Prober) Option {
	return func(o *options) { o.prober = p }
}

// WithSize sets the initial surface size when no host is given.
func WithSize(width, height int) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithClearColor sets the color frames are cleared to.
func WithClearColor(r, g, b, a float64) Option {
	return func(o *options) { o.clearColor = [4]float64{r, g, b, a} }
}

// WithCompiler shares an existing compiler. The renderer does not close it.
func WithCompiler(c *compiler.Compiler) Option {
	return func(o *options) { o.compiler = c }
}

// WithCompilerOptions configures the compiler the renderer creates.
// Ignored together with WithCompiler.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(o *options) { o.compilerOpts = append(o.compilerOpts, opts...) }
}

// WithCacheDir persists translated artifacts under dir. Ignored together
// with WithCompiler.
func WithCacheDir(dir string) Option {
	return func(o *options) { o.cacheDir = dir }
}

// WithHost sets the host surface whose size the viewport follows. Without
// a host the renderer uses a fixed in-memory one of the configured size.
func WithHost(h viewport.HostSurface) Option {
	return func(o *options) { o.host = h }
}

// WithDeviceProvider lets the Capable device render on a host's GPU
// device. See device/wgpu.
func WithDeviceProvider(p any) Option {
	return func(o *options) { o.provider = p }
}

// WithHook sets the initial per-frame hook.
func WithHook(h frameloop.Hook) Option {
	return func(o *options) { o.hook = h }
}

// OnError receives resize and submission errors of every tick.
func OnError(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// OnFrameReport receives the report of every submitted frame.
func OnFrameReport(fn func(device.FrameReport)) Option {
	return func(o *options) { o.onReport = fn }
}

// WithConfig applies the renderer and compiler sections of c. Options
// after it override individual values.
func WithConfig(c config.Config) Option {
	return func(o *options) {
		o.pref = c.Renderer.Backend
		o.width, o.height = c.Renderer.Width, c.Renderer.Height
		o.clearColor = c.Renderer.ClearColor
		o.compilerOpts = append(o.compilerOpts,
			compiler.WithCacheCapacity(c.Compiler.CacheCapacity),
			compiler.WithTolerance(c.Compiler.Tolerance),
			compiler.WithWorkers(c.Compiler.Workers))
		o.cacheDir = c.Compiler.CacheDir
	}
}
